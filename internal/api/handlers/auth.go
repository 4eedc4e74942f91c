package handlers

import (
	"context"
	"net/http"
	"strings"

	"route-planning-service/internal/api/dto"
	"route-planning-service/internal/services"
)

// AuthHandler exposes registration, login and token verification, and guards
// the planning endpoints with bearer tokens.
type AuthHandler struct {
	Auth *services.AuthService
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.Auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, "register", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.RegisterResponse{
		Success: true,
		Message: "user registered",
		Info:    dto.UserInfo{Username: user.Username, Email: user.Email},
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, "login", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.LoginResponse{
		Success: true,
		Message: "login successful",
		Token:   token,
	})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	claims, err := h.Auth.VerifyToken(req.Token)
	if err != nil {
		writeJSON(w, r, http.StatusUnauthorized, dto.VerifyResponse{Valid: false, Error: "invalid token"})
		return
	}

	writeJSON(w, r, http.StatusOK, dto.VerifyResponse{Valid: true, Payload: tokenPayload(claims)})
}

type claimsKey struct{}

// Authenticate rejects requests without a valid bearer token and puts the
// claims on the request context.
func (h *AuthHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, r, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := h.Auth.VerifyToken(strings.TrimSpace(token))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the claims Authenticate stored, or nil.
func ClaimsFromContext(ctx context.Context) *services.Claims {
	c, _ := ctx.Value(claimsKey{}).(*services.Claims)
	return c
}

func tokenPayload(c *services.Claims) *dto.TokenPayload {
	p := &dto.TokenPayload{Username: c.Username, Email: c.Email, Role: c.Role}
	if c.IssuedAt != nil {
		p.IssuedAt = c.IssuedAt.Unix()
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Unix()
	}
	return p
}
