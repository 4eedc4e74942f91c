package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/ports"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

type AuthService struct {
	repo      ports.CredentialRepository
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthService(repo ports.CredentialRepository, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthService{
		repo:      repo,
		jwtSecret: []byte(secret),
		ttl:       ttl,
		now:       time.Now,
	}
}

type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Public part of a newly registered account.
type RegisteredUser struct {
	Username string
	Email    string
}

func (s *AuthService) HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	return string(bytes), err
}

func (s *AuthService) CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Register stores a new credential. It fails with domain.ErrConflict when the
// email is already registered.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*RegisteredUser, error) {
	email = strings.TrimSpace(email)

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("register %q: %w", email, domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("register %q: %w", email, err)
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("register %q: hash password: %w", email, err)
	}

	u := &domain.User{
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.DefaultRole,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("register %q: %w", email, err)
	}

	return &RegisteredUser{Username: u.Username, Email: u.Email}, nil
}

// Login returns a signed token. It fails with domain.ErrNotFound for an
// unknown email and domain.ErrInvalidCredentials for a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	if !s.CheckPassword(u.PasswordHash, password) {
		return "", fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}

	token, err := s.GenerateToken(u.Username, u.Email, u.Role)
	if err != nil {
		return "", fmt.Errorf("login: sign token: %w", err)
	}
	return token, nil
}

func (s *AuthService) GenerateToken(username, email, role string) (string, error) {
	now := s.now()
	claims := Claims{
		Username: username,
		Email:    email,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// VerifyToken validates signature and expiry and returns the claims.
// Every failure wraps domain.ErrInvalidToken.
func (s *AuthService) VerifyToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.jwtSecret, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
