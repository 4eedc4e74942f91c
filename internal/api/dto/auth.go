package dto

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

type UserInfo struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type RegisterResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Info    UserInfo `json:"info"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

type TokenPayload struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

type VerifyResponse struct {
	Valid   bool          `json:"valid"`
	Payload *TokenPayload `json:"payload,omitempty"`
	Error   string        `json:"error,omitempty"`
}
