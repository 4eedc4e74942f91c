package ports

import (
	"context"
	"route-planning-service/internal/domain"
)

// Port: a boundary for reading and creating stored credentials.
type CredentialRepository interface {
	// Return domain.ErrNotFound when no user has this email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Return domain.ErrConflict when the email is already registered.
	Create(ctx context.Context, u *domain.User) error
}
