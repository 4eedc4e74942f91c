package domain

import "time"

const DefaultRole = "user"

// Represents a stored credential. PasswordHash is a bcrypt hash and never
// leaves the service.
type User struct {
	ID           uint
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}
