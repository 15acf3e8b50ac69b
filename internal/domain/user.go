package domain

import (
	"context"
	"time"
)

// User is an account holder. Its ID is the owner id of every record it creates.
type User struct {
	ID           int32      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	GetByID(ctx context.Context, id int32) (*User, error)
	// GetByEmail matches case-insensitively
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Create returns ErrEmailAlreadyRegistered when the email is taken
	Create(ctx context.Context, user *User) (*User, error)
	UpdateLastLogin(ctx context.Context, id int32, at time.Time) error
}
