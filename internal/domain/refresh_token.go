package domain

import (
	"context"
	"time"
)

// RefreshToken is a long-lived credential exchanged for new access tokens.
// Only the SHA-256 hash of the token is stored.
type RefreshToken struct {
	ID             int32      `json:"id"`
	UserID         int32      `json:"userId"`
	TokenHash      string     `json:"-"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	RevokedAt      *time.Time `json:"revokedAt,omitempty"`
	ReplacedByHash *string    `json:"-"`
}

// IsActive reports whether the token is neither revoked nor expired at now
func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// RefreshTokenRepository defines the interface for refresh token persistence
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*RefreshToken, error)
	// Revoke marks the token revoked, recording its successor when rotated
	Revoke(ctx context.Context, id int32, replacedByHash *string) error
	// DeleteInactive removes the user's expired and revoked tokens
	DeleteInactive(ctx context.Context, userID int32, now time.Time) error
}
