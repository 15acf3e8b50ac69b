package postgres

import (
	"context"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RefreshTokenRepository implements domain.RefreshTokenRepository using PostgreSQL
type RefreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository
func NewRefreshTokenRepository(pool *pgxpool.Pool) *RefreshTokenRepository {
	return &RefreshTokenRepository{pool: pool}
}

// Create stores a refresh token hash
func (r *RefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		token.UserID, token.TokenHash, token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

// GetByHash retrieves a refresh token by its hash
func (r *RefreshTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	var revokedAt pgtype.Timestamptz
	var replacedBy pgtype.Text
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at, replaced_by_hash
		FROM refresh_tokens
		WHERE token_hash = $1`, hash,
	).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt, &revokedAt, &replacedBy)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, err
	}
	t.RevokedAt = pgTimestamptzToTimePtr(revokedAt)
	t.ReplacedByHash = pgTextToStringPtr(replacedBy)
	return &t, nil
}

// Revoke marks a token revoked, recording its successor when rotated
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id int32, replacedByHash *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), replaced_by_hash = $2
		WHERE id = $1 AND revoked_at IS NULL`,
		id, replacedByHash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidRefreshToken
	}
	return nil
}

// DeleteInactive removes the user's expired and revoked tokens
func (r *RefreshTokenRepository) DeleteInactive(ctx context.Context, userID int32, now time.Time) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE user_id = $1 AND (revoked_at IS NOT NULL OR expires_at <= $2)`,
		userID, now,
	)
	return err
}
