package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/restaurant-auth/internal/domain"
)

// RefreshTokenRepository manages persisted renewal-token records.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	// DeleteByToken removes a record. Deleting a record that is already
	// gone is a no-op, which keeps concurrent lazy-expiry deletes harmless.
	DeleteByToken(ctx context.Context, token string) error
	// DeleteExpired reclaims every record whose expiry is before cutoff
	// and returns the number removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type refreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository returns a Postgres-backed implementation.
func NewRefreshTokenRepository(pool *pgxpool.Pool) RefreshTokenRepository {
	return &refreshTokenRepository{pool: pool}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (token, user_id, expires_at)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		token.Token,
		token.UserID,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *refreshTokenRepository) GetByToken(ctx context.Context, tokenStr string) (*domain.RefreshToken, error) {
	const query = `
        SELECT id, token, user_id, expires_at, created_at
        FROM refresh_tokens WHERE token=$1`

	var token domain.RefreshToken
	if err := r.pool.QueryRow(ctx, query, tokenStr).Scan(
		&token.ID,
		&token.Token,
		&token.UserID,
		&token.ExpiresAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepository) DeleteByToken(ctx context.Context, tokenStr string) error {
	const query = `DELETE FROM refresh_tokens WHERE token=$1`

	_, err := r.pool.Exec(ctx, query, tokenStr)
	return err
}

func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at < $1`

	cmd, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
