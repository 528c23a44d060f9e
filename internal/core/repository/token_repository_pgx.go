package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// PgxTokenRepository implements domain.TokenRepository using pgxpool.
type PgxTokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository creates a new PgxTokenRepository.
func NewTokenRepository(pool *pgxpool.Pool) *PgxTokenRepository {
	return &PgxTokenRepository{pool: pool}
}

// Create inserts a new token for the given user.
func (r *PgxTokenRepository) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	query := `INSERT INTO auth_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`
	_, err := r.pool.Exec(ctx, query, userID, token, expiresAt)
	return err
}

// GetUserByToken looks up the token and returns the associated
// user data together with the token expiry time.
// Returns (nil, nil) when the token does not match any row.
func (r *PgxTokenRepository) GetUserByToken(ctx context.Context, token string) (*domain.TokenRow, error) {
	query := `
		SELECT u.id, u.email, u.name, u.created_at, t.expires_at
		FROM auth_tokens t
		JOIN users u ON t.user_id = u.id
		WHERE t.token = $1
	`

	var row domain.TokenRow
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&row.UserID, &row.Email, &row.Name, &row.CreatedAt, &row.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &row, nil
}
