package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// PgxSessionRepository implements domain.SessionRepository using pgxpool.
type PgxSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PgxSessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PgxSessionRepository {
	return &PgxSessionRepository{pool: pool}
}

const sessionColumns = `id, title, description, ideas, owner_id, peek_count, last_peeked_at, created_at, updated_at`

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(
		&s.ID, &s.Title, &s.Description, &s.Ideas, &s.OwnerID,
		&s.PeekCount, &s.LastPeekedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if s.Ideas == nil {
		s.Ideas = []string{}
	}
	return &s, nil
}

// GetOwned returns the session with the given id owned by ownerID.
// Returns (nil, nil) when no such session exists.
func (r *PgxSessionRepository) GetOwned(ctx context.Context, id, ownerID string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM idea_sessions WHERE id = $1 AND owner_id = $2`

	s, err := scanSession(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// IncrementPeek bumps the counter with a single UPDATE ... RETURNING, so
// concurrent peeks are serialized by the row lock and each one observes its
// own committed value. last_peeked_at never moves backwards.
func (r *PgxSessionRepository) IncrementPeek(ctx context.Context, id, ownerID string, at time.Time) (*domain.PeekCounter, error) {
	query := `
		UPDATE idea_sessions
		SET peek_count = peek_count + 1,
		    last_peeked_at = GREATEST(last_peeked_at, $3)
		WHERE id = $1 AND owner_id = $2
		RETURNING peek_count, last_peeked_at
	`

	var c domain.PeekCounter
	err := r.pool.QueryRow(ctx, query, id, ownerID, at).Scan(&c.PeekCount, &c.LastPeekedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ListOwned returns the owner's sessions ordered by updated_at descending.
func (r *PgxSessionRepository) ListOwned(ctx context.Context, ownerID, search string) ([]domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM idea_sessions WHERE owner_id = $1`
	args := []any{ownerID}
	if search != "" {
		query += ` AND (title ILIKE $2 ESCAPE '\' OR description ILIKE $2 ESCAPE '\'
			OR EXISTS (SELECT 1 FROM unnest(ideas) AS idea WHERE idea ILIKE $2 ESCAPE '\'))`
		args = append(args, "%"+escapeLike(search)+"%")
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Create inserts a new session.
func (r *PgxSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO idea_sessions (id, title, description, ideas, owner_id, peek_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query, s.ID, s.Title, s.Description, s.Ideas, s.OwnerID, s.CreatedAt, s.UpdatedAt)
	return err
}

// Update replaces title, description and ideas of an owned session.
// Returns (nil, nil) when no such session exists.
func (r *PgxSessionRepository) Update(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	query := `
		UPDATE idea_sessions
		SET title = $3, description = $4, ideas = $5, updated_at = $6
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + sessionColumns

	out, err := scanSession(r.pool.QueryRow(ctx, query, s.ID, s.OwnerID, s.Title, s.Description, s.Ideas, s.UpdatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

// Delete removes an owned session.
func (r *PgxSessionRepository) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM idea_sessions WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE metacharacters so search text matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
