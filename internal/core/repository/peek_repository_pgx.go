package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// PgxPeekRecordRepository implements domain.PeekRecordRepository using pgxpool.
type PgxPeekRecordRepository struct {
	pool *pgxpool.Pool
}

// NewPeekRecordRepository creates a new PgxPeekRecordRepository.
func NewPeekRecordRepository(pool *pgxpool.Pool) *PgxPeekRecordRepository {
	return &PgxPeekRecordRepository{pool: pool}
}

// Append inserts the record; a duplicate id is ignored.
func (r *PgxPeekRecordRepository) Append(ctx context.Context, rec *domain.PeekRecord) error {
	query := `
		INSERT INTO peek_records (id, session_id, session_title, user_id, user_email, selected_idea, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID, rec.SessionID, rec.SessionTitle, rec.UserID, rec.UserEmail, rec.SelectedIdea, rec.CreatedAt,
	)
	return err
}

// Count returns the total number of records.
func (r *PgxPeekRecordRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM peek_records`).Scan(&n)
	return n, err
}

// CountBetween returns the number of records with from <= created_at < to.
func (r *PgxPeekRecordRepository) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM peek_records WHERE created_at >= $1 AND created_at < $2`, from, to,
	).Scan(&n)
	return n, err
}

// Recent returns up to limit records, newest first.
func (r *PgxPeekRecordRepository) Recent(ctx context.Context, limit int) ([]domain.PeekRecord, error) {
	query := `
		SELECT id, session_id, session_title, user_id, user_email, selected_idea, created_at
		FROM peek_records
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PeekRecord
	for rows.Next() {
		var rec domain.PeekRecord
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.SessionTitle, &rec.UserID, &rec.UserEmail, &rec.SelectedIdea, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
