package domain

import (
	"context"
	"time"
)

// PeekRecord is one immutable audit log entry. SessionTitle is a snapshot
// taken at peek time and is not kept in sync with the session.
type PeekRecord struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"sessionId"`
	SessionTitle string    `json:"sessionTitle"`
	UserID       string    `json:"userId"`
	UserEmail    string    `json:"userEmail"`
	SelectedIdea string    `json:"selectedIdea"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PeekRecordRepository is the append-only audit log store.
type PeekRecordRepository interface {
	// Append inserts the record. Inserting an id that already exists is a
	// no-op, so retried appends never duplicate entries.
	Append(ctx context.Context, rec *PeekRecord) error

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// CountBetween returns the number of records with from <= created_at < to.
	CountBetween(ctx context.Context, from, to time.Time) (int64, error)

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]PeekRecord, error)
}
