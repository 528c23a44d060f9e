package domain

import (
	"context"
	"time"
)

// Session is a named, ordered collection of ideas owned by one user.
type Session struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Ideas        []string   `json:"ideas"`
	OwnerID      string     `json:"ownerId"`
	PeekCount    int64      `json:"peekCount"`
	LastPeekedAt *time.Time `json:"lastPeekedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// PeekCounter is the committed state of a session's counter after an increment.
type PeekCounter struct {
	PeekCount    int64
	LastPeekedAt time.Time
}

// SessionRepository defines the data-access contract for idea sessions.
// Implementations live in internal/core/repository (Core layer).
// Every lookup and mutation is scoped by owner: a session owned by another
// user is indistinguishable from a missing one.
type SessionRepository interface {
	// GetOwned returns the session with the given id owned by ownerID.
	// Returns (nil, nil) when no such session exists.
	GetOwned(ctx context.Context, id, ownerID string) (*Session, error)

	// IncrementPeek atomically adds one to peek_count and sets last_peeked_at
	// in a single store-level operation and returns the committed values.
	// Returns (nil, nil) when the session no longer exists.
	IncrementPeek(ctx context.Context, id, ownerID string, at time.Time) (*PeekCounter, error)

	// ListOwned returns the owner's sessions ordered by updated_at descending.
	// A non-empty search matches title, description or any idea, case-insensitively.
	ListOwned(ctx context.Context, ownerID, search string) ([]Session, error)

	// Create inserts a new session.
	Create(ctx context.Context, s *Session) error

	// Update replaces title, description and ideas of an owned session and
	// returns the stored row. Returns (nil, nil) when no such session exists.
	Update(ctx context.Context, s *Session) (*Session, error)

	// Delete removes an owned session. Returns false when nothing was deleted.
	Delete(ctx context.Context, id, ownerID string) (bool, error)
}
