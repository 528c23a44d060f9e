package domain

import (
	"context"
	"time"
)

// TokenRow represents an auth token joined with its owner user,
// returned by token lookup queries.
type TokenRow struct {
	UserID    string
	Email     string
	Name      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// TokenRepository defines the data-access contract for bearer tokens.
type TokenRepository interface {
	// Create inserts a new token for the given user.
	Create(ctx context.Context, userID, token string, expiresAt time.Time) error

	// GetUserByToken looks up the token and returns the associated
	// user data together with the token expiry time.
	// Returns (nil, nil) when the token does not match any row.
	GetUserByToken(ctx context.Context, token string) (*TokenRow, error)
}
