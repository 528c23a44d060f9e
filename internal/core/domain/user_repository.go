package domain

import (
	"context"
	"time"
)

// User is the public view of a registered user.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRow represents a user record returned from the database.
// It includes the password hash so the Logic layer can verify credentials.
type UserRow struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRepository defines the data-access contract for user operations.
// Implementations live in internal/core/repository (Core layer).
// The logic layer depends on this interface, never on a driver directly.
type UserRepository interface {
	// GetByEmail returns the user matching the given (lower-cased) email.
	// Returns (nil, nil) when no user is found.
	GetByEmail(ctx context.Context, email string) (*UserRow, error)

	// GetByID returns the user with the given id.
	// Returns (nil, nil) when no user is found.
	GetByID(ctx context.Context, id string) (*UserRow, error)

	// ExistsByEmail returns true when a user with the given email already exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create inserts a new user.
	Create(ctx context.Context, row *UserRow) error

	// Count returns the number of registered users.
	Count(ctx context.Context) (int64, error)

	// CountCreatedSince returns the number of users created at or after since.
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)

	// Recent returns up to limit users, newest first.
	Recent(ctx context.Context, limit int) ([]UserRow, error)
}
