package database

import (
	"context"
)

// UserRepository provides access to enrolled users.
type UserRepository interface {
	// Create stores a new user and returns it with the assigned ID.
	// Returns ErrDuplicateEmail if the email is already registered.
	Create(ctx context.Context, user *User) (*User, error)
	// Get retrieves a user by ID, returns nil if not found
	Get(ctx context.Context, id int64) (*User, error)
	// GetByEmail retrieves a user by email, returns nil if not found
	GetByEmail(ctx context.Context, email string) (*User, error)
	// List returns all users ordered by creation time
	List(ctx context.Context) ([]User, error)
	// Update replaces the mutable fields of an existing user
	Update(ctx context.Context, user *User) error
	// Delete removes a user. Returns the deleted user, nil if not found.
	Delete(ctx context.Context, id int64) (*User, error)
	// Count returns the total number of enrolled users
	Count(ctx context.Context) (int, error)
	// FindSimilar finds users with similar embeddings using cosine distance,
	// closest first, with their distances.
	FindSimilar(ctx context.Context, embedding []float32, limit int) ([]User, []float64, error)
}

// HistoryRepository records and lists API audit entries.
type HistoryRepository interface {
	// Record stores an audit entry
	Record(ctx context.Context, entry *HistoryEntry) error
	// List returns the most recent entries, newest first
	List(ctx context.Context, limit int) ([]HistoryEntry, error)
	// Count returns the total number of entries
	Count(ctx context.Context) (int, error)
}

// Store bundles the repositories of a storage backend.
type Store interface {
	Users() UserRepository
	History() HistoryRepository
	Close() error
}
