package storage

import (
	"context"

	"github.com/poiesic/fuzzystore/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// Repository calls made with the context passed to fn join the transaction,
	// and a nested WithTransaction joins the outer one.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// EntryRepository provides operations for managing searchable entries.
type EntryRepository interface {
	Repository
	// AddEntries adds one or more entries to storage.
	// For entries with ID=0, generates new IDs from sequence.
	// Sets InsertedAt and UpdatedAt timestamps if not already set.
	// Returns ErrDuplicateKey if an entry with the same texts already exists.
	// Returns the entries with generated IDs and timestamps populated.
	AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error)

	// UpdateEntries updates existing entries.
	// Updates the UpdatedAt timestamp automatically and keeps the text index in sync.
	// Returns ErrNotFound if any entry doesn't exist.
	UpdateEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error)

	// DeleteEntries removes entries by their IDs.
	// Also removes associated indices.
	// Returns ErrNotFound if any entry doesn't exist.
	DeleteEntries(ctx context.Context, ids ...core.ID) error

	// GetEntry retrieves a single entry by ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id core.ID) (*core.Entry, error)

	// GetEntries retrieves multiple entries by their IDs.
	// Returns only the entries that exist (no error for missing entries).
	GetEntries(ctx context.Context, ids ...core.ID) ([]*core.Entry, error)

	// GetAllEntries retrieves every entry ordered by ID.
	GetAllEntries(ctx context.Context) ([]*core.Entry, error)

	// FindEntryByText finds the entry with exactly these texts.
	// Returns ErrNotFound if no matching entry exists.
	FindEntryByText(ctx context.Context, primary, secondary string) (*core.Entry, error)

	// CountEntries returns the number of stored entries.
	CountEntries(ctx context.Context) (int, error)
}
