package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/fuzzystore/core"
	"github.com/poiesic/fuzzystore/storage"
)

// EntryRepository implements storage.EntryRepository for BadgerDB.
type EntryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
	// owned is set when Close must also close the backend.
	owned bool
}

var _ storage.EntryRepository = (*EntryRepository)(nil)

// NewEntryRepository creates a new EntryRepository on top of an open backend.
// The caller keeps ownership of the backend.
func NewEntryRepository(backend *Backend) (*EntryRepository, error) {
	idSeq, err := backend.GetSequence(entryIDSeq)
	if err != nil {
		return nil, err
	}

	return &EntryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// NewRepository opens a BadgerDB database at path and returns a repository
// that owns it. Closing the repository closes the database.
func NewRepository(path string) (storage.EntryRepository, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	repo, err := NewEntryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	repo.owned = true
	return repo, nil
}

// Close releases the ID sequence and, for repositories created by
// NewRepository, the database.
func (r *EntryRepository) Close() error {
	err := r.idSeq.Release()
	if r.owned {
		err = errors.Join(err, r.backend.Close())
	}
	return err
}

// WithTransaction delegates to the backend.
func (r *EntryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddEntries adds one or more entries to storage.
func (r *EntryRepository) AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	for _, entry := range entries {
		if err := core.ValidateEntry(entry); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, entry := range entries {
			// Reject texts that are already stored
			existing, err := readEntryByText(tx, entry.Primary, entry.Secondary)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: %s already stored as %d", storage.ErrDuplicateKey, entry.Tuple(), existing.Id)
			}

			if entry.Id == 0 {
				nextID, err := r.nextFreeID(tx)
				if err != nil {
					return err
				}
				entry.Id = nextID
			} else {
				taken, err := readEntry(tx, makeEntryKey(entry.Id))
				if err != nil {
					return err
				}
				if taken != nil {
					return fmt.Errorf("%w: id %d", storage.ErrDuplicateKey, entry.Id)
				}
			}

			if entry.InsertedAt.IsZero() {
				entry.InsertedAt = now
			}
			if entry.UpdatedAt.IsZero() {
				entry.UpdatedAt = entry.InsertedAt
			}

			// Store primary record
			if err := tx.Set(makeEntryKey(entry.Id), storage.MarshalEntry(entry)); err != nil {
				return err
			}

			// Store text index
			textKey := makeEntryTextKey(entry.Primary, entry.Secondary)
			if err := tx.Set(textKey, storage.MarshalID(entry.Id)); err != nil {
				return err
			}
		}
		return nil
	}, true)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// UpdateEntries updates existing entries.
func (r *EntryRepository) UpdateEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	for _, entry := range entries {
		if err := core.ValidateEntry(entry); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, entry := range entries {
			key := makeEntryKey(entry.Id)

			// Read old entry to detect text changes
			old, err := readEntry(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: id %d", storage.ErrNotFound, entry.Id)
			}

			textChanged := old.Primary != entry.Primary || old.Secondary != entry.Secondary
			if textChanged {
				other, err := readEntryByText(tx, entry.Primary, entry.Secondary)
				if err != nil {
					return err
				}
				if other != nil && other.Id != entry.Id {
					return fmt.Errorf("%w: %s already stored as %d", storage.ErrDuplicateKey, entry.Tuple(), other.Id)
				}
			}

			if entry.InsertedAt.IsZero() {
				entry.InsertedAt = old.InsertedAt
			}
			entry.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalEntry(entry)); err != nil {
				return err
			}

			// Move the text index if the texts changed
			if textChanged {
				if err := deleteTextIndex(tx, old); err != nil {
					return err
				}
				textKey := makeEntryTextKey(entry.Primary, entry.Secondary)
				if err := tx.Set(textKey, storage.MarshalID(entry.Id)); err != nil {
					return err
				}
			}
		}
		return nil
	}, true)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// DeleteEntries removes entries by their IDs.
func (r *EntryRepository) DeleteEntries(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeEntryKey(id)

			// Read entry to find its text index
			entry, err := readEntry(tx, key)
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("%w: id %d", storage.ErrNotFound, id)
			}

			if err := deleteTextIndex(tx, entry); err != nil {
				return err
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// GetEntry retrieves a single entry by ID.
func (r *EntryRepository) GetEntry(ctx context.Context, id core.ID) (*core.Entry, error) {
	var result *core.Entry
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = readEntry(tx, makeEntryKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: id %d", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// GetEntries retrieves multiple entries by their IDs.
func (r *EntryRepository) GetEntries(ctx context.Context, ids ...core.ID) ([]*core.Entry, error) {
	var result []*core.Entry
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			entry, err := readEntry(tx, makeEntryKey(id))
			if err != nil {
				return err
			}
			if entry != nil {
				result = append(result, entry)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetAllEntries retrieves every entry ordered by ID.
func (r *EntryRepository) GetAllEntries(ctx context.Context) ([]*core.Entry, error) {
	var results []*core.Entry
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var entry *core.Entry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, entry)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// FindEntryByText finds the entry with exactly these texts.
func (r *EntryRepository) FindEntryByText(ctx context.Context, primary, secondary string) (*core.Entry, error) {
	var result *core.Entry
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = readEntryByText(tx, primary, secondary)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// CountEntries returns the number of stored entries.
func (r *EntryRepository) CountEntries(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryRecordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if _, ok := parseEntryKey(iter.Item().Key()); ok {
				count++
			}
		}
		return nil
	}, false)
	return count, err
}

// Helper methods

// nextID returns the next non-zero ID from the sequence.
func (r *EntryRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// nextFreeID skips sequence values already taken by explicitly numbered entries.
func (r *EntryRepository) nextFreeID(tx *badger.Txn) (core.ID, error) {
	for {
		id, err := r.nextID()
		if err != nil {
			return 0, err
		}
		taken, err := readEntry(tx, makeEntryKey(id))
		if err != nil {
			return 0, err
		}
		if taken == nil {
			return id, nil
		}
	}
}

// readEntry reads an entry from the transaction. A missing key yields nil.
func readEntry(tx *badger.Txn, key []byte) (*core.Entry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.Entry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalEntry(val)
		return err
	})
	return entry, err
}

// readEntryByText follows the text index. Hash collisions and stale index
// keys yield nil.
func readEntryByText(tx *badger.Txn, primary, secondary string) (*core.Entry, error) {
	item, err := tx.Get(makeEntryTextKey(primary, secondary))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var id core.ID
	err = item.Value(func(val []byte) error {
		id, err = storage.UnmarshalID(val)
		return err
	})
	if err != nil {
		return nil, err
	}

	entry, err := readEntry(tx, makeEntryKey(id))
	if err != nil || entry == nil {
		return nil, err
	}
	if entry.Primary != primary || entry.Secondary != secondary {
		return nil, nil
	}
	return entry, nil
}

// deleteTextIndex removes the text index key of entry if it still points to it.
func deleteTextIndex(tx *badger.Txn, entry *core.Entry) error {
	indexed, err := readEntryByText(tx, entry.Primary, entry.Secondary)
	if err != nil {
		return err
	}
	if indexed == nil || indexed.Id != entry.Id {
		return nil
	}
	return tx.Delete(makeEntryTextKey(entry.Primary, entry.Secondary))
}
