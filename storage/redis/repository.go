package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/poiesic/fuzzystore/core"
	"github.com/poiesic/fuzzystore/storage"
	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes every key the repository touches.
const DefaultNamespace = "fuzzystore"

// Repository implements storage.EntryRepository on Redis.
//
// Entries live in one hash keyed by decimal ID, the text index in a second
// hash keyed by the content hash of the entry texts, and IDs come from an
// INCR counter. Every write runs in a unit of work: both hashes are WATCHed,
// reads go through the watched connection, and the writes are applied in a
// single MULTI/EXEC when the unit ends.
type Repository struct {
	client redis.UniversalClient
	keys   keys
	logger *slog.Logger
	closed atomic.Bool
}

var _ storage.EntryRepository = (*Repository)(nil)

type keys struct {
	entries string
	text    string
	seq     string
}

// newKeys wraps the namespace in a hash tag so every key of a repository
// maps to one cluster slot.
func newKeys(namespace string) keys {
	tag := "{" + namespace + "}"
	return keys{
		entries: tag + ":entries",
		text:    tag + ":text",
		seq:     tag + ":seq",
	}
}

// Option configures a Repository.
type Option func(*Repository) error

// WithNamespace sets the key prefix. Repositories with different namespaces
// can share one database.
func WithNamespace(namespace string) Option {
	return func(r *Repository) error {
		if namespace == "" {
			return ErrEmptyNamespace
		}
		r.keys = newKeys(namespace)
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) error {
		if logger != nil {
			r.logger = logger
		}
		return nil
	}
}

// NewRepository creates a repository on top of client. The caller keeps
// ownership of the client; Close does not close it.
func NewRepository(client redis.UniversalClient, opts ...Option) (storage.EntryRepository, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	r := &Repository{
		client: client,
		keys:   newKeys(DefaultNamespace),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "redis", "namespace", r.keys.entries)
	return r, nil
}

// Close marks the repository closed.
func (r *Repository) Close() error {
	r.closed.Store(true)
	return nil
}

// WithTransaction executes fn as one unit of work.
func (r *Repository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.closed.Load() {
		return storage.ErrStorageClosed
	}
	if u := r.unitFrom(ctx); u != nil {
		// Nested unit of work joins the outer one
		return fn(ctx)
	}

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		u := &unit{
			owner:   r,
			rd:      tx,
			entries: make(map[core.ID]*core.Entry),
			texts:   make(map[string]core.ID),
		}
		if err := fn(context.WithValue(ctx, unitKey{}, u)); err != nil {
			r.logger.Debug("rolling back unit of work", "err", err)
			return err
		}
		if u.empty() {
			return nil
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			u.flush(ctx, pipe, r.keys)
			return nil
		})
		return err
	}, r.keys.entries, r.keys.text)

	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return err
}

// AddEntries adds one or more entries to storage.
func (r *Repository) AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	for _, entry := range entries {
		if err := core.ValidateEntry(entry); err != nil {
			return nil, err
		}
	}

	err := r.write(ctx, func(ctx context.Context, u *unit) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, entry := range entries {
			existing, err := u.entryByText(ctx, r.keys, entry.Primary, entry.Secondary)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: %s already stored as %d", storage.ErrDuplicateKey, entry.Tuple(), existing.Id)
			}

			if entry.Id == 0 {
				id, err := r.nextFreeID(ctx, u)
				if err != nil {
					return err
				}
				entry.Id = id
			} else {
				taken, err := u.entry(ctx, r.keys, entry.Id)
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

			u.put(entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateEntries updates existing entries.
func (r *Repository) UpdateEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	for _, entry := range entries {
		if err := core.ValidateEntry(entry); err != nil {
			return nil, err
		}
	}

	err := r.write(ctx, func(ctx context.Context, u *unit) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, entry := range entries {
			old, err := u.entry(ctx, r.keys, entry.Id)
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: id %d", storage.ErrNotFound, entry.Id)
			}

			textChanged := old.Primary != entry.Primary || old.Secondary != entry.Secondary
			if textChanged {
				other, err := u.entryByText(ctx, r.keys, entry.Primary, entry.Secondary)
				if err != nil {
					return err
				}
				if other != nil && other.Id != entry.Id {
					return fmt.Errorf("%w: %s already stored as %d", storage.ErrDuplicateKey, entry.Tuple(), other.Id)
				}
				u.dropText(old)
			}

			if entry.InsertedAt.IsZero() {
				entry.InsertedAt = old.InsertedAt
			}
			entry.UpdatedAt = now
			u.put(entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteEntries removes entries by their IDs.
func (r *Repository) DeleteEntries(ctx context.Context, ids ...core.ID) error {
	return r.write(ctx, func(ctx context.Context, u *unit) error {
		for _, id := range ids {
			entry, err := u.entry(ctx, r.keys, id)
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("%w: id %d", storage.ErrNotFound, id)
			}
			u.remove(entry)
		}
		return nil
	})
}

// GetEntry retrieves a single entry by ID.
func (r *Repository) GetEntry(ctx context.Context, id core.ID) (*core.Entry, error) {
	v, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := v.entry(ctx, r.keys, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: id %d", storage.ErrNotFound, id)
	}
	return entry, nil
}

// GetEntries retrieves multiple entries by their IDs.
func (r *Repository) GetEntries(ctx context.Context, ids ...core.ID) ([]*core.Entry, error) {
	v, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	var result []*core.Entry
	for _, id := range ids {
		entry, err := v.entry(ctx, r.keys, id)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			result = append(result, entry)
		}
	}
	return result, nil
}

// GetAllEntries retrieves every entry ordered by ID.
func (r *Repository) GetAllEntries(ctx context.Context) ([]*core.Entry, error) {
	v, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	return v.all(ctx, r.keys)
}

// FindEntryByText finds the entry with exactly these texts.
func (r *Repository) FindEntryByText(ctx context.Context, primary, secondary string) (*core.Entry, error) {
	v, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := v.entryByText(ctx, r.keys, primary, secondary)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, storage.ErrNotFound
	}
	return entry, nil
}

// CountEntries returns the number of stored entries.
func (r *Repository) CountEntries(ctx context.Context) (int, error) {
	v, err := r.read(ctx)
	if err != nil {
		return 0, err
	}
	if v.pending() {
		all, err := v.all(ctx, r.keys)
		return len(all), err
	}
	n, err := v.rd.HLen(ctx, r.keys.entries).Result()
	return int(n), err
}

// Helper methods

func (r *Repository) unitFrom(ctx context.Context) *unit {
	u, ok := ctx.Value(unitKey{}).(*unit)
	if !ok || u.owner != r {
		return nil
	}
	return u
}

// read returns a view that sees the pending writes of the unit of work in
// ctx, if any.
func (r *Repository) read(ctx context.Context) (*unit, error) {
	if r.closed.Load() {
		return nil, storage.ErrStorageClosed
	}
	if u := r.unitFrom(ctx); u != nil {
		return u, nil
	}
	return &unit{owner: r, rd: r.client}, nil
}

// write runs fn in the unit of work of ctx or in a new one.
func (r *Repository) write(ctx context.Context, fn func(ctx context.Context, u *unit) error) error {
	if u := r.unitFrom(ctx); u != nil {
		return fn(ctx, u)
	}
	return r.WithTransaction(ctx, func(ctx context.Context) error {
		return fn(ctx, r.unitFrom(ctx))
	})
}

// nextFreeID skips counter values already taken by explicitly numbered entries.
func (r *Repository) nextFreeID(ctx context.Context, u *unit) (core.ID, error) {
	for {
		n, err := r.client.Incr(ctx, r.keys.seq).Result()
		if err != nil {
			return 0, err
		}
		id := core.ID(n)
		taken, err := u.entry(ctx, r.keys, id)
		if err != nil {
			return 0, err
		}
		if taken == nil {
			return id, nil
		}
	}
}

func idField(id core.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func textField(primary, secondary string) string {
	e := core.Entry{Primary: primary, Secondary: secondary}
	return strconv.FormatUint(uint64(core.IDFromContent(e.Tuple())), 16)
}

func sortByID(entries []*core.Entry) {
	slices.SortFunc(entries, func(a, b *core.Entry) int {
		switch {
		case a.Id < b.Id:
			return -1
		case a.Id > b.Id:
			return 1
		}
		return 0
	})
}
