package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/fuzzystore/storage"
)

const (
	defaultSequenceBandwidth = 100
)

// txKey carries the open transaction of a unit of work in a context.
type txKey struct{}

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default().With("component", "badger")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes fn within a BadgerDB transaction.
//
// If ctx belongs to a unit of work opened by WithTransaction, fn runs in that
// transaction and nothing is committed here. Otherwise a new transaction is
// created; when isWrite is true it is committed after fn succeeds. The
// transaction is always discarded if fn returns an error.
func (b *Backend) WithTx(ctx context.Context, fn func(tx *badger.Txn) error, isWrite bool) error {
	if tx, ok := ctx.Value(txKey{}).(*badger.Txn); ok {
		return fn(tx)
	}
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}

	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	if err := fn(tx); err != nil {
		return err
	}
	if !isWrite {
		return nil
	}
	return commit(tx)
}

// WithTransaction executes fn as one unit of work.
// Implements the storage.Repository transaction contract.
func (b *Backend) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*badger.Txn); ok {
		// Nested unit of work joins the outer transaction
		return fn(ctx)
	}
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}

	tx := b.db.NewTransaction(true)
	defer tx.Discard()
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		b.logger.Debug("rolling back unit of work", "err", err)
		return err
	}
	return commit(tx)
}

// GetSequence returns a BadgerDB sequence for generating sequential IDs.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), defaultSequenceBandwidth)
}

func commit(tx *badger.Txn) error {
	if err := tx.Commit(); err != nil {
		if errors.Is(err, badger.ErrDBClosed) {
			return storage.ErrStorageClosed
		}
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return nil
}
