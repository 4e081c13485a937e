// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package fuzzystore

import (
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/fuzzystore/ingestion"
	"github.com/poiesic/fuzzystore/search"
	"github.com/poiesic/fuzzystore/storage"
	"github.com/poiesic/fuzzystore/storage/badger"
)

// ErrRepositoryRequired is returned when NewDatabaseWithRepository receives no repository.
var ErrRepositoryRequired = errors.New("entry repository required")

// Database ties an entry repository to the searchers and importers that use it.
type Database struct {
	backend   *badger.Backend
	entryRepo storage.EntryRepository
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	inMemory bool
	logger   *slog.Logger
}

// WithInMemory keeps the database in memory. The path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger handed to searchers and importers.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func applyOptions(opts []DatabaseOption) *databaseOptions {
	options := &databaseOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// NewDatabase opens a BadgerDB database at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := applyOptions(opts)

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	entryRepo, err := badger.NewEntryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:   backend,
		entryRepo: entryRepo,
		logger:    options.logger,
	}, nil
}

// NewDatabaseWithRepository wraps an already open repository, such as one
// backed by Redis. Closing the database closes the repository.
func NewDatabaseWithRepository(entryRepo storage.EntryRepository, opts ...DatabaseOption) (*Database, error) {
	if entryRepo == nil {
		return nil, ErrRepositoryRequired
	}
	options := applyOptions(opts)
	return &Database{
		entryRepo: entryRepo,
		logger:    options.logger,
	}, nil
}

func (db *Database) Close() error {
	if err := db.entryRepo.Close(); err != nil {
		db.logger.Error("error closing entry repository", "err", err)
		return err
	}

	if db.backend == nil {
		return nil
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) EntryRepository() storage.EntryRepository {
	return db.entryRepo
}

// NewSearcher creates a searcher over the database entries. Call Release when done.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(db.logger)}, opts...)
	return search.NewSearcher(db.entryRepo, opts...)
}

// NewImporter creates an importer writing into the database.
func (db *Database) NewImporter(cfg *ingestion.Config, progress io.Writer, opts ...ingestion.Option) (*ingestion.Importer, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(db.logger)}, opts...)
	return ingestion.NewImporter(db.entryRepo, cfg, progress, opts...)
}
