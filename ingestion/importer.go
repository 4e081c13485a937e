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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/edsrzf/mmap-go"
	"github.com/poiesic/fuzzystore/core"
	"github.com/poiesic/fuzzystore/storage"
)

// Stats summarizes a finished import.
type Stats struct {
	// Lines is the number of lines read, comments and blank lines included.
	Lines int
	// Added is the number of entries written.
	Added int
	// Skipped is the number of duplicate entries left out.
	Skipped int
}

// Importer writes corpora into an entry repository.
type Importer struct {
	repository storage.EntryRepository
	config     *Config
	progress   io.Writer
	logger     *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger
		return nil
	}
}

// NewImporter creates a new importer. A nil config selects DefaultConfig and
// a nil progress writer discards progress output.
func NewImporter(repository storage.EntryRepository, config *Config, progress io.Writer, opts ...Option) (*Importer, error) {
	if repository == nil {
		return nil, ErrEntryRepositoryRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = io.Discard
	}

	copied := *config
	i := &Importer{
		repository: repository,
		config:     &copied,
		progress:   progress,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	return i, nil
}

// ImportFile memory-maps the file at path and imports its lines.
func (i *Importer) ImportFile(ctx context.Context, path string) (*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	// Empty files cannot be mapped.
	if info.Size() == 0 {
		return i.importData(ctx, nil)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", path, err)
	}
	defer func() {
		if err := data.Unmap(); err != nil {
			i.logger.Warn("failed to unmap corpus", "path", path, "error", err)
		}
	}()

	i.logger.Debug("mapped corpus", "path", path, "bytes", len(data))
	return i.importData(ctx, data)
}

// Import reads r to the end and imports its lines.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*Stats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return i.importData(ctx, data)
}

func (i *Importer) importData(ctx context.Context, data []byte) (*Stats, error) {
	parsed, err := parseCorpus(data)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Lines: parsed.lines}
	entries := parsed.entries
	if i.config.SkipDuplicates {
		var dropped int
		entries, dropped = dropRepeated(entries)
		stats.Skipped += dropped
	}

	if len(entries) == 0 {
		fmt.Fprintf(i.progress, "No entries found (%d lines)\n", stats.Lines)
		return stats, nil
	}

	fmt.Fprintf(i.progress, "Importing %d entries (batch size: %d)\n", len(entries), i.config.BatchSize)
	tracker := NewProgressTracker(i.progress, len(entries), i.config.ReportInterval)
	tracker.Start()

	for batch := range slices.Chunk(entries, i.config.BatchSize) {
		added, skipped, err := i.writeBatch(ctx, batch)
		if err != nil {
			return stats, fmt.Errorf("failed to import batch: %w", err)
		}
		stats.Added += added
		stats.Skipped += skipped
		tracker.Increment(len(batch))
	}

	tracker.Finish()
	i.logger.Info("import finished",
		"lines", stats.Lines,
		"added", stats.Added,
		"skipped", stats.Skipped,
		"elapsed", tracker.Elapsed())
	return stats, nil
}

// writeBatch stores one batch in a single unit of work. Every attempt works
// on fresh copies so a rolled back attempt leaves no IDs behind.
func (i *Importer) writeBatch(ctx context.Context, batch []*core.Entry) (added, skipped int, err error) {
	err = RetryWithBackoff(ctx, func() error {
		added, skipped = 0, 0
		err := i.repository.WithTransaction(ctx, func(ctx context.Context) error {
			fresh := make([]*core.Entry, 0, len(batch))
			for _, entry := range batch {
				if i.config.SkipDuplicates {
					_, err := i.repository.FindEntryByText(ctx, entry.Primary, entry.Secondary)
					if err == nil {
						skipped++
						continue
					}
					if !errors.Is(err, storage.ErrNotFound) {
						return err
					}
				}
				copied := *entry
				fresh = append(fresh, &copied)
			}
			if len(fresh) == 0 {
				return nil
			}

			if _, err := i.repository.AddEntries(ctx, fresh...); err != nil {
				return err
			}
			added = len(fresh)
			return nil
		})
		if isPermanent(err) {
			return Permanent(err)
		}
		return err
	}, i.config.MaxRetries, i.config.RetryDelay)
	return added, skipped, err
}

// isPermanent reports whether err comes from the batch itself rather than
// from a transient storage failure.
func isPermanent(err error) bool {
	return errors.Is(err, storage.ErrDuplicateKey) ||
		errors.Is(err, core.ErrInvalidEntry) ||
		errors.Is(err, storage.ErrStorageClosed)
}

// dropRepeated removes entries whose texts appeared earlier in the corpus.
func dropRepeated(entries []*core.Entry) ([]*core.Entry, int) {
	seen := make(map[string]struct{}, len(entries))
	kept := entries[:0:0]
	for _, entry := range entries {
		key := entry.Primary + fieldSeparator + entry.Secondary
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, entry)
	}
	return kept, len(entries) - len(kept)
}
