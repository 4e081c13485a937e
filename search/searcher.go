package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/fuzzystore/core"
	"github.com/poiesic/fuzzystore/fuzzy"
	"github.com/poiesic/fuzzystore/storage"
)

// Searcher provides fuzzy search over the entries of a repository.
type Searcher struct {
	repository storage.EntryRepository
	config     *Config
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg *Config) Option {
	return func(s *Searcher) error {
		if cfg == nil {
			return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		copied := *cfg
		s.config = &copied
		return nil
	}
}

// NewSearcher creates a new searcher. Call Release when done.
func NewSearcher(repository storage.EntryRepository, opts ...Option) (*Searcher, error) {
	if repository == nil {
		return nil, ErrEntryRepositoryRequired
	}

	s := &Searcher{
		repository: repository,
		config:     DefaultConfig(),
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(s.config.PoolSize)
	if err != nil {
		return nil, err
	}
	s.pool = pool

	return s, nil
}

// Release stops the worker pool.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Config returns a copy of the active configuration.
func (s *Searcher) Config() Config {
	return *s.config
}

// Search returns the entries whose cost against query does not exceed the
// configured threshold, cheapest first.
func (s *Searcher) Search(ctx context.Context, query string) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor is Search with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	ranked, err := s.rank(ctx, query, monitor)
	if err != nil {
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(ranked))
	for _, result := range ranked {
		if result.Cost > s.config.Threshold {
			// Sorted by cost, so the rest is over the threshold too
			break
		}
		if s.config.MaxResults > 0 && len(results) == s.config.MaxResults {
			break
		}
		monitor.Hit(result)
		results = append(results, result)
	}
	monitor.Finish(results)

	s.logger.Debug("search complete", "query", query, "candidates", len(ranked), "results", len(results))
	return results, nil
}

// Rank returns every entry with its cost against query, cheapest first.
// Entries with equal cost keep their repository order.
func (s *Searcher) Rank(ctx context.Context, query string) ([]*core.SearchResult, error) {
	return s.rank(ctx, query, &noopMonitor{})
}

// rank scores all entries shard by shard on the worker pool.
func (s *Searcher) rank(ctx context.Context, query string, monitor SearchMonitor) ([]*core.SearchResult, error) {
	entries, err := s.repository.GetAllEntries(ctx)
	if err != nil {
		s.logger.Error("error retrieving entries", "err", err)
		return nil, err
	}
	monitor.AfterEntryRetrieval(entries)

	if len(entries) == 0 {
		return []*core.SearchResult{}, nil
	}

	shards := shard(entries, s.config.ShardSize)
	scored := make([][]fuzzy.Result, len(shards))
	errs := make([]error, len(shards))
	separators := []rune(s.config.Separators)

	var wg sync.WaitGroup
	for i, part := range shards {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			break
		}

		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			scored[i], errs[i] = scoreShard(part, query, separators)
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
			break
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("search aborted", "query", query, "err", err)
		return nil, err
	}

	type ranked struct {
		global int
		result fuzzy.Result
	}
	merged := make([]ranked, 0, len(entries))
	for i, results := range scored {
		monitor.ShardScored(i, len(shards[i]))
		offset := i * s.config.ShardSize
		for _, r := range results {
			merged = append(merged, ranked{global: offset + r.Index, result: r})
		}
	}
	slices.SortFunc(merged, func(a, b ranked) int {
		if c := cmp.Compare(a.result.Cost, b.result.Cost); c != 0 {
			return c
		}
		return cmp.Compare(a.global, b.global)
	})

	results := make([]*core.SearchResult, len(merged))
	for i, m := range merged {
		results[i] = &core.SearchResult{
			Entry:   entries[m.global],
			Cost:    m.result.Cost,
			Variant: core.MatchVariant(m.result.Variant),
		}
	}
	return results, nil
}

// scoreShard runs one matcher over a slice of entries.
func scoreShard(entries []*core.Entry, query string, separators []rune) ([]fuzzy.Result, error) {
	matcher, err := fuzzy.NewMatcher(fuzzy.WithSeparators(separators...))
	if err != nil {
		return nil, err
	}

	candidates := make([]fuzzy.Candidate, len(entries))
	for i, entry := range entries {
		candidates[i] = fuzzy.Candidate{
			Primary:   entry.Primary,
			Secondary: entry.SearchSecondary(),
		}
	}
	if err := matcher.LoadCorpus(candidates); err != nil {
		return nil, err
	}
	return matcher.Search(query), nil
}

// shard splits entries into consecutive parts of at most size entries.
func shard(entries []*core.Entry, size int) [][]*core.Entry {
	return slices.Collect(slices.Chunk(entries, size))
}
