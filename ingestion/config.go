package ingestion

import (
	"fmt"
	"time"
)

// Config holds configuration for an import.
type Config struct {
	// BatchSize is the number of entries written in one unit of work
	BatchSize int

	// ReportInterval is how often to report progress (number of entries)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for a failed batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// SkipDuplicates skips entries whose texts are already stored or appear
	// earlier in the same corpus. When false a duplicate fails the import.
	SkipDuplicates bool
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBatchSize sets the number of entries per unit of work.
func WithBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = size
	}
}

// WithReportInterval sets how often progress is printed.
func WithReportInterval(interval int) ConfigOption {
	return func(c *Config) {
		c.ReportInterval = interval
	}
}

// WithRetries sets the attempt count and base backoff delay of a batch.
func WithRetries(maxRetries int, delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithSkipDuplicates toggles skipping of duplicate entries.
func WithSkipDuplicates(skip bool) ConfigOption {
	return func(c *Config) {
		c.SkipDuplicates = skip
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		SkipDuplicates: true,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be at least 1", ErrInvalidConfig)
	}
	if c.ReportInterval < 1 {
		return fmt.Errorf("%w: report interval must be at least 1", ErrInvalidConfig)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: max retries must be at least 1", ErrInvalidConfig)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay must not be negative", ErrInvalidConfig)
	}
	return nil
}
