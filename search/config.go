package search

import (
	"fmt"
	"os"
	"runtime"

	"github.com/poiesic/fuzzystore/fuzzy"
	"gopkg.in/yaml.v3"
)

// Config holds the tunables of a Searcher.
type Config struct {
	// Threshold is the highest cost a result may have to be returned by Search.
	// Default: 300
	Threshold float64 `yaml:"threshold"`

	// Separators lists the runes that split texts into words.
	// Default: " -"
	Separators string `yaml:"separators"`

	// ShardSize is the number of entries scored by one worker task.
	// Default: 500
	ShardSize int `yaml:"shard_size"`

	// PoolSize is the number of workers scoring shards.
	// Default: runtime.NumCPU() / 2, with a minimum of 1
	PoolSize int `yaml:"pool_size"`

	// MaxResults caps the number of results returned by Search. 0 means no cap.
	MaxResults int `yaml:"max_results"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithThreshold sets the allowed mistake distance.
func WithThreshold(threshold float64) ConfigOption {
	return func(c *Config) {
		c.Threshold = threshold
	}
}

// WithSeparators sets the word separators.
func WithSeparators(separators string) ConfigOption {
	return func(c *Config) {
		c.Separators = separators
	}
}

// WithShardSize sets the number of entries per worker task.
func WithShardSize(size int) ConfigOption {
	return func(c *Config) {
		c.ShardSize = size
	}
}

// WithPoolSize sets the number of workers.
func WithPoolSize(size int) ConfigOption {
	return func(c *Config) {
		c.PoolSize = size
	}
}

// WithMaxResults caps the number of results.
func WithMaxResults(limit int) ConfigOption {
	return func(c *Config) {
		c.MaxResults = limit
	}
}

// DefaultConfig returns a Config with the default tunables.
func DefaultConfig() *Config {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	return &Config{
		Threshold:  fuzzy.DefaultThreshold,
		Separators: fuzzy.DefaultSeparators,
		ShardSize:  500,
		PoolSize:   poolSize,
		MaxResults: 0,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithThreshold(200),
//	    WithMaxResults(10),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// ParseConfig reads a YAML document over the default values and validates
// the result. Keys missing from the document keep their defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file. See ParseConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("%w: threshold must not be negative", ErrInvalidConfig)
	}
	if c.Separators == "" {
		return fmt.Errorf("%w: at least one separator is required", ErrInvalidConfig)
	}
	if c.ShardSize < 1 {
		return fmt.Errorf("%w: shard size must be at least 1", ErrInvalidConfig)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("%w: pool size must be at least 1", ErrInvalidConfig)
	}
	if c.MaxResults < 0 {
		return fmt.Errorf("%w: max results must not be negative", ErrInvalidConfig)
	}
	return nil
}
