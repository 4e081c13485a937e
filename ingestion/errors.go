package ingestion

import "errors"

var (
	// ErrEntryRepositoryRequired is returned when an entry repository is not provided.
	ErrEntryRepositoryRequired = errors.New("entry repository required")

	// ErrInvalidConfig is returned when an import configuration is unusable.
	ErrInvalidConfig = errors.New("invalid import configuration")

	// ErrInvalidLine is returned when a corpus line cannot be parsed.
	ErrInvalidLine = errors.New("invalid corpus line")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
