package fuzzy

import "errors"

var (
	// ErrNilCorpus is returned when LoadCorpus receives a nil candidate list.
	ErrNilCorpus = errors.New("candidate list is nil")

	// ErrNoSeparators is returned when a matcher is configured without separators.
	ErrNoSeparators = errors.New("at least one separator is required")
)
