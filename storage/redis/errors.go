package redis

import "errors"

var (
	// ErrClientRequired is returned when NewRepository receives a nil client.
	ErrClientRequired = errors.New("redis client is required")

	// ErrEmptyNamespace is returned when the key namespace is empty.
	ErrEmptyNamespace = errors.New("namespace cannot be empty")
)
