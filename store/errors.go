package store

import "github.com/pkg/errors"

var (
	// ErrNotInitialized is returned when an operation is attempted before
	// Init succeeds or after Close.
	ErrNotInitialized = errors.New("cache store is not initialized")

	// ErrSerialization is returned when a value cannot be encoded for storage.
	ErrSerialization = errors.New("failed to serialize cache value")

	// ErrDeserialization is returned when a stored blob cannot be decoded.
	ErrDeserialization = errors.New("failed to deserialize cache value")
)
