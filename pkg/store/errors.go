package store

import "errors"

// Sentinel errors shared by all store backends.
var (
	// ErrNotFound is returned when a record does not exist in the collection.
	ErrNotFound = errors.New("store: record not found")

	// ErrAlreadyExists is returned when inserting a record whose key is taken.
	ErrAlreadyExists = errors.New("store: record already exists")

	// ErrVersionMismatch is returned when an optimistic update loses the race:
	// the stored version no longer matches the one the caller loaded.
	ErrVersionMismatch = errors.New("store: version mismatch")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("store: closed")

	// ErrEmptyKey is returned when a record carries no key.
	ErrEmptyKey = errors.New("store: empty record key")

	// ErrInvalidQuery is returned when a filter expression does not compile
	// or does not evaluate to a boolean.
	ErrInvalidQuery = errors.New("store: invalid query")

	// ErrMarshal is returned when record serialization fails.
	ErrMarshal = errors.New("store: failed to marshal record")

	// ErrUnmarshal is returned when record deserialization fails.
	ErrUnmarshal = errors.New("store: failed to unmarshal record")

	// ErrConnectionFailed is returned when a backend connection cannot be
	// established after retries.
	ErrConnectionFailed = errors.New("store: connection failed")
)
