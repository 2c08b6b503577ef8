package schema

import "errors"

// Sentinel errors for schema definition loading.
var (
	// ErrInvalidDefinition is returned when a schema definition file cannot
	// be parsed or fails validation.
	ErrInvalidDefinition = errors.New("schema: invalid definition")

	// ErrUnknownType is returned when a definition declares a field type the
	// package does not know.
	ErrUnknownType = errors.New("schema: unknown field type")
)
