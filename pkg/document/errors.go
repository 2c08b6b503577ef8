package document

import "errors"

// Sentinel errors for document operations.
var (
	// ErrRelationNotLoaded is returned when reading an embedded relation that
	// has not been materialized through SetRelation yet.
	ErrRelationNotLoaded = errors.New("document: relation not loaded")

	// ErrNotNumeric is returned when incrementing a field whose current value
	// is not numeric.
	ErrNotNumeric = errors.New("document: field is not numeric")

	// ErrNotFound is returned by typed accessors when a field resolves to nothing.
	ErrNotFound = errors.New("document: field not found")
)
