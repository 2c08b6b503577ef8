package document

import "errors"

// Value is a typed helper to resolve document fields with type safety.
// The path may be dotted. Returns an error if the field resolves to nothing
// or the type assertion fails.
func Value[T any](d *Document, path string) (T, error) {
	var zero T
	if d == nil {
		return zero, ErrNotFound
	}

	v, err := d.Get(path)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, ErrNotFound
	}

	typed, ok := v.(T)
	if !ok {
		return zero, errors.New("document: type mismatch for field: " + path)
	}

	return typed, nil
}

// ValueOr is a typed helper that returns a default value if the field
// resolves to nothing or the type assertion fails.
func ValueOr[T any](d *Document, path string, defaultVal T) T {
	val, err := Value[T](d, path)
	if err != nil {
		return defaultVal
	}
	return val
}
