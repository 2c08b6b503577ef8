package model

import (
	"log/slog"

	"github.com/dmitrymomot/vellum/pkg/document"
)

// Option configures a Model.
type Option func(*Model)

// WithSchema attaches field metadata and casting to the model's documents.
func WithSchema(s document.Caster) Option {
	return func(m *Model) { m.schema = s }
}

// WithKey overrides the key field name. Default: "id".
func WithKey(key string) Option {
	return func(m *Model) {
		if key != "" {
			m.key = key
		}
	}
}

// WithKeyFunc overrides key generation for inserts without an explicit key.
// Default: uuid.NewString.
func WithKeyFunc(fn func() string) Option {
	return func(m *Model) {
		if fn != nil {
			m.keyFunc = fn
		}
	}
}

// WithLocking enables optimistic locking: Save sends the document's loaded
// version with updates, and a lost race surfaces store.ErrVersionMismatch.
func WithLocking(enabled bool) Option {
	return func(m *Model) { m.locking = enabled }
}

// WithLogger sets the logger for lifecycle events. Discarded by default.
func WithLogger(log *slog.Logger) Option {
	return func(m *Model) {
		if log != nil {
			m.log = log
		}
	}
}
