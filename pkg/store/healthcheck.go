package store

import "context"

// CheckFunc is the standard health check function signature, compatible
// with health aggregators that collect named checks.
type CheckFunc func(ctx context.Context) error

// Healthcheck returns a check function for a store. Backends that implement
// Pinger probe connectivity; in-process backends report healthy until
// closed.
func Healthcheck(s Store) CheckFunc {
	if p, ok := s.(Pinger); ok {
		return p.Ping
	}
	return func(ctx context.Context) error {
		// Any read exercises the closed flag on local backends.
		_, err := s.List(ctx, "healthcheck")
		return err
	}
}
