package store

import (
	"context"
	"time"
)

// Record is a persisted document snapshot: a key, a plain field map, and an
// optimistic-lock version maintained by the backend.
type Record struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Data      map[string]any
	Key       string
	Version   int64
}

// Clone returns a copy with its own field map, so callers can mutate the
// result without reaching into backend state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Data = cloneMap(r.Data)
	return &out
}

// Float reads a numeric field as float64 regardless of the decoded
// representation, which varies by backend codec.
func (r *Record) Float(field string) (float64, error) {
	return asFloat(r.Data[field])
}

// Store is the persistence surface the document layer drives. Backends are
// safe for concurrent use. Update enforces optimistic locking when the
// record carries a non-zero version: the stored version must match or the
// call fails with ErrVersionMismatch.
type Store interface {
	// Get returns a record by key. ErrNotFound when absent.
	Get(ctx context.Context, collection, key string) (*Record, error)

	// Insert stores a new record. ErrAlreadyExists when the key is taken.
	// Returns the stored record with version and timestamps assigned.
	Insert(ctx context.Context, collection string, rec *Record) (*Record, error)

	// Update replaces an existing record. ErrNotFound when absent,
	// ErrVersionMismatch when rec.Version > 0 and the stored version differs.
	// Returns the stored record with the bumped version.
	Update(ctx context.Context, collection string, rec *Record) (*Record, error)

	// Delete removes a record by key. ErrNotFound when absent.
	Delete(ctx context.Context, collection, key string) error

	// List returns all records of a collection in backend order.
	List(ctx context.Context, collection string) ([]*Record, error)

	// Close releases backend resources.
	Close() error
}

// Incrementer is an optional backend capability for atomic numeric field
// bumps, used to flush accumulated document increments without a
// read-modify-write cycle.
type Incrementer interface {
	// Increment adds a delta to a numeric field and returns the new value.
	Increment(ctx context.Context, collection, key, field string, delta float64) (float64, error)
}

// Pinger is an optional backend capability for connectivity probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch c := v.(type) {
		case map[string]any:
			out[k] = cloneMap(c)
		case []any:
			cp := make([]any, len(c))
			for i, e := range c {
				if em, ok := e.(map[string]any); ok {
					cp[i] = cloneMap(em)
					continue
				}
				cp[i] = e
			}
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}
