package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

// collection keeps records in insertion order: a hash map for O(1) lookups
// and a key slice for ordered listing.
type collection struct {
	recs map[string]*Record
	keys []string
}

func newCollection() *collection {
	return &collection{recs: make(map[string]*Record)}
}

// Memory is an in-process store for tests, development, and single-process
// applications. Safe for concurrent use.
type Memory struct {
	collections map[string]*collection
	opts        *memoryOptions
	mu          sync.Mutex
	closed      bool
}

// NewMemory creates an in-memory store.
//
// Example:
//
//	s := store.NewMemory()
//	defer s.Close()
func NewMemory(opts ...MemoryOption) *Memory {
	o := defaultMemoryOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Memory{
		collections: make(map[string]*collection),
		opts:        o,
	}
}

// Get retrieves a record by key.
func (m *Memory) Get(_ context.Context, collection, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	c, ok := m.collections[collection]
	if !ok {
		return nil, ErrNotFound
	}
	rec, ok := c.recs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// Insert stores a new record, assigning version 1 and timestamps.
func (m *Memory) Insert(_ context.Context, name string, rec *Record) (*Record, error) {
	if rec.Key == "" {
		return nil, ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	c, ok := m.collections[name]
	if !ok {
		c = newCollection()
		m.collections[name] = c
	}
	if _, ok := c.recs[rec.Key]; ok {
		return nil, ErrAlreadyExists
	}

	now := m.opts.clock()
	stored := rec.Clone()
	stored.Version = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now

	c.recs[rec.Key] = stored
	c.keys = append(c.keys, rec.Key)

	return stored.Clone(), nil
}

// Update replaces an existing record, enforcing optimistic locking when the
// incoming record carries a non-zero version.
func (m *Memory) Update(_ context.Context, name string, rec *Record) (*Record, error) {
	if rec.Key == "" {
		return nil, ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	c, ok := m.collections[name]
	if !ok {
		return nil, ErrNotFound
	}
	cur, ok := c.recs[rec.Key]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Version > 0 && rec.Version != cur.Version {
		return nil, ErrVersionMismatch
	}

	stored := rec.Clone()
	stored.Version = cur.Version + 1
	stored.CreatedAt = cur.CreatedAt
	stored.UpdatedAt = m.opts.clock()

	c.recs[rec.Key] = stored
	return stored.Clone(), nil
}

// Delete removes a record by key.
func (m *Memory) Delete(_ context.Context, name, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	c, ok := m.collections[name]
	if !ok {
		return ErrNotFound
	}
	if _, ok := c.recs[key]; !ok {
		return ErrNotFound
	}
	delete(c.recs, key)
	if i := slices.Index(c.keys, key); i >= 0 {
		c.keys = slices.Delete(c.keys, i, i+1)
	}
	return nil
}

// List returns all records of a collection in insertion order.
func (m *Memory) List(_ context.Context, name string) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	c, ok := m.collections[name]
	if !ok {
		return nil, nil
	}
	out := make([]*Record, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.recs[k].Clone())
	}
	return out, nil
}

// Increment atomically adds a delta to a numeric field, creating the record
// or the field from a zero baseline when absent.
func (m *Memory) Increment(_ context.Context, name, key, field string, delta float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	c, ok := m.collections[name]
	if !ok {
		return 0, ErrNotFound
	}
	rec, ok := c.recs[key]
	if !ok {
		return 0, ErrNotFound
	}
	if rec.Data == nil {
		rec.Data = make(map[string]any)
	}

	cur, err := asFloat(rec.Data[field])
	if err != nil {
		return 0, err
	}
	next := cur + delta
	rec.Data[field] = next
	rec.Version++
	rec.UpdatedAt = m.opts.clock()
	return next, nil
}

// Close marks the store as closed. Idempotent.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func asFloat(v any) (float64, error) {
	switch c := v.(type) {
	case nil:
		return 0, nil
	case int:
		return float64(c), nil
	case int32:
		return float64(c), nil
	case int64:
		return float64(c), nil
	case float32:
		return float64(c), nil
	case float64:
		return c, nil
	default:
		return 0, ErrMarshal
	}
}

var (
	_ Store       = (*Memory)(nil)
	_ Incrementer = (*Memory)(nil)
)

// MemoryOption configures the in-memory store.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	clock func() time.Time
}

func defaultMemoryOptions() *memoryOptions {
	return &memoryOptions{clock: time.Now}
}

// WithClock overrides the time source, allowing tests to pin timestamps.
func WithClock(clock func() time.Time) MemoryOption {
	return func(o *memoryOptions) { o.clock = clock }
}
