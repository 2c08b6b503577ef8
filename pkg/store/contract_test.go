package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/vellum/pkg/store"
)

// runStoreContract exercises the behavior every backend must share. Backend
// test files call it with their own constructor.
func runStoreContract(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing record", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Get(ctx, "contacts", "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("insert and get", func(t *testing.T) {
		s := newStore(t)

		in := &store.Record{Key: "larry", Data: map[string]any{"name": "Larry", "visits": float64(3)}}
		stored, err := s.Insert(ctx, "contacts", in)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.Version)
		assert.False(t, stored.CreatedAt.IsZero())

		got, err := s.Get(ctx, "contacts", "larry")
		require.NoError(t, err)
		assert.Equal(t, "larry", got.Key)
		assert.Equal(t, "Larry", got.Data["name"])
		assert.Equal(t, int64(1), got.Version)
	})

	t.Run("insert rejects duplicate key", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Insert(ctx, "contacts", &store.Record{Key: "larry", Data: map[string]any{}})
		require.NoError(t, err)

		_, err = s.Insert(ctx, "contacts", &store.Record{Key: "larry", Data: map[string]any{}})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("insert rejects empty key", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Insert(ctx, "contacts", &store.Record{Data: map[string]any{}})
		require.ErrorIs(t, err, store.ErrEmptyKey)
	})

	t.Run("update bumps version", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Insert(ctx, "contacts", &store.Record{Key: "larry", Data: map[string]any{"name": "Larry"}})
		require.NoError(t, err)

		updated, err := s.Update(ctx, "contacts", &store.Record{Key: "larry", Data: map[string]any{"name": "Moe"}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.Version)

		got, err := s.Get(ctx, "contacts", "larry")
		require.NoError(t, err)
		assert.Equal(t, "Moe", got.Data["name"])
	})

	t.Run("update missing record", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Update(ctx, "contacts", &store.Record{Key: "nope", Data: map[string]any{}})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("stale version loses", func(t *testing.T) {
		s := newStore(t)

		first, err := s.Insert(ctx, "contacts", &store.Record{Key: "larry", Data: map[string]any{}})
		require.NoError(t, err)

		_, err = s.Update(ctx, "contacts", &store.Record{Key: "larry", Version: first.Version, Data: map[string]any{}})
		require.NoError(t, err)

		// Same original version again: the first writer already moved it.
		_, err = s.Update(ctx, "contacts", &store.Record{Key: "larry", Version: first.Version, Data: map[string]any{}})
		require.ErrorIs(t, err, store.ErrVersionMismatch)
	})

	t.Run("zero version replaces unconditionally", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Insert(ctx, "contacts", &store.Record{Key: "larry", Data: map[string]any{}})
		require.NoError(t, err)
		_, err = s.Update(ctx, "contacts", &store.Record{Key: "larry", Data: map[string]any{}})
		require.NoError(t, err)

		updated, err := s.Update(ctx, "contacts", &store.Record{Key: "larry", Data: map[string]any{"n": float64(1)}})
		require.NoError(t, err)
		assert.Equal(t, int64(3), updated.Version)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Insert(ctx, "contacts", &store.Record{Key: "larry", Data: map[string]any{}})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "contacts", "larry"))

		_, err = s.Get(ctx, "contacts", "larry")
		require.ErrorIs(t, err, store.ErrNotFound)

		require.ErrorIs(t, s.Delete(ctx, "contacts", "larry"), store.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		s := newStore(t)

		for _, key := range []string{"a", "b", "c"} {
			_, err := s.Insert(ctx, "contacts", &store.Record{Key: key, Data: map[string]any{"k": key}})
			require.NoError(t, err)
		}

		recs, err := s.List(ctx, "contacts")
		require.NoError(t, err)
		require.Len(t, recs, 3)

		keys := make([]string, len(recs))
		for i, rec := range recs {
			keys[i] = rec.Key
		}
		assert.Equal(t, []string{"a", "b", "c"}, keys)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Insert(ctx, "contacts", &store.Record{Key: "larry", Data: map[string]any{}})
		require.NoError(t, err)

		_, err = s.Get(ctx, "companies", "larry")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

// runIncrementerContract exercises the optional Increment capability.
func runIncrementerContract(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("increments existing field", func(t *testing.T) {
		s := newStore(t)
		inc, ok := s.(store.Incrementer)
		require.True(t, ok)

		_, err := s.Insert(ctx, "contacts", &store.Record{Key: "larry", Data: map[string]any{"visits": float64(10)}})
		require.NoError(t, err)

		next, err := inc.Increment(ctx, "contacts", "larry", "visits", 5)
		require.NoError(t, err)
		assert.InDelta(t, 15, next, 0.0001)

		got, err := s.Get(ctx, "contacts", "larry")
		require.NoError(t, err)
		v, err := got.Float("visits")
		require.NoError(t, err)
		assert.InDelta(t, 15, v, 0.0001)
	})

	t.Run("missing field starts at zero", func(t *testing.T) {
		s := newStore(t)
		inc, ok := s.(store.Incrementer)
		require.True(t, ok)

		_, err := s.Insert(ctx, "contacts", &store.Record{Key: "larry", Data: map[string]any{}})
		require.NoError(t, err)

		next, err := inc.Increment(ctx, "contacts", "larry", "visits", 2.5)
		require.NoError(t, err)
		assert.InDelta(t, 2.5, next, 0.0001)
	})

	t.Run("missing record fails", func(t *testing.T) {
		s := newStore(t)
		inc, ok := s.(store.Incrementer)
		require.True(t, ok)

		_, err := inc.Increment(ctx, "contacts", "nope", "visits", 1)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
