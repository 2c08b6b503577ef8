package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/vellum/pkg/store"
)

func TestQueryMatch(t *testing.T) {
	t.Parallel()

	t.Run("field comparison", func(t *testing.T) {
		t.Parallel()

		q, err := store.NewQuery(`status == "active" && visits > 10`)
		require.NoError(t, err)

		ok, err := q.Match(&store.Record{Data: map[string]any{"status": "active", "visits": 12}})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = q.Match(&store.Record{Data: map[string]any{"status": "active", "visits": 3}})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("reserved variables", func(t *testing.T) {
		t.Parallel()

		q, err := store.NewQuery(`_key == "larry" && _version >= 2`)
		require.NoError(t, err)

		ok, err := q.Match(&store.Record{Key: "larry", Version: 3})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("undefined fields resolve to nil", func(t *testing.T) {
		t.Parallel()

		q, err := store.NewQuery(`missing == nil`)
		require.NoError(t, err)

		ok, err := q.Match(&store.Record{Data: map[string]any{}})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("non-boolean expression fails to compile", func(t *testing.T) {
		t.Parallel()

		_, err := store.NewQuery(`1 + 2`)
		require.ErrorIs(t, err, store.ErrInvalidQuery)
	})

	t.Run("malformed expression fails to compile", func(t *testing.T) {
		t.Parallel()

		_, err := store.NewQuery(`status ==`)
		require.ErrorIs(t, err, store.ErrInvalidQuery)
	})
}

func TestFind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemory()
	defer s.Close()

	seed := []struct {
		key    string
		status string
		visits float64
	}{
		{"larry", "active", 12},
		{"moe", "inactive", 40},
		{"curly", "active", 2},
	}
	for _, rec := range seed {
		_, err := s.Insert(ctx, "contacts", &store.Record{
			Key:  rec.key,
			Data: map[string]any{"status": rec.status, "visits": rec.visits},
		})
		require.NoError(t, err)
	}

	t.Run("filters preserving order", func(t *testing.T) {
		q, err := store.NewQuery(`status == "active"`)
		require.NoError(t, err)

		recs, err := store.Find(ctx, s, "contacts", q)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "larry", recs[0].Key)
		assert.Equal(t, "curly", recs[1].Key)
	})

	t.Run("nil query matches everything", func(t *testing.T) {
		recs, err := store.Find(ctx, s, "contacts", nil)
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})

	t.Run("no matches", func(t *testing.T) {
		q, err := store.NewQuery(`visits > 100`)
		require.NoError(t, err)

		recs, err := store.Find(ctx, s, "contacts", q)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}
