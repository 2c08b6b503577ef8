package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/vellum/pkg/document"
)

// stubSchema implements document.Caster with a fixed metadata table and an
// optional cast hook.
type stubSchema struct {
	meta map[string]document.FieldMeta
	cast func(data map[string]any, ctx document.CastContext) map[string]any
}

func (s *stubSchema) FieldMeta(name string) (document.FieldMeta, bool) {
	m, ok := s.meta[name]
	return m, ok
}

func (s *stubSchema) Cast(_ *document.Document, data map[string]any, ctx document.CastContext) map[string]any {
	if s.cast == nil {
		return data
	}
	return s.cast(data, ctx)
}

func TestDocumentSetGet(t *testing.T) {
	t.Parallel()

	t.Run("set then get returns the value", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil)
		doc.Set(map[string]any{"name": "Acme"})

		v, err := doc.Get("name")
		require.NoError(t, err)
		assert.Equal(t, "Acme", v)
	})

	t.Run("unknown field resolves to nil without error", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil)
		v, err := doc.Get("missing")
		require.NoError(t, err)
		assert.Nil(t, v)
		assert.False(t, doc.Has("missing"))
	})

	t.Run("new value wins over pending value", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil)
		doc.Set(map[string]any{"name": "Acme"})
		doc.Set(map[string]any{"name": "Initech"})

		v, err := doc.Get("name")
		require.NoError(t, err)
		assert.Equal(t, "Initech", v)
	})

	t.Run("schema cast applies on write", func(t *testing.T) {
		t.Parallel()

		schema := &stubSchema{
			cast: func(data map[string]any, _ document.CastContext) map[string]any {
				out := make(map[string]any, len(data))
				for k, v := range data {
					if s, ok := v.(string); ok && k == "age" {
						out[k] = len(s) // arbitrary coercion for the test
						continue
					}
					out[k] = v
				}
				return out
			},
		}
		doc := document.New(nil, document.WithSchema(schema))
		doc.Set(map[string]any{"age": "ten"})

		v, err := doc.Get("age")
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	})

	t.Run("declared default is lazily written on first read", func(t *testing.T) {
		t.Parallel()

		schema := &stubSchema{meta: map[string]document.FieldMeta{
			"status": {Default: "draft"},
		}}
		doc := document.New(nil, document.WithSchema(schema))
		assert.False(t, doc.Has("status"))

		v, err := doc.Get("status")
		require.NoError(t, err)
		assert.Equal(t, "draft", v)
		assert.True(t, doc.Has("status"))
	})

	t.Run("declared array field lazily materializes an empty set", func(t *testing.T) {
		t.Parallel()

		schema := &stubSchema{meta: map[string]document.FieldMeta{
			"tags": {Array: true},
		}}
		doc := document.New(nil, document.WithSchema(schema))

		v, err := doc.Get("tags")
		require.NoError(t, err)
		set, ok := v.(*document.Set)
		require.True(t, ok)
		assert.Equal(t, 0, set.Len())
		assert.Equal(t, "tags", set.PathKey())

		// Same set on subsequent reads.
		again, err := doc.Get("tags")
		require.NoError(t, err)
		assert.Same(t, set, again)
	})
}

func TestDocumentRelations(t *testing.T) {
	t.Parallel()

	schema := &stubSchema{meta: map[string]document.FieldMeta{
		"owner": {Relation: true},
	}}

	t.Run("reading an unmaterialized relation fails", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil, document.WithSchema(schema))
		_, err := doc.Get("owner")
		require.ErrorIs(t, err, document.ErrRelationNotLoaded)
	})

	t.Run("SetRelation materializes and unblocks reads", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil, document.WithSchema(schema))
		owner := document.New(map[string]any{"name": "Larry"})
		doc.SetRelation("owner", owner)

		v, err := doc.Get("owner")
		require.NoError(t, err)
		assert.Same(t, owner, v)
		assert.Equal(t, "owner", owner.PathKey())
	})
}

func TestDocumentRemove(t *testing.T) {
	t.Parallel()

	t.Run("remove deletes from the pending buffer only", func(t *testing.T) {
		t.Parallel()

		doc := document.New(map[string]any{"name": "Acme", "city": "Vienna"})
		doc.Remove("city")

		assert.False(t, doc.Has("city"))
		// Baseline still holds the value until sync.
		ex := doc.Export()
		_, inData := ex.Data["city"]
		assert.True(t, inData)
		assert.Equal(t, []string{"city"}, ex.Cleared())
	})

	t.Run("removed field drops out of the baseline on sync", func(t *testing.T) {
		t.Parallel()

		doc := document.New(map[string]any{"name": "Acme", "city": "Vienna"})
		doc.Remove("city")
		doc.Sync(nil, nil)

		ex := doc.Export()
		_, inData := ex.Data["city"]
		assert.False(t, inData)
	})

	t.Run("dotted remove reaches into nested documents", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil)
		doc.Set(map[string]any{"a.b.c": 1, "a.b.d": 2})
		doc.Remove("a.b.c")

		assert.False(t, doc.Has("a.b.c"))
		assert.True(t, doc.Has("a.b.d"))
	})
}

func TestDocumentIncrement(t *testing.T) {
	t.Parallel()

	t.Run("accumulates deltas into value and bookkeeping", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil)
		doc.Set(map[string]any{"x": 10})

		v, err := doc.Increment("x", 5)
		require.NoError(t, err)
		assert.Equal(t, 15, v)

		v, err = doc.Increment("x", 5)
		require.NoError(t, err)
		assert.Equal(t, 20, v)

		got, err := doc.Get("x")
		require.NoError(t, err)
		assert.Equal(t, 20, got)
		assert.InDelta(t, 10, doc.Increments()["x"], 0)
	})

	t.Run("absent field starts from a zero baseline", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil)
		v, err := doc.Increment("hits", 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)
	})

	t.Run("non-numeric field fails after bookkeeping mutates", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil)
		doc.Set(map[string]any{"y": "abc"})

		_, err := doc.Increment("y", 1)
		require.ErrorIs(t, err, document.ErrNotNumeric)
		// The accumulated delta is recorded even though the increment failed.
		assert.InDelta(t, 1, doc.Increments()["y"], 0)
	})

	t.Run("direct write resets pending increments", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil)
		doc.Set(map[string]any{"x": 10})
		_, err := doc.Increment("x", 5)
		require.NoError(t, err)

		doc.Set(map[string]any{"x": 100})
		assert.Empty(t, doc.Increments())
	})

	t.Run("float delta widens an integer field", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil)
		doc.Set(map[string]any{"score": 10})
		v, err := doc.Increment("score", 0.5)
		require.NoError(t, err)
		assert.InDelta(t, 10.5, v, 0.0001)
	})
}

func TestDocumentSync(t *testing.T) {
	t.Parallel()

	t.Run("assigns id into the key field", func(t *testing.T) {
		t.Parallel()

		doc := document.New(map[string]any{"name": "Acme"})
		assert.False(t, doc.Exists())

		doc.Sync("rec-1", nil)
		assert.True(t, doc.Exists())

		v, err := doc.Get("id")
		require.NoError(t, err)
		assert.Equal(t, "rec-1", v)
	})

	t.Run("second sync on a clean document is a no-op", func(t *testing.T) {
		t.Parallel()

		doc := document.New(map[string]any{"name": "Acme"})
		doc.Sync("rec-1", nil)
		before := doc.Export()

		doc.Sync(nil, nil)
		after := doc.Export()
		assert.Equal(t, before.Data, after.Data)
		assert.Equal(t, before.Updated, after.Updated)
		assert.Empty(t, after.Changes())
	})

	t.Run("authoritative data wins over pending values", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil)
		doc.Set(map[string]any{"views": 3})
		doc.Sync(nil, map[string]any{"views": 7})

		v, err := doc.Get("views")
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})

	t.Run("recursive sync baselines nested documents", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil)
		doc.Set(map[string]any{"address.city": "Vienna"})

		doc.Sync("rec-1", map[string]any{
			"address": map[string]any{"city": "Vienna", "zip": "1010"},
		})

		v, err := doc.Get("address")
		require.NoError(t, err)
		nested, ok := v.(*document.Document)
		require.True(t, ok)
		assert.True(t, nested.Exists())

		zip, err := doc.Get("address.zip")
		require.NoError(t, err)
		assert.Equal(t, "1010", zip)
		assert.Empty(t, nested.Export().Changes())
	})

	t.Run("non-recursive sync leaves nested pending state alone", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil)
		doc.Set(map[string]any{"address.city": "Vienna"})

		doc.Sync(nil, nil, document.Recursive(false))

		v, err := doc.Get("address")
		require.NoError(t, err)
		nested := v.(*document.Document)
		assert.False(t, nested.Exists())
	})

	t.Run("clears increments and the removal mask", func(t *testing.T) {
		t.Parallel()

		doc := document.New(map[string]any{"x": 1, "k": "v"})
		_, err := doc.Increment("x", 2)
		require.NoError(t, err)
		doc.MarkRemoved("k")

		doc.Sync(nil, nil)
		assert.Empty(t, doc.Increments())

		// The removed name dropped out of the baseline, not just the view.
		assert.False(t, doc.Has("k"))
		assert.True(t, doc.Has("x"))

		doc.Rewind()
		for doc.Valid() {
			assert.NotEqual(t, "k", doc.Key())
			doc.Next()
		}
	})
}

func TestDocumentExistsPropagation(t *testing.T) {
	t.Parallel()

	t.Run("init write on a persisted parent marks children persisted", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil, document.Exists(true))
		child := document.New(map[string]any{"city": "Vienna"})
		doc.Set(map[string]any{"address": child}, document.Init(true))

		assert.True(t, child.Exists())
		assert.Equal(t, "address", child.PathKey())
	})

	t.Run("plain write marks children unsaved", func(t *testing.T) {
		t.Parallel()

		doc := document.New(nil, document.Exists(true))
		child := document.New(nil, document.Exists(true))
		doc.Set(map[string]any{"address": child})

		assert.False(t, child.Exists())
	})
}

func TestDocumentScenario(t *testing.T) {
	t.Parallel()

	doc := document.New(map[string]any{
		"name": "Acme",
		"employees": map[string]any{
			"Larry": map[string]any{"email": "larry@acme.com"},
		},
	})

	v, err := doc.Get("employees.Larry.email")
	require.NoError(t, err)
	assert.Equal(t, "larry@acme.com", v)

	// Path valid up to the final segment, which does not exist.
	v, err = doc.Get("employees.Larry.phone")
	require.NoError(t, err)
	assert.Nil(t, v)
}
