package document

import "iter"

// Set is an ordered collection of values under a single field of a parent
// document: documents for document arrays, scalars for scalar arrays.
// Entries share the set's path key.
type Set struct {
	schema  Caster
	model   Meta
	factory Factory

	items   []any
	pathKey string
}

// NewSet creates a Set at the given path key. Raw maps among the items are
// wrapped into documents carrying the set's path key.
func NewSet(items []any, pathKey string) *Set {
	s := &Set{pathKey: pathKey}
	s.Append(items...)
	return s
}

// PathKey returns the set's position inside the owning document's field tree.
func (s *Set) PathKey() string { return s.pathKey }

// Bind attaches schema, model, and factory context so later entries inherit
// it. Factories call it on sets they materialize; existing entries are not
// restamped.
func (s *Set) Bind(schema Caster, model Meta, factory Factory) *Set {
	s.schema, s.model, s.factory = schema, model, factory
	return s
}

// Len returns the number of entries.
func (s *Set) Len() int { return len(s.items) }

// At returns the entry at index i, or nil when out of range.
func (s *Set) At(i int) any {
	if i < 0 || i >= len(s.items) {
		return nil
	}
	return s.items[i]
}

// First returns the first entry, or nil for an empty set.
func (s *Set) First() any { return s.At(0) }

// Append adds entries to the end of the set. Raw maps are wrapped into
// documents; documents and nested sets inherit the set's context.
func (s *Set) Append(vals ...any) {
	for _, v := range vals {
		switch c := v.(type) {
		case map[string]any:
			v = s.newDocument(c)
		case *Document:
			c.pathKey = s.pathKey
			if c.schema == nil {
				c.schema = s.schema
			}
			if c.model == nil {
				c.model = s.model
			}
			if c.factory == nil {
				c.factory = s.factory
			}
		}
		s.items = append(s.items, v)
	}
}

// StampPathKey re-stamps the set's path key and every document entry's,
// keeping the tree consistent after the set is attached to a new position.
func (s *Set) StampPathKey(pathKey string) {
	s.pathKey = pathKey
	for _, v := range s.items {
		if doc, ok := v.(*Document); ok {
			doc.pathKey = pathKey
		}
	}
}

// Sync recursively syncs every document entry, handing each any matching
// positional sub-mapping of data, then clears nothing at the set level: the
// set itself carries no pending buffer.
func (s *Set) Sync(data []any, opts ...SyncOption) {
	o := syncOptions{recursive: true, materialize: true}
	for _, opt := range opts {
		opt(&o)
	}
	s.sync(data, o)
}

func (s *Set) sync(data []any, o syncOptions) {
	for i, v := range s.items {
		doc, ok := v.(*Document)
		if !ok {
			continue
		}
		var sub map[string]any
		if i < len(data) {
			sub, _ = data[i].(map[string]any)
		}
		doc.sync(nil, sub, o)
	}
}

// Plain recursively unwraps the set into a plain slice.
func (s *Set) Plain(opts ...PlainOption) []any {
	var o plainOptions
	for _, opt := range opts {
		opt(&o)
	}
	return s.plain(o)
}

func (s *Set) plain(o plainOptions) []any {
	out := make([]any, len(s.items))
	for i, v := range s.items {
		out[i] = plainValue(v, o)
	}
	return out
}

// All returns an iterator over index/entry pairs in order.
func (s *Set) All() iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		for i, v := range s.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

func (s *Set) newDocument(data map[string]any) *Document {
	if s.factory != nil {
		return s.factory.Document(data, s.pathKey)
	}
	return New(data, WithSchema(s.schema), WithModel(s.model), WithPathKey(s.pathKey))
}
