package document

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// PathSeparator delimits segments in nested field names. A field name
// containing it always denotes traversal into a nested document, never a
// literal field name.
const PathSeparator = "."

// FieldMeta describes the declared shape of a single field.
type FieldMeta struct {
	// Default is the value lazily assigned on first read of an unset field.
	Default any
	// Array marks the field as holding an ordered collection of documents.
	Array bool
	// Relation marks the field as an embedded relation that must be
	// materialized through SetRelation before it can be read.
	Relation bool
}

// CastContext carries the position context handed to Caster.Cast so the
// schema can qualify dotted-path field lookups.
type CastContext struct {
	Model   Meta
	PathKey string
}

// Caster is the narrow schema surface a Document consumes: type coercion for
// a batch of raw values and per-field metadata lookup. Implemented by
// pkg/schema.
type Caster interface {
	Cast(owner *Document, data map[string]any, ctx CastContext) map[string]any
	FieldMeta(name string) (FieldMeta, bool)
}

// Meta exposes the static per-type configuration a Document needs: the type
// name and the key field. Implemented by pkg/model.
type Meta interface {
	Name() string
	Key() string
}

// Factory materializes nested documents and sets on demand: lazy defaults
// for array-typed fields and intermediate entities during nested-path
// assignment. Injecting it keeps the Document free of any live data-source
// reference. Implemented by pkg/model; when absent the Document builds
// children itself, inheriting its own schema and model.
type Factory interface {
	Document(data map[string]any, pathKey string) *Document
	Set(pathKey string) *Set
}

// Document is a mutable, hierarchical record of named fields. Any field
// value may itself be a nested *Document or an ordered *Set of documents,
// built lazily from the backing schema and defaults.
//
// Writes land in the pending buffer, which shadows the baseline until Sync
// reconciles them. Iteration walks the baseline in insertion order, masking
// names recorded by MarkRemoved.
//
// A Document and its nested documents are single-owner state: concurrent
// mutation must be guarded by the embedding application.
type Document struct {
	schema  Caster
	model   Meta
	factory Factory

	data       *fieldMap
	updated    *fieldMap
	increments map[string]float64
	removed    map[string]struct{}
	relations  map[string]any

	pathKey string
	version int64
	pos     int
	exists  bool
	valid   bool
}

// Option configures a Document at construction.
type Option func(*Document)

// WithSchema attaches field metadata and casting.
func WithSchema(s Caster) Option {
	return func(d *Document) { d.schema = s }
}

// WithModel attaches the static per-type configuration.
func WithModel(m Meta) Option {
	return func(d *Document) { d.model = m }
}

// WithFactory injects the factory used for lazy materialization.
func WithFactory(f Factory) Option {
	return func(d *Document) { d.factory = f }
}

// WithPathKey sets the document's position inside an ancestor's field tree.
// Root documents leave it empty.
func WithPathKey(pathKey string) Option {
	return func(d *Document) { d.pathKey = pathKey }
}

// Exists marks the document as corresponding to a persisted record.
// Loaders pass true; fresh unsaved documents default to false.
func Exists(exists bool) Option {
	return func(d *Document) { d.exists = exists }
}

// New creates a Document from raw data. The data is written through Set so
// schema casting applies, then immediately reconciled into the baseline so
// a freshly constructed document starts clean.
func New(data map[string]any, opts ...Option) *Document {
	d := &Document{
		data:       newFieldMap(),
		updated:    newFieldMap(),
		increments: make(map[string]float64),
		removed:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if len(data) > 0 {
		d.Set(data, Init(true))
	}
	d.sync(nil, nil, syncOptions{recursive: true, materialize: false})
	return d
}

// PathKey returns the dot-joined position of this document inside an
// ancestor's field tree, or "" for a root document.
func (d *Document) PathKey() string { return d.pathKey }

// Exists reports whether the document corresponds to a persisted record.
func (d *Document) Exists() bool { return d.exists }

// MarkExists is a persistence-layer hook toggling the persisted flag, e.g.
// after a delete.
func (d *Document) MarkExists(exists bool) { d.exists = exists }

// Version returns the optimistic-lock version stamped by the persistence
// layer, or 0 when the document was never loaded.
func (d *Document) Version() int64 { return d.version }

// SetVersion is a persistence-layer hook recording the record version the
// document was loaded at.
func (d *Document) SetVersion(v int64) { d.version = v }

// Get resolves a field by name. Dotted names traverse nested documents,
// sets (numeric segments), raw maps and slices; a missing segment or a
// scalar blocking the walk yields (nil, nil), never an error.
//
// For plain names the pending buffer wins; absent that, a declared default
// is lazily written and returned, and a declared array field lazily
// materializes an empty Set through the factory. Reading a declared relation
// before SetRelation returns ErrRelationNotLoaded.
func (d *Document) Get(name string) (any, error) {
	if strings.Contains(name, PathSeparator) {
		return d.getPath(name), nil
	}
	if v, ok := d.relations[name]; ok {
		return v, nil
	}
	meta, known := d.fieldMeta(name)
	if known && meta.Relation {
		return nil, fmt.Errorf("%w: %s", ErrRelationNotLoaded, name)
	}
	if v, ok := d.updated.Get(name); ok {
		return v, nil
	}
	if known && meta.Default != nil {
		d.Set(map[string]any{name: cloneValue(meta.Default)})
		v, _ := d.updated.Get(name)
		return v, nil
	}
	if known && meta.Array {
		s := d.newSet(joinPath(d.pathKey, name))
		d.updated.Set(name, s)
		return s, nil
	}
	return nil, nil
}

// SetOption configures a Set call.
type SetOption func(*setOptions)

type setOptions struct {
	init bool
}

// Init marks the write as initialization from a data source: nested
// documents created by it inherit the parent's persisted flag instead of
// being treated as fresh writes.
func Init(init bool) SetOption {
	return func(o *setOptions) { o.init = init }
}

// Set merges a batch of field writes into the pending buffer. Dotted keys
// are routed through nested-path assignment; every key clears any pending
// increment; the remaining flat batch is cast through the schema when one is
// attached; nested documents and sets in the result inherit this document's
// context and get their path keys stamped. New values win over pending ones.
func (d *Document) Set(values map[string]any, opts ...SetOption) {
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}

	keys := slices.Sorted(maps.Keys(values))
	flat := make(map[string]any, len(values))
	for _, k := range keys {
		delete(d.increments, k)
		if strings.Contains(k, PathSeparator) {
			d.setPath(k, values[k], o)
			continue
		}
		flat[k] = values[k]
	}
	if len(flat) == 0 {
		return
	}
	if d.schema != nil {
		flat = d.schema.Cast(d, flat, CastContext{PathKey: d.pathKey, Model: d.model})
	}
	for _, k := range keys {
		v, ok := flat[k]
		if !ok {
			continue
		}
		d.adopt(k, v, o.init)
		d.updated.Set(k, v)
	}
}

// adopt stamps ownership context onto a nested document or set produced by
// a write: persisted flag, path key, and inherited schema/model/factory.
func (d *Document) adopt(key string, v any, init bool) {
	switch c := v.(type) {
	case *Document:
		c.exists = init && d.exists
		c.pathKey = joinPath(d.pathKey, key)
		if c.schema == nil {
			c.schema = d.schema
		}
		if c.model == nil {
			c.model = d.model
		}
		if c.factory == nil {
			c.factory = d.factory
		}
	case *Set:
		c.StampPathKey(joinPath(d.pathKey, key))
		if c.schema == nil {
			c.schema = d.schema
		}
		if c.model == nil {
			c.model = d.model
		}
		if c.factory == nil {
			c.factory = d.factory
		}
	}
}

// Has reports whether a field has a pending or current value. Dotted names
// resolve through traversal.
func (d *Document) Has(name string) bool {
	if strings.Contains(name, PathSeparator) {
		return d.getPath(name) != nil
	}
	return d.updated.Has(name)
}

// Remove deletes a field from the pending buffer. It does not touch the
// removal mask, which is populated by the persistence layer through
// MarkRemoved. Dotted names remove the final segment on the nested document
// the walk terminates at.
func (d *Document) Remove(name string) {
	if !strings.Contains(name, PathSeparator) {
		d.updated.Delete(name)
		return
	}
	segs := strings.Split(name, PathSeparator)
	cur := d
	for _, seg := range segs[:len(segs)-1] {
		v, ok := cur.updated.Get(seg)
		if !ok {
			return
		}
		child, ok := v.(*Document)
		if !ok {
			return
		}
		cur = child
	}
	cur.updated.Delete(segs[len(segs)-1])
}

// MarkRemoved is a persistence-layer hook masking field names during
// iteration while they are still physically present in the baseline.
func (d *Document) MarkRemoved(names ...string) {
	for _, name := range names {
		d.removed[name] = struct{}{}
	}
}

// SetRelation materializes an embedded relation, unblocking Get for the
// name. Documents and sets attached this way inherit this document's
// context.
func (d *Document) SetRelation(name string, v any) {
	if d.relations == nil {
		d.relations = make(map[string]any)
	}
	d.adopt(name, v, false)
	d.relations[name] = v
}

// Increment accumulates a numeric delta for later flush by the persistence
// layer and applies it to the pending value. An absent field starts from a
// zero baseline. Incrementing a non-numeric field fails with ErrNotNumeric;
// the accumulated delta is recorded before the check, so a failed increment
// still mutates the bookkeeping.
func (d *Document) Increment(field string, delta float64) (any, error) {
	if _, ok := d.increments[field]; !ok {
		d.increments[field] = 0
	}
	d.increments[field] += delta

	cur, ok := d.updated.Get(field)
	if !ok {
		v := numericFromFloat(d.increments[field])
		d.updated.Set(field, v)
		return v, nil
	}
	next, ok := addNumeric(cur, delta)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotNumeric, field)
	}
	d.updated.Set(field, next)
	return next, nil
}

// Increments returns the accumulated deltas pending flush. Callers must not
// mutate the result.
func (d *Document) Increments() map[string]float64 { return d.increments }

// SyncOption configures a Sync call.
type SyncOption func(*syncOptions)

type syncOptions struct {
	recursive   bool
	materialize bool
}

// Recursive controls whether nested documents and sets are synced first.
// Defaults to true.
func Recursive(recursive bool) SyncOption {
	return func(o *syncOptions) { o.recursive = recursive }
}

// Sync reconciles the pending buffer into the baseline after a successful
// persistence operation, clearing increments and the removal mask and
// marking the document persisted. A non-nil id is assigned into the key
// field; data is the authoritative record state and wins over pending
// values for the same keys.
//
// Recursive mode (the default) first syncs every pending entry that is
// itself a document or set, handing each any matching sub-mapping of data.
func (d *Document) Sync(id any, data map[string]any, opts ...SyncOption) {
	o := syncOptions{recursive: true, materialize: true}
	for _, opt := range opts {
		opt(&o)
	}
	d.sync(id, data, o)
}

func (d *Document) sync(id any, data map[string]any, o syncOptions) {
	if o.recursive {
		for _, k := range slices.Clone(d.updated.Keys()) {
			v, _ := d.updated.Get(k)
			switch c := v.(type) {
			case *Document:
				sub, _ := data[k].(map[string]any)
				c.sync(nil, sub, o)
			case *Set:
				sub, _ := data[k].([]any)
				c.sync(sub, o)
			}
		}
	}

	// Baseline precedence: key entry, then authoritative data, then the
	// pending buffer. The old baseline contributes nothing, which is how a
	// Remove becomes permanent.
	next := newFieldMap()
	if id != nil {
		next.Set(d.keyField(), id)
	}
	for _, k := range slices.Sorted(maps.Keys(data)) {
		if next.Has(k) {
			continue
		}
		if _, gone := d.removed[k]; gone {
			continue
		}
		// A nested entity in the pending buffer has already absorbed its
		// sub-mapping during the recursive pass; keep it over the raw value.
		if o.recursive {
			switch v, _ := d.updated.Get(k); v.(type) {
			case *Document, *Set:
				next.Set(k, v)
				continue
			}
		}
		next.Set(k, data[k])
	}
	for _, k := range d.updated.Keys() {
		if next.Has(k) {
			continue
		}
		if _, gone := d.removed[k]; gone {
			continue
		}
		v, _ := d.updated.Get(k)
		next.Set(k, v)
	}

	d.data = next
	d.updated = next.clone()
	d.increments = make(map[string]float64)
	d.removed = make(map[string]struct{})
	d.pos, d.valid = 0, false
	if o.materialize {
		d.exists = true
	}
}

func (d *Document) keyField() string {
	if d.model != nil && d.model.Key() != "" {
		return d.model.Key()
	}
	return "id"
}

func (d *Document) fieldMeta(name string) (FieldMeta, bool) {
	if d.schema == nil {
		return FieldMeta{}, false
	}
	return d.schema.FieldMeta(joinPath(d.pathKey, name))
}

// newDocument builds a nested document through the injected factory, or
// directly with inherited context when no factory is bound.
func (d *Document) newDocument(data map[string]any, pathKey string) *Document {
	if d.factory != nil {
		return d.factory.Document(data, pathKey)
	}
	return New(data, WithSchema(d.schema), WithModel(d.model), WithPathKey(pathKey))
}

// newSet builds a nested set through the injected factory, or directly with
// inherited context when no factory is bound.
func (d *Document) newSet(pathKey string) *Set {
	if d.factory != nil {
		return d.factory.Set(pathKey)
	}
	s := NewSet(nil, pathKey)
	s.schema, s.model = d.schema, d.model
	return s
}

func joinPath(pathKey, name string) string {
	if pathKey == "" {
		return name
	}
	return pathKey + PathSeparator + name
}

func cloneValue(v any) any {
	switch c := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, e := range c {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(c))
		for i, e := range c {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
