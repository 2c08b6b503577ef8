package document

import (
	"fmt"
	"maps"
	"reflect"
)

// Export is the persistence-facing snapshot of a document's state: the
// baseline, the pending buffer, accumulated increments, and the document's
// own path key.
type Export struct {
	Data       map[string]any
	Updated    map[string]any
	Increments map[string]float64
	Key        string
	Version    int64
	Exists     bool
}

// Export snapshots the document for the persistence layer. Path keys of
// nested documents and sets in the pending buffer are re-stamped first, so
// children attached before this document learned its own position come out
// consistent.
func (d *Document) Export() *Export {
	for _, k := range d.updated.Keys() {
		v, _ := d.updated.Get(k)
		switch c := v.(type) {
		case *Document:
			c.pathKey = joinPath(d.pathKey, k)
		case *Set:
			c.StampPathKey(joinPath(d.pathKey, k))
		}
	}
	return &Export{
		Exists:     d.exists,
		Data:       d.data.Map(),
		Updated:    d.updated.Map(),
		Increments: maps.Clone(d.increments),
		Key:        d.pathKey,
		Version:    d.version,
	}
}

// Changes returns the names of pending fields that differ from the baseline,
// the write set a persistence layer flushes.
func (e *Export) Changes() []string {
	var out []string
	for k, v := range e.Updated {
		base, ok := e.Data[k]
		if !ok || !reflect.DeepEqual(base, v) {
			out = append(out, k)
		}
	}
	return out
}

// Cleared returns the names of baseline fields absent from the pending
// buffer, the removal mask a persistence layer applies.
func (e *Export) Cleared() []string {
	var out []string
	for k := range e.Data {
		if _, ok := e.Updated[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// PlainOption configures plain conversion.
type PlainOption func(*plainOptions)

type plainOptions struct {
	handlers map[string]func(any) any
}

// WithHandler registers a conversion handler for an otherwise-unconvertible
// scalar wrapper type, keyed by its %T name, e.g. "uuid.UUID".
func WithHandler(typeName string, fn func(any) any) PlainOption {
	return func(o *plainOptions) {
		if o.handlers == nil {
			o.handlers = make(map[string]func(any) any)
		}
		o.handlers[typeName] = fn
	}
}

// Plain recursively unwraps the document into a plain nested map, applying
// registered handlers to opaque scalar wrapper values. Internal metadata is
// never emitted.
func (d *Document) Plain(opts ...PlainOption) map[string]any {
	var o plainOptions
	for _, opt := range opts {
		opt(&o)
	}
	return d.plain(o)
}

func (d *Document) plain(o plainOptions) map[string]any {
	out := make(map[string]any, d.updated.Len())
	for _, k := range d.updated.Keys() {
		v, _ := d.updated.Get(k)
		out[k] = plainValue(v, o)
	}
	return out
}

func plainValue(v any, o plainOptions) any {
	switch c := v.(type) {
	case *Document:
		return c.plain(o)
	case *Set:
		return c.plain(o)
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, e := range c {
			out[k] = plainValue(e, o)
		}
		return out
	case []any:
		out := make([]any, len(c))
		for i, e := range c {
			out[i] = plainValue(e, o)
		}
		return out
	default:
		if h, ok := o.handlers[fmt.Sprintf("%T", v)]; ok {
			return h(v)
		}
		return v
	}
}
