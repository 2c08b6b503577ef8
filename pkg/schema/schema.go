package schema

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/vellum/pkg/document"
)

// Schema is an immutable registry of field declarations addressed by dotted
// path. It implements document.Caster: lenient type coercion on write and
// per-field metadata lookup. A single Schema is safely shared across many
// documents.
type Schema struct {
	fields map[string]Field
	order  []string
}

// New creates a Schema from field declarations. Later declarations of the
// same name win.
func New(fields ...Field) *Schema {
	s := &Schema{fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if _, ok := s.fields[f.Name]; !ok {
			s.order = append(s.order, f.Name)
		}
		s.fields[f.Name] = f
	}
	return s
}

// Fields returns the declarations in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.fields[name])
	}
	return out
}

// FieldMeta returns the declared shape of a dotted-path field name.
// Defaults are cloned per read so the shared registry stays immutable.
func (s *Schema) FieldMeta(name string) (document.FieldMeta, bool) {
	f, ok := s.fields[name]
	if !ok {
		return document.FieldMeta{}, false
	}
	return document.FieldMeta{
		Default:  cloneAny(f.Default),
		Array:    f.Array,
		Relation: f.Relation,
	}, true
}

// Cast converts a batch of raw values into their typed forms: scalars are
// coerced per the declared type, mappings are wrapped into nested documents,
// and array-typed slices into sets. Coercion is best effort; a value that
// cannot be coerced passes through unchanged.
func (s *Schema) Cast(_ *document.Document, data map[string]any, ctx document.CastContext) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = s.castValue(qualify(ctx.PathKey, k), v, ctx)
	}
	return out
}

func (s *Schema) castValue(qualified string, v any, ctx document.CastContext) any {
	switch v.(type) {
	case *document.Document, *document.Set:
		return v
	}

	f, known := s.fields[qualified]
	if known && f.Array {
		if items, ok := v.([]any); ok {
			wrapped := make([]any, len(items))
			for i, e := range items {
				if m, ok := e.(map[string]any); ok {
					wrapped[i] = s.newDocument(m, qualified, ctx)
					continue
				}
				wrapped[i] = coerce(f.Type, e)
			}
			return document.NewSet(wrapped, qualified)
		}
	}
	if m, ok := v.(map[string]any); ok {
		return s.newDocument(m, qualified, ctx)
	}
	if known {
		return coerce(f.Type, v)
	}
	return v
}

func (s *Schema) newDocument(data map[string]any, pathKey string, ctx document.CastContext) *document.Document {
	return document.New(data,
		document.WithSchema(s),
		document.WithModel(ctx.Model),
		document.WithPathKey(pathKey),
	)
}

// coerce applies a lenient scalar conversion: on failure the original value
// is kept rather than rejected.
func coerce(t Type, v any) any {
	if v == nil {
		return nil
	}
	switch t {
	case String:
		switch c := v.(type) {
		case string:
			return c
		case int:
			return strconv.Itoa(c)
		case int64:
			return strconv.FormatInt(c, 10)
		case float64:
			return strconv.FormatFloat(c, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(c)
		}
	case Int:
		switch c := v.(type) {
		case int:
			return int64(c)
		case int32:
			return int64(c)
		case int64:
			return c
		case float64:
			return int64(c)
		case string:
			if n, err := strconv.ParseInt(c, 10, 64); err == nil {
				return n
			}
		}
	case Float:
		switch c := v.(type) {
		case float64:
			return c
		case float32:
			return float64(c)
		case int:
			return float64(c)
		case int64:
			return float64(c)
		case string:
			if n, err := strconv.ParseFloat(c, 64); err == nil {
				return n
			}
		}
	case Bool:
		switch c := v.(type) {
		case bool:
			return c
		case string:
			if b, err := strconv.ParseBool(c); err == nil {
				return b
			}
		}
	case Time:
		switch c := v.(type) {
		case time.Time:
			return c
		case string:
			if ts, err := time.Parse(time.RFC3339, c); err == nil {
				return ts
			}
		}
	case ID:
		switch c := v.(type) {
		case uuid.UUID:
			return c
		case string:
			if id, err := uuid.Parse(c); err == nil {
				return id
			}
		}
	}
	return v
}

func qualify(pathKey, name string) string {
	if pathKey == "" {
		return name
	}
	return pathKey + document.PathSeparator + name
}

func cloneAny(v any) any {
	switch c := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, e := range c {
			out[k] = cloneAny(e)
		}
		return out
	case []any:
		out := make([]any, len(c))
		for i, e := range c {
			out[i] = cloneAny(e)
		}
		return out
	default:
		return v
	}
}

var _ document.Caster = (*Schema)(nil)
