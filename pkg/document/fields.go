package document

import (
	"maps"
	"slices"
)

// fieldMap is an insertion-ordered string-keyed map. Both the baseline and
// the pending buffer of a Document are fieldMaps, so iteration order follows
// insertion order and overwriting a key keeps its original position.
type fieldMap struct {
	vals map[string]any
	keys []string
}

func newFieldMap() *fieldMap {
	return &fieldMap{vals: make(map[string]any)}
}

func (f *fieldMap) Get(key string) (any, bool) {
	v, ok := f.vals[key]
	return v, ok
}

func (f *fieldMap) Has(key string) bool {
	_, ok := f.vals[key]
	return ok
}

func (f *fieldMap) Set(key string, value any) {
	if _, ok := f.vals[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.vals[key] = value
}

func (f *fieldMap) Delete(key string) {
	if _, ok := f.vals[key]; !ok {
		return
	}
	delete(f.vals, key)
	if i := slices.Index(f.keys, key); i >= 0 {
		f.keys = slices.Delete(f.keys, i, i+1)
	}
}

func (f *fieldMap) Len() int { return len(f.keys) }

// Keys returns the insertion-ordered key slice. Callers must not mutate it.
func (f *fieldMap) Keys() []string { return f.keys }

// At returns the key at position i, or "" when out of range.
func (f *fieldMap) At(i int) string {
	if i < 0 || i >= len(f.keys) {
		return ""
	}
	return f.keys[i]
}

// Map returns a shallow copy as a plain map. Order is lost; use Keys when
// order matters.
func (f *fieldMap) Map() map[string]any {
	return maps.Clone(f.vals)
}

func (f *fieldMap) clone() *fieldMap {
	return &fieldMap{vals: maps.Clone(f.vals), keys: slices.Clone(f.keys)}
}
