package document

import "iter"

// The iteration protocol exposes the document as a sequence of its own
// fields for generic consumers such as serializers. The cursor is stateful,
// single, and not re-entrant: nesting two iterations over the same document
// corrupts the position.
//
// Current and Key read the underlying baseline at the cursor, masking names
// recorded by MarkRemoved; Next returns the resolved value, which applies
// pending overrides, defaults and lazy wrapping.

// Rewind resets the cursor to the first entry. Iteration is valid only while
// the pending buffer is non-empty.
func (d *Document) Rewind() {
	d.pos = 0
	d.valid = d.updated.Len() > 0
}

// Valid returns the last-computed validity flag.
func (d *Document) Valid() bool { return d.valid }

// Current returns the baseline value at the cursor, or nil when the cursor
// is out of range or the key is masked as removed.
func (d *Document) Current() any {
	k := d.data.At(d.pos)
	if k == "" {
		return nil
	}
	if _, ok := d.removed[k]; ok {
		return nil
	}
	v, _ := d.data.Get(k)
	return v
}

// Key returns the field name at the cursor, or "" when the cursor is out of
// range or the key is masked as removed.
func (d *Document) Key() string {
	k := d.data.At(d.pos)
	if k == "" {
		return ""
	}
	if _, ok := d.removed[k]; ok {
		return ""
	}
	return k
}

// Next advances the cursor, skipping removed keys, and returns the resolved
// field value at the new position, or nil when iteration has ended.
func (d *Document) Next() any {
	d.pos++
	k := d.data.At(d.pos)
	if k == "" {
		d.valid = false
		return nil
	}
	if _, ok := d.removed[k]; ok {
		return d.Next()
	}
	d.valid = true
	v, _ := d.Get(k)
	return v
}

// All returns a range iterator over the baseline field order with the same
// removal masking as the cursor protocol, yielding resolved values.
func (d *Document) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range d.data.Keys() {
			if _, ok := d.removed[k]; ok {
				continue
			}
			v, _ := d.Get(k)
			if !yield(k, v) {
				return
			}
		}
	}
}
