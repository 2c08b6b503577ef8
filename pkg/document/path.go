package document

import (
	"strconv"
	"strings"
)

// getPath resolves a dotted field name by walking segments left to right.
// Traversal descends through nested documents, sets and raw maps/slices
// (numeric segments index into ordered values). A missing segment, a bad
// index, or a scalar blocking a non-terminal segment soft-fails to nil.
func (d *Document) getPath(path string) any {
	var cur any = d
	for seg := range strings.SplitSeq(path, PathSeparator) {
		switch c := cur.(type) {
		case *Document:
			v, err := c.Get(seg)
			if err != nil {
				return nil
			}
			cur = v
		case *Set:
			i, err := strconv.Atoi(seg)
			if err != nil {
				return nil
			}
			cur = c.At(i)
		case map[string]any:
			cur = c[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(c) {
				return nil
			}
			cur = c[i]
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

// setPath assigns a value at a dotted field name, creating empty
// intermediate documents through the factory where a segment is missing.
// A scalar blocking the walk makes the whole assignment a silent no-op.
func (d *Document) setPath(path string, value any, o setOptions) {
	segs := strings.Split(path, PathSeparator)
	cur := d
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur.updated.Get(seg)
		if !ok || next == nil {
			child := cur.newDocument(nil, joinPath(cur.pathKey, seg))
			cur.set(map[string]any{seg: child}, o)
			cur = child
			continue
		}
		child, ok := next.(*Document)
		if !ok {
			return
		}
		cur = child
	}
	cur.set(map[string]any{segs[len(segs)-1]: value}, o)
}

// set applies a batch with pre-resolved options, so nested-path assignment
// propagates the init flag.
func (d *Document) set(values map[string]any, o setOptions) {
	if o.init {
		d.Set(values, Init(true))
		return
	}
	d.Set(values)
}
