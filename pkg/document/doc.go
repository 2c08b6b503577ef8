// Package document provides a mutable, hierarchical record model with
// schema-driven casting, dotted-path field access, and a dual-buffer write
// lifecycle.
//
// # Documents
//
// A [Document] is a record of named fields where any value may itself be a
// nested Document or an ordered [Set] of documents. Writes land in a pending
// buffer that shadows the baseline until [Document.Sync] reconciles them:
//
//	doc := document.New(map[string]any{"name": "Acme"})
//	doc.Set(map[string]any{"employees.Larry.email": "larry@acme.com"})
//	v, _ := doc.Get("employees.Larry.email") // "larry@acme.com"
//
// Dotted names always denote traversal. Resolution soft-fails: a missing
// segment or a scalar blocking the walk yields nil, never an error. Nested
// assignment creates intermediate documents as needed and silently no-ops
// when a scalar is in the way.
//
// # Collaborators
//
// Documents consume three narrow interfaces, all optional:
//
//   - [Caster]: schema casting and field metadata (defaults, array fields,
//     relations), implemented by pkg/schema
//   - [Meta]: per-type configuration (type name, key field), implemented
//     by pkg/model
//   - [Factory]: materializes nested documents and sets on demand, so the
//     document never holds a live data-source reference
//
// Every nested document's path key is its parent's path key joined with the
// field name, so a child always knows its position as a string and never as
// an object pointer back into the tree.
//
// # Persistence hooks
//
// [Document.Export], [Document.Sync], [Document.MarkRemoved] and
// [Document.Increment] are the surface an external persistence layer drives.
// Increment deltas accumulate separately from the pending value so a backend
// can flush them atomically. Incrementing a non-numeric field fails with
// [ErrNotNumeric] after the bookkeeping has been recorded; callers observing
// the increments map rely on that ordering.
//
// # Iteration
//
// The cursor protocol (Rewind/Valid/Current/Key/Next) walks the baseline in
// insertion order, masking names recorded by MarkRemoved, while Next resolves
// values through the pending buffer. [Document.All] exposes the same order as
// a range iterator:
//
//	for name, val := range doc.All() {
//	    fmt.Println(name, val)
//	}
//
// Documents are single-owner state: concurrent mutation must be guarded by
// the embedding application. Schema and model references are read-only and
// safely shared across many documents.
package document
