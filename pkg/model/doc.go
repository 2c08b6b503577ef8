// Package model is the persistence layer for documents: it binds a document
// type to a collection name, a schema, a key field, and a store backend,
// and drives the document lifecycle hooks (export, sync, increment flush)
// around store operations.
//
// # Usage
//
//	contacts, err := model.New("contacts", s,
//		model.WithSchema(contactSchema),
//		model.WithLocking(true),
//	)
//	if err != nil {
//		return err
//	}
//
//	doc := contacts.NewDocument(map[string]any{"name": "Larry"})
//	if err := contacts.Save(ctx, doc); err != nil {
//		return err
//	}
//
//	loaded, err := contacts.Get(ctx, "larry")
//
// # Factory role
//
// Model implements the document factory surface, so nested documents and
// sets materialized lazily inside a loaded document inherit the model's
// schema and configuration without carrying any store reference.
//
// # Saving
//
// Save inserts unsaved documents (generating a key when the key field is
// empty) and updates persisted ones. With WithLocking enabled the update
// carries the loaded version, and a concurrent writer surfaces
// store.ErrVersionMismatch. Accumulated increments flush through the
// store's Incrementer when available; otherwise they ride along in the
// pending values. After a successful save the document's pending state
// becomes its baseline via Sync.
package model
