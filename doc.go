// Package vellum provides a schemaless, hierarchical document model with
// pluggable persistence backends.
//
// Documents hold named fields whose values may themselves be nested
// documents or ordered sets of documents, addressable through dotted paths.
// Writes accumulate in a pending buffer that shadows the last persisted
// baseline until a save reconciles them, so a document always knows exactly
// what changed. An optional schema casts raw values to declared types and
// supplies lazy defaults.
//
// # Quick Start
//
// Declare a schema, bind it to a model over a store, and work with
// documents:
//
//	s, err := vellum.NewFile("contacts.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	contacts, err := vellum.NewModel("contacts", s,
//	    model.WithSchema(vellum.NewSchema(
//	        vellum.Field{Name: "name", Type: schema.String},
//	        vellum.Field{Name: "visits", Type: schema.Int, Default: int64(0)},
//	    )),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc := contacts.NewDocument(map[string]any{"name": "Larry"})
//	if err := contacts.Save(ctx, doc); err != nil {
//	    log.Fatal(err)
//	}
//
// # Nested paths
//
// Dotted names traverse the document tree on both reads and writes; numeric
// segments index into sets:
//
//	email, _ := doc.Get("employees.0.email")
//	doc.Set(map[string]any{"address.city": "Vienna"})
//
// # Packages
//
//   - pkg/document: the document and set types, iteration, export.
//   - pkg/schema: typed field declarations, casting, YAML definitions.
//   - pkg/store: the Store interface and the memory, file, bolt, postgres,
//     redis, and dynamo backends, plus queries and bulk copy.
//   - pkg/model: the persistence layer binding documents to collections.
//
// This package re-exports the common types and constructors, so most
// applications only import vellum and the option-providing subpackages.
package vellum
