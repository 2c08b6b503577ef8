// Package schema declares field metadata for documents: types, defaults,
// array shapes and embedded relations, plus the lenient casting a document
// applies on every write.
//
// # Field registry
//
// Fields are addressed by dotted path, so one flat registry describes an
// entire document tree. "employees.email" declares the email field of the
// sub-documents under "employees"; a document's cast context path key
// qualifies the lookup:
//
//	s := schema.New(
//	    schema.Field{Name: "name", Type: schema.String},
//	    schema.Field{Name: "visits", Type: schema.Int, Default: int64(0)},
//	    schema.Field{Name: "employees", Type: schema.Document, Array: true},
//	    schema.Field{Name: "employees.email", Type: schema.String},
//	)
//
// # Casting
//
// Cast is lenient by design: scalars are coerced per the declared type and
// values that cannot be coerced pass through unchanged, so a write never
// fails on malformed input. Mappings are wrapped into nested documents and
// array-typed slices into document sets, both carrying the qualified path
// key.
//
// # Definition files
//
// [Load] and [Parse] read YAML definitions, typically from an embed.FS:
//
//	def, err := schema.Load(defsFS, "schemas/contacts.yaml")
//	// def.Collection, def.Key, def.Schema
package schema
