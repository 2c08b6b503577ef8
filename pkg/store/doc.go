// Package store provides the persistence layer for documents: a small
// record-oriented Store interface and interchangeable backends behind it.
//
// A Record is a flat snapshot of a document (key, field map, optimistic-lock
// version, timestamps). The document layer owns all nesting and casting;
// stores only move plain maps in and out.
//
// # Backends
//
//   - Memory: mutex-guarded in-process store for tests and tooling.
//   - File: a single JSON file with cross-process flock locking and atomic
//     replace writes.
//   - Bolt: a bbolt database, one bucket per collection, msgpack-encoded
//     records.
//   - Postgres: a JSONB documents table over a pgx pool, with embedded
//     goose migrations applied on connect.
//   - Redis: JSON values under {prefix}:{collection}:{key} with WATCH-based
//     optimistic updates.
//   - Dynamo: a single DynamoDB table keyed (collection, key), with
//     conditional expressions carrying the version checks.
//
// # Usage
//
//	s, err := store.NewFile("/var/lib/app/data.json")
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	rec, err := s.Insert(ctx, "contacts", &store.Record{
//		Key:  "larry",
//		Data: map[string]any{"name": "Larry", "visits": 1},
//	})
//
// # Optimistic locking
//
// Update with a non-zero Version only succeeds when the stored version still
// matches; a lost race returns ErrVersionMismatch. Version zero means
// unconditional replace.
//
// # Optional capabilities
//
// Backends that can bump a numeric field atomically implement Incrementer,
// which the model layer uses to flush accumulated document increments
// without a read-modify-write cycle. Network backends implement Pinger for
// health probes; Healthcheck adapts any store to a CheckFunc.
//
// # Queries
//
// Query compiles an expr-lang expression and evaluates it per record; Find
// filters a whole collection. Copy migrates collections between any two
// backends with one goroutine per collection.
//
// All backends are safe for concurrent use.
package store
