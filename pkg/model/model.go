package model

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/vellum/pkg/document"
	"github.com/dmitrymomot/vellum/pkg/store"
)

// Model binds a document type to a collection: its schema, its key field,
// and the store it persists through. It is the factory documents use to
// materialize nested entities, so a loaded document never holds a live
// store reference itself.
//
// A Model is immutable after construction and safe for concurrent use; the
// documents it produces are not.
type Model struct {
	schema  document.Caster
	store   store.Store
	keyFunc func() string
	log     *slog.Logger
	name    string
	key     string
	locking bool
}

// New creates a model for the named collection.
//
// Example:
//
//	contacts, err := model.New("contacts", fileStore,
//		model.WithSchema(contactSchema),
//		model.WithLocking(true),
//	)
func New(name string, s store.Store, opts ...Option) (*Model, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if s == nil {
		return nil, ErrNilStore
	}

	m := &Model{
		name:    name,
		key:     "id",
		store:   s,
		keyFunc: uuid.NewString,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Name returns the collection name.
func (m *Model) Name() string { return m.name }

// Key returns the key field name.
func (m *Model) Key() string { return m.key }

// Document materializes a document bound to this model's schema and
// factory. Part of the factory surface documents use for lazy nested
// entities; data may be nil.
func (m *Model) Document(data map[string]any, pathKey string) *document.Document {
	return document.New(data,
		document.WithSchema(m.schema),
		document.WithModel(m),
		document.WithFactory(m),
		document.WithPathKey(pathKey),
	)
}

// Set materializes an empty document set bound to this model's context.
func (m *Model) Set(pathKey string) *document.Set {
	return document.NewSet(nil, pathKey).Bind(m.schema, m, m)
}

// NewDocument creates a fresh unsaved document from raw data.
func (m *Model) NewDocument(data map[string]any) *document.Document {
	return m.Document(data, "")
}

// Get loads a document by key and reconciles the record as its baseline.
func (m *Model) Get(ctx context.Context, key string) (*document.Document, error) {
	rec, err := m.store.Get(ctx, m.name, key)
	if err != nil {
		return nil, err
	}
	return m.materialize(rec), nil
}

// Find loads every document matching the query, in store order. A nil
// query loads the whole collection.
func (m *Model) Find(ctx context.Context, q *store.Query) ([]*document.Document, error) {
	recs, err := store.Find(ctx, m.store, m.name, q)
	if err != nil {
		return nil, err
	}
	out := make([]*document.Document, len(recs))
	for i, rec := range recs {
		out[i] = m.materialize(rec)
	}
	return out, nil
}

// Save persists a document: insert when it was never saved, version-checked
// update otherwise. Accumulated increments flush through the store's
// Incrementer when it has one, so concurrent counters merge instead of
// overwriting each other. On success the document's pending state becomes
// its baseline.
func (m *Model) Save(ctx context.Context, doc *document.Document) error {
	if doc == nil {
		return ErrNilDocument
	}

	key := m.documentKey(doc)
	payload := m.plain(doc)

	if !doc.Exists() {
		if key == "" {
			key = m.keyFunc()
		}
		payload[m.key] = key

		rec, err := m.store.Insert(ctx, m.name, &store.Record{Key: key, Data: payload})
		if err != nil {
			return err
		}
		m.log.DebugContext(ctx, "document inserted", slog.String("collection", m.name), slog.String("key", key))

		doc.Sync(key, rec.Data)
		doc.SetVersion(rec.Version)
		return nil
	}

	increments := doc.Increments()
	inc, flushable := m.store.(store.Incrementer)
	if flushable && len(increments) > 0 {
		// The replace payload carries the store's current value for
		// incremented fields; the deltas apply atomically afterwards, so a
		// counter bumped by another writer is added to rather than
		// overwritten. A field with no stored value stays out of the payload
		// and starts from zero at the store.
		cur, err := m.store.Get(ctx, m.name, key)
		if err != nil {
			return err
		}
		for field := range increments {
			if v, ok := cur.Data[field]; ok {
				payload[field] = v
			} else {
				delete(payload, field)
			}
		}
	}

	rec := &store.Record{Key: key, Data: payload}
	if m.locking {
		rec.Version = doc.Version()
	}
	stored, err := m.store.Update(ctx, m.name, rec)
	if err != nil {
		return err
	}

	if flushable && len(increments) > 0 {
		for field, delta := range increments {
			if _, err := inc.Increment(ctx, m.name, key, field, delta); err != nil {
				return err
			}
		}
		// Increment bumped the stored version; reload for the authoritative
		// state.
		if stored, err = m.store.Get(ctx, m.name, key); err != nil {
			return err
		}
	}
	m.log.DebugContext(ctx, "document updated",
		slog.String("collection", m.name),
		slog.String("key", key),
		slog.Int64("version", stored.Version),
	)

	doc.Sync(key, stored.Data)
	doc.SetVersion(stored.Version)
	return nil
}

// Delete removes a document's record and marks it not persisted. The
// document keeps its in-memory state, so it can be saved again as a fresh
// record.
func (m *Model) Delete(ctx context.Context, doc *document.Document) error {
	if doc == nil {
		return ErrNilDocument
	}
	if !doc.Exists() {
		return ErrNotPersisted
	}

	key := m.documentKey(doc)
	if err := m.store.Delete(ctx, m.name, key); err != nil {
		return err
	}
	m.log.DebugContext(ctx, "document deleted", slog.String("collection", m.name), slog.String("key", key))

	doc.MarkExists(false)
	doc.SetVersion(0)
	return nil
}

// materialize wraps a record into a document and syncs the record data in
// as the authoritative baseline, so the whole nested tree comes out
// persisted and clean.
func (m *Model) materialize(rec *store.Record) *document.Document {
	doc := m.Document(rec.Data, "")
	doc.Sync(rec.Key, rec.Data)
	doc.SetVersion(rec.Version)
	return doc
}

// plain snapshots the document's pending state as a storable map. UUID
// values flatten to strings, so every backend codec round-trips them the
// same way.
func (m *Model) plain(doc *document.Document) map[string]any {
	return doc.Plain(document.WithHandler("uuid.UUID", func(v any) any {
		return v.(uuid.UUID).String()
	}))
}

// documentKey reads the document's key field as a string.
func (m *Model) documentKey(doc *document.Document) string {
	v, err := doc.Get(m.key)
	if err != nil || v == nil {
		return ""
	}
	switch c := v.(type) {
	case string:
		return c
	case fmt.Stringer:
		return c.String()
	default:
		return fmt.Sprint(c)
	}
}

var (
	_ document.Meta    = (*Model)(nil)
	_ document.Factory = (*Model)(nil)
)
