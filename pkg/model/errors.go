package model

import "errors"

var (
	// ErrEmptyName is returned when a model is built without a collection name.
	ErrEmptyName = errors.New("model: empty model name")

	// ErrNilStore is returned when a model is built without a backing store.
	ErrNilStore = errors.New("model: nil store")

	// ErrNilDocument is returned when a lifecycle operation receives a nil
	// document.
	ErrNilDocument = errors.New("model: nil document")

	// ErrNotPersisted is returned when deleting a document that was never
	// saved.
	ErrNotPersisted = errors.New("model: document not persisted")
)
