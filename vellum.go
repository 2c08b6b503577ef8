package vellum

import (
	"github.com/dmitrymomot/vellum/pkg/document"
	"github.com/dmitrymomot/vellum/pkg/model"
	"github.com/dmitrymomot/vellum/pkg/schema"
	"github.com/dmitrymomot/vellum/pkg/store"
)

// Type aliases - public API
type (
	// Document is a mutable, hierarchical record of named fields.
	Document = document.Document

	// Set is an ordered collection of documents under a single field.
	Set = document.Set

	// Export is the persistence-facing snapshot of a document's state.
	Export = document.Export

	// Schema declares field types, defaults, and nested shapes.
	Schema = schema.Schema

	// Field is a single schema field declaration.
	Field = schema.Field

	// Definition is a schema plus its collection binding, as loaded from YAML.
	Definition = schema.Definition

	// Model binds a document type to a collection and a store.
	Model = model.Model

	// Store is the persistence surface documents are saved through.
	Store = store.Store

	// Record is a persisted document snapshot.
	Record = store.Record

	// Query is a compiled filter expression over records.
	Query = store.Query
)

// Document construction.
var (
	// New creates a document from raw data.
	New = document.New

	// NewSet creates an ordered document set.
	NewSet = document.NewSet
)

// Schema construction.
var (
	// NewSchema builds a schema from field declarations.
	NewSchema = schema.New

	// ParseSchema parses a YAML schema definition.
	ParseSchema = schema.Parse

	// LoadSchema reads a YAML schema definition from a filesystem.
	LoadSchema = schema.Load
)

// Model construction.
var NewModel = model.New

// Store backends and helpers.
var (
	// NewMemory creates an in-process store.
	NewMemory = store.NewMemory

	// NewFile opens a JSON file store.
	NewFile = store.NewFile

	// OpenBolt opens a bbolt store.
	OpenBolt = store.OpenBolt

	// NewPostgres connects a JSONB-backed postgres store.
	NewPostgres = store.NewPostgres

	// NewRedis connects a redis store.
	NewRedis = store.NewRedis

	// OpenDynamo connects a DynamoDB store.
	OpenDynamo = store.OpenDynamo

	// NewQuery compiles a filter expression.
	NewQuery = store.NewQuery

	// Find filters a collection with a query.
	Find = store.Find

	// Copy migrates collections between two backends.
	Copy = store.Copy
)
