package schema

import "fmt"

// Type enumerates the declared field types.
type Type int

const (
	// Any passes values through without coercion.
	Any Type = iota
	// String coerces scalars to string.
	String
	// Int coerces numeric scalars and digit strings to int64.
	Int
	// Float coerces numeric scalars and decimal strings to float64.
	Float
	// Bool coerces boolean strings to bool.
	Bool
	// Time coerces RFC 3339 strings to time.Time.
	Time
	// ID coerces canonical UUID strings to uuid.UUID.
	ID
	// Document wraps mapping values into nested documents.
	Document
)

// String returns the definition-file spelling of the type.
func (t Type) String() string {
	switch t {
	case Any:
		return "any"
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Time:
		return "time"
	case ID:
		return "id"
	case Document:
		return "document"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType maps a definition-file type name onto a Type.
func ParseType(name string) (Type, error) {
	switch name {
	case "", "any":
		return Any, nil
	case "string":
		return String, nil
	case "int", "integer":
		return Int, nil
	case "float", "number":
		return Float, nil
	case "bool", "boolean":
		return Bool, nil
	case "time", "datetime":
		return Time, nil
	case "id", "uuid":
		return ID, nil
	case "document", "object":
		return Document, nil
	default:
		return Any, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
}

// Field declares the shape of a single named field. Names are dotted paths:
// "employees.email" declares a field of the sub-documents living under the
// "employees" field, which is how cast context path keys qualify lookups.
type Field struct {
	// Default is lazily assigned on first read of an unset field.
	Default any
	// Name is the dotted-path field name.
	Name string
	// Type selects the coercion applied on write.
	Type Type
	// Array marks the field as an ordered collection.
	Array bool
	// Relation marks the field as an embedded relation materialized through
	// the relationship API, not readable before that.
	Relation bool
}
