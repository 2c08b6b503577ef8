package schema

import (
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

// Definition is a parsed schema definition file: the collection it maps to,
// the key field, and the field registry.
type Definition struct {
	Schema     *Schema
	Collection string
	Key        string
}

type fileDefinition struct {
	Collection string      `yaml:"collection"`
	Key        string      `yaml:"key"`
	Fields     []fileField `yaml:"fields"`
}

type fileField struct {
	Default  any    `yaml:"default"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Array    bool   `yaml:"array"`
	Relation bool   `yaml:"relation"`
}

// Parse builds a Definition from YAML bytes.
//
// Example definition:
//
//	collection: contacts
//	key: id
//	fields:
//	  - name: name
//	    type: string
//	  - name: employees
//	    type: document
//	    array: true
//	  - name: employees.email
//	    type: string
func Parse(data []byte) (*Definition, error) {
	var def fileDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDefinition, err)
	}
	if def.Collection == "" {
		return nil, fmt.Errorf("%w: missing collection", ErrInvalidDefinition)
	}
	if def.Key == "" {
		def.Key = "id"
	}

	fields := make([]Field, 0, len(def.Fields))
	for _, f := range def.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: field without a name", ErrInvalidDefinition)
		}
		t, err := ParseType(f.Type)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{
			Name:     f.Name,
			Type:     t,
			Array:    f.Array,
			Default:  f.Default,
			Relation: f.Relation,
		})
	}

	return &Definition{
		Collection: def.Collection,
		Key:        def.Key,
		Schema:     New(fields...),
	}, nil
}

// Load reads and parses a schema definition file from an fs.FS, so
// definitions can ship in an embed.FS next to the code that uses them.
func Load(fsys fs.FS, path string) (*Definition, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	return Parse(data)
}
