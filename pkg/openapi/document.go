package openapi

import (
	"errors"
	"fmt"
	"sort"
)

// Source identifies where an OpenAPI document originated.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile   SourceKind = "file"
	SourceKindFS     SourceKind = "fs"
	SourceKindInline SourceKind = "inline"
)

// Document wraps the raw OpenAPI payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("openapi: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("openapi: raw document is empty")
	}

	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone}, nil
}

// MustNewDocument panics if the document cannot be created.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the OpenAPI payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Operation is the part of an OpenAPI operation a bound form needs: the
// top-level properties of its request body.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string
	Fields      []Field
	// Body validates the complete request body, when one is declared.
	Body func(value any) error `json:"-"`
}

// NewOperation validates core fields and sorts the fields by name.
func NewOperation(id, method, path string, fields []Field) (Operation, error) {
	if id == "" {
		return Operation{}, errors.New("openapi: operation id is required")
	}
	if method == "" {
		return Operation{}, errors.New("openapi: operation method is required")
	}
	if path == "" {
		return Operation{}, errors.New("openapi: operation path is required")
	}
	sorted := append([]Field(nil), fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return Operation{ID: id, Method: method, Path: path, Fields: sorted}, nil
}

// Field returns the named request body property.
func (op Operation) Field(name string) (Field, bool) {
	for _, field := range op.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Field is one top-level request body property.
type Field struct {
	Name        string
	Type        string
	Format      string
	Required    bool
	Enum        []any
	ItemEnum    []any
	Description string
	Default     any
	// Check validates a value against the property schema. A nil Check
	// accepts everything.
	Check func(value any) error `json:"-"`
}

// DebugString summarises the field for logs.
func (f Field) DebugString() string {
	summary := fmt.Sprintf("%s type=%s", f.Name, f.Type)
	if f.Format != "" {
		summary += ",format=" + f.Format
	}
	if f.Required {
		summary += ",required"
	}
	if len(f.Enum) > 0 {
		summary += fmt.Sprintf(",enum=%d", len(f.Enum))
	}
	if len(f.ItemEnum) > 0 {
		summary += fmt.Sprintf(",items=%d", len(f.ItemEnum))
	}
	return summary
}
