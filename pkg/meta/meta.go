// Package meta holds the per-model form metadata the state container keeps
// next to each bound value: one FieldMeta per validated field plus the
// form-level entry stored under the "$form" key.
package meta

import (
	"sort"

	"github.com/goliatone/go-formbind/pkg/validity"
)

// FormEntry is the key of the form-level entry when metadata is flattened.
const FormEntry = "$form"

// FieldMeta is the validation state of a single field or of the whole form.
type FieldMeta struct {
	Valid        bool
	Validity     validity.Result
	Errors       validity.Result
	Pending      bool
	Submitted    bool
	SubmitFailed bool
}

// FormMeta is the metadata subtree for one model.
type FormMeta struct {
	Form   FieldMeta
	Fields map[string]FieldMeta
}

// Pristine is the metadata of a field nothing has validated yet.
func Pristine() FieldMeta {
	return FieldMeta{
		Valid:    true,
		Validity: validity.Bool(true),
		Errors:   validity.Bool(false),
	}
}

// New returns metadata for a freshly registered model: valid, no errors.
func New() FormMeta {
	return FormMeta{
		Form:   Pristine(),
		Fields: map[string]FieldMeta{},
	}
}

// Field returns the metadata for a field path; the empty path and FormEntry
// address the form-level entry. Unknown fields are reported valid.
func (f FormMeta) Field(path string) FieldMeta {
	if path == validity.FormKey || path == FormEntry {
		return f.Form
	}
	if field, ok := f.Fields[path]; ok {
		return field
	}
	return Pristine()
}

// FieldsValid reports whether every field, ignoring the form-level entry, is
// individually valid.
func (f FormMeta) FieldsValid() bool {
	for _, field := range f.Fields {
		if !field.Valid {
			return false
		}
	}
	return true
}

// Valid reports whether the form-level entry and every field are valid.
func (f FormMeta) Valid() bool {
	return f.Form.Valid && f.FieldsValid()
}

// Paths returns the field paths in sorted order.
func (f FormMeta) Paths() []string {
	paths := make([]string, 0, len(f.Fields))
	for path := range f.Fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Clone copies the metadata so writers never share maps with readers.
func (f FormMeta) Clone() FormMeta {
	out := FormMeta{Form: f.Form, Fields: make(map[string]FieldMeta, len(f.Fields))}
	for path, field := range f.Fields {
		out.Fields[path] = field
	}
	return out
}

// WithErrors applies a computed errors map: each entry's Errors is replaced,
// its Validity becomes the inverse and Valid is derived from the errors.
func (f FormMeta) WithErrors(computed validity.Computed) FormMeta {
	out := f.Clone()
	for path, errs := range computed {
		field := out.Field(path)
		field.Errors = errs
		field.Validity = errs.Invert()
		field.Valid = !errs.HasError()
		if path == validity.FormKey {
			out.Form = field
			continue
		}
		out.Fields[path] = field
	}
	return out
}
