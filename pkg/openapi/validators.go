package openapi

import (
	"encoding/json"

	"github.com/goliatone/go-formbind/pkg/rules"
	"github.com/goliatone/go-formbind/pkg/validity"
)

// Check names used in the named results of derived validators.
const (
	CheckSchema   = "schema"
	CheckRequired = "required"
)

// Validators derives a validator map from the request body of op. Every
// property gets a named result with a "schema" check, plus "required" when
// the property is listed as required. Missing optional values pass the schema
// check. When the operation validates the whole body, it is registered under
// the form-level key.
func Validators(op Operation) validity.Map {
	out := make(validity.Map, len(op.Fields)+1)
	for _, field := range op.Fields {
		checks := validity.Checks{CheckSchema: schemaCheck(field.Check)}
		if field.Required {
			checks[CheckRequired] = rules.Required
		}
		out[field.Name] = checks
	}
	if op.Body != nil {
		body := op.Body
		out[validity.FormKey] = validity.Func(func(value any) bool {
			return body(Normalize(value)) == nil
		})
	}
	return out
}

// Initial builds a model value from the property defaults.
func Initial(op Operation) map[string]any {
	out := make(map[string]any, len(op.Fields))
	for _, field := range op.Fields {
		if field.Default != nil {
			out[field.Name] = field.Default
		}
	}
	return out
}

func schemaCheck(check func(any) error) func(any) bool {
	return func(value any) bool {
		if value == nil || check == nil {
			return true
		}
		return check(Normalize(value)) == nil
	}
}

// Normalize converts a Go value into its JSON shape (float64 numbers,
// map[string]any objects, []any arrays) so schema checks see what a JSON
// request body would carry. Values that cannot be encoded are returned
// unchanged.
func Normalize(value any) any {
	switch value.(type) {
	case nil, string, bool, float64:
		return value
	}
	data, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return value
	}
	return out
}
