// Package engine recomputes field validity for a bound model. Compute is the
// incremental step run on every relevant change: it reuses stored results
// for fields whose inputs did not move, reruns validators for the rest,
// merges validity with explicit errors and reports whether anything changed
// enough to be worth dispatching.
package engine

import (
	"github.com/goliatone/go-formbind/pkg/detect"
	"github.com/goliatone/go-formbind/pkg/keypath"
	"github.com/goliatone/go-formbind/pkg/meta"
	"github.com/goliatone/go-formbind/pkg/validity"
)

// Input is everything a pass needs. Form is the metadata as currently held
// by the state container; it provides the previous results.
type Input struct {
	Value    any
	Previous any

	Validators validity.Map
	Errors     validity.Map

	// Key sets of the maps used by the previous pass. A change in either
	// forces every field to recompute.
	PrevValidatorKeys []string
	PrevErrorKeys     []string

	Form    meta.FormMeta
	Initial bool

	// Lookup resolves a field path inside Value. Defaults to keypath.Get.
	Lookup func(value any, path string) any
	// Same decides whether a sub-value is unchanged. Defaults to
	// detect.Identical.
	Same detect.Equality
	// Field reads a stored field entry from Form. Defaults to
	// meta.FormMeta.Field.
	Field func(form meta.FormMeta, path string) meta.FieldMeta
}

// Pass is the outcome of Compute.
type Pass struct {
	Errors  validity.Computed
	Changed bool
	// Reconcile is set when the form is marked invalid only by a stale
	// asynchronous result; the caller should mark the form valid and
	// nothing else was computed.
	Reconcile bool
	// Skipped lists the fields whose stored results were reused.
	Skipped []string
}

// Compute runs one validation pass.
func Compute(in Input) Pass {
	lookup := in.Lookup
	if lookup == nil {
		lookup = keypath.Get
	}
	same := in.Same
	if same == nil {
		same = detect.Identical
	}
	field := in.Field
	if field == nil {
		field = func(form meta.FormMeta, path string) meta.FieldMeta { return form.Field(path) }
	}

	if len(in.Validators) == 0 && len(in.Errors) == 0 && !same(in.Value, in.Previous) &&
		!in.Form.Form.Valid && in.Form.FieldsValid() {
		return Pass{Reconcile: true}
	}

	keysChanged := !validity.SameKeys(in.Validators.Keys(), in.PrevValidatorKeys) ||
		!validity.SameKeys(in.Errors.Keys(), in.PrevErrorKeys)

	var (
		changed bool
		skipped []string
	)

	unchanged := func(path string) bool {
		if in.Initial || keysChanged {
			return false
		}
		return same(subValue(lookup, in.Value, path), subValue(lookup, in.Previous, path))
	}

	fieldsValidity := make(map[string]validity.Result, len(in.Validators))
	for _, path := range in.Validators.Keys() {
		validator := in.Validators[path]
		if validator == nil {
			continue
		}
		stored := field(in.Form, path).Validity
		if unchanged(path) {
			fieldsValidity[path] = stored
			skipped = append(skipped, path)
			continue
		}
		fresh := validator.Validate(subValue(lookup, in.Value, path))
		if !fresh.Equal(stored) {
			changed = true
		}
		fieldsValidity[path] = fresh
	}

	fieldsErrors := make(map[string]validity.Result, len(in.Errors))
	for _, path := range in.Errors.Keys() {
		validator := in.Errors[path]
		if validator == nil {
			continue
		}
		stored := field(in.Form, path).Errors
		if unchanged(path) {
			fieldsErrors[path] = stored
			if !in.Validators.Has(path) {
				skipped = append(skipped, path)
			}
			continue
		}
		fresh := validator.Validate(subValue(lookup, in.Value, path))
		if !changed && !fresh.Equal(stored) {
			changed = true
		}
		fieldsErrors[path] = fresh
	}

	computed := make(validity.Computed, len(fieldsValidity)+len(fieldsErrors)+1)
	for path, result := range fieldsValidity {
		computed[path] = result.Invert()
	}
	for path, result := range fieldsErrors {
		if base, ok := computed[path]; ok {
			computed[path] = validity.Merge(base, result)
			continue
		}
		computed[path] = result
	}

	_, formValidator := fieldsValidity[validity.FormKey]
	_, formErrors := fieldsErrors[validity.FormKey]
	if !formValidator && !formErrors {
		aggregate := !computed.FieldsValid()
		computed[validity.FormKey] = validity.Bool(aggregate)
		if field(in.Form, validity.FormKey).Valid == aggregate {
			changed = true
		}
	}

	return Pass{
		Errors:  computed,
		Changed: changed,
		Skipped: skipped,
	}
}

func subValue(lookup func(any, string) any, value any, path string) any {
	if path == validity.FormKey {
		return value
	}
	return lookup(value, path)
}
