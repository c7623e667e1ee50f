package validity_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind/pkg/validity"
)

func TestMergeNamedErrorsWin(t *testing.T) {
	base := validity.NamedResult(map[string]bool{"required": true, "email": false})
	errs := validity.NamedResult(map[string]bool{"email": true, "taken": false})

	got := validity.Merge(base, errs)
	want := map[string]bool{"required": true, "email": true, "taken": false}

	if diff := cmp.Diff(want, got.Named); diff != "" {
		t.Fatalf("merged result mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeScalarErrorsReplaceBase(t *testing.T) {
	base := validity.NamedResult(map[string]bool{"required": true})
	got := validity.Merge(base, validity.Bool(false))
	if got.IsNamed() || got.Value {
		t.Fatalf("expected scalar false, got %s", got)
	}

	got = validity.Merge(validity.Bool(true), validity.NamedResult(map[string]bool{"taken": false}))
	if !got.IsNamed() || got.Named["taken"] {
		t.Fatalf("expected named errors to replace scalar base, got %s", got)
	}
}

func TestResultInvertAndAny(t *testing.T) {
	valid := validity.NamedResult(map[string]bool{"required": true, "email": false})
	errs := valid.Invert()

	if !errs.HasError() {
		t.Fatalf("expected inverted result to carry an error")
	}
	if errs.Named["required"] || !errs.Named["email"] {
		t.Fatalf("unexpected inversion: %s", errs)
	}
	if valid.All() {
		t.Fatalf("expected validity with a failing check to be invalid")
	}
	if !validity.NamedResult(nil).All() {
		t.Fatalf("expected empty named result to be valid")
	}
}

func TestResultEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b validity.Result
		want bool
	}{
		{"scalars", validity.Bool(true), validity.Bool(true), true},
		{"scalar mismatch", validity.Bool(true), validity.Bool(false), false},
		{"shape mismatch", validity.Bool(false), validity.NamedResult(map[string]bool{}), false},
		{"named", validity.NamedResult(map[string]bool{"a": true}), validity.NamedResult(map[string]bool{"a": true}), true},
		{"named key mismatch", validity.NamedResult(map[string]bool{"a": true}), validity.NamedResult(map[string]bool{"b": true}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.want {
				t.Fatalf("Equal(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestErrorValidatorsPrecedence(t *testing.T) {
	validators := validity.Map{
		"email": validity.Checks{
			"required": func(v any) bool { return v != "" },
			"format":   func(v any) bool { return false },
		},
		"name": validity.Func(func(v any) bool { return v == "ok" }),
	}
	errs := validity.Map{
		"email": validity.Checks{
			"format": func(v any) bool { return false },
		},
		"nick": validity.Func(func(v any) bool { return true }),
	}

	final := validity.ErrorValidators(validators, errs)
	if diff := cmp.Diff([]string{"email", "name", "nick"}, final.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	email := final["email"].Validate("x")
	if diff := cmp.Diff(map[string]bool{"required": false, "format": false}, email.Named); diff != "" {
		t.Fatalf("email errors mismatch (-want +got):\n%s", diff)
	}
	if got := final["name"].Validate("nope"); !got.HasError() {
		t.Fatalf("expected inverted name validator to report an error")
	}
	if got := final["nick"].Validate(nil); !got.HasError() {
		t.Fatalf("expected errors-only entry to pass through")
	}
}

func TestErrorValidatorsWithoutValidators(t *testing.T) {
	errs := validity.Map{"a": validity.Func(func(any) bool { return false })}
	if got := validity.ErrorValidators(nil, errs); len(got) != 1 {
		t.Fatalf("expected errors map to be returned as is, got %d entries", len(got))
	}
}

func TestComputedValid(t *testing.T) {
	computed := validity.Computed{
		"":      validity.Bool(false),
		"email": validity.NamedResult(map[string]bool{"required": false}),
	}
	if !computed.Valid() {
		t.Fatalf("expected computed errors to be valid")
	}
	computed["email"] = validity.NamedResult(map[string]bool{"required": true})
	if computed.Valid() || computed.FieldsValid() {
		t.Fatalf("expected computed errors to be invalid")
	}
	if !computed.Equal(computed.Clone()) {
		t.Fatalf("expected clone to be equal")
	}
}
