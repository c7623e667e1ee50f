package engine_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind/pkg/engine"
	"github.com/goliatone/go-formbind/pkg/meta"
	"github.com/goliatone/go-formbind/pkg/validity"
)

func isEmail(v any) bool {
	s, _ := v.(string)
	return strings.Contains(s, "@")
}

func TestComputeEmptyMapsDefaultsFormValid(t *testing.T) {
	pass := engine.Compute(engine.Input{
		Value:   map[string]any{"email": "x"},
		Form:    meta.New(),
		Initial: true,
	})

	want := validity.Computed{"": validity.Bool(false)}
	if diff := cmp.Diff(want, pass.Errors); diff != "" {
		t.Fatalf("computed errors mismatch (-want +got):\n%s", diff)
	}
	if pass.Changed {
		t.Fatalf("expected no change for an already valid form")
	}
}

func TestComputeInvalidFieldMarksFormInvalid(t *testing.T) {
	validators := validity.Map{"email": validity.Func(isEmail)}

	pass := engine.Compute(engine.Input{
		Value:      map[string]any{"email": "bad"},
		Validators: validators,
		Form:       meta.New(),
		Initial:    true,
	})

	want := validity.Computed{
		"email": validity.Bool(true),
		"":      validity.Bool(true),
	}
	if diff := cmp.Diff(want, pass.Errors); diff != "" {
		t.Fatalf("computed errors mismatch (-want +got):\n%s", diff)
	}
	if !pass.Changed {
		t.Fatalf("expected the first invalid pass to report a change")
	}
}

func TestComputeIdempotentOnUnchangedInput(t *testing.T) {
	validators := validity.Map{
		"email": validity.Func(isEmail),
		"name": validity.Checks{
			"required": func(v any) bool { return v != "" && v != nil },
		},
	}
	value := map[string]any{"email": "bad", "name": ""}

	first := engine.Compute(engine.Input{
		Value:      value,
		Validators: validators,
		Form:       meta.New(),
		Initial:    true,
	})
	form := meta.New().WithErrors(first.Errors)

	calls := 0
	counting := validity.Map{
		"email": validity.Func(func(v any) bool { calls++; return isEmail(v) }),
		"name":  validators["name"],
	}
	second := engine.Compute(engine.Input{
		Value:             value,
		Previous:          value,
		Validators:        counting,
		PrevValidatorKeys: validators.Keys(),
		Form:              form,
	})

	if second.Changed {
		t.Fatalf("expected unchanged input to report no change")
	}
	if calls != 0 {
		t.Fatalf("expected validators not to run, ran %d times", calls)
	}
	if diff := cmp.Diff(first.Errors, second.Errors); diff != "" {
		t.Fatalf("second pass output differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"email", "name"}, second.Skipped); diff != "" {
		t.Fatalf("skipped fields mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeKeySetChangeForcesRecompute(t *testing.T) {
	value := map[string]any{"email": "bad"}
	calls := 0
	validators := validity.Map{
		"email": validity.Func(func(v any) bool { calls++; return isEmail(v) }),
	}

	engine.Compute(engine.Input{
		Value:             value,
		Previous:          value,
		Validators:        validators,
		PrevValidatorKeys: []string{"email", "name"},
		Form:              meta.New(),
	})
	if calls != 1 {
		t.Fatalf("expected validator to run after key set change, ran %d times", calls)
	}
}

func TestComputeRecomputesChangedFieldOnly(t *testing.T) {
	prev := map[string]any{"email": "bad", "name": "ann"}
	next := map[string]any{"email": "a@b.com", "name": "ann"}
	nameCalls := 0
	validators := validity.Map{
		"email": validity.Func(isEmail),
		"name":  validity.Func(func(v any) bool { nameCalls++; return v != "" }),
	}
	form := meta.New().WithErrors(validity.Computed{
		"email": validity.Bool(true),
		"name":  validity.Bool(false),
		"":      validity.Bool(true),
	})

	pass := engine.Compute(engine.Input{
		Value:             next,
		Previous:          prev,
		Validators:        validators,
		PrevValidatorKeys: validators.Keys(),
		Form:              form,
	})

	if nameCalls != 0 {
		t.Fatalf("expected unchanged name field to be skipped")
	}
	want := validity.Computed{
		"email": validity.Bool(false),
		"name":  validity.Bool(false),
		"":      validity.Bool(false),
	}
	if diff := cmp.Diff(want, pass.Errors); diff != "" {
		t.Fatalf("computed errors mismatch (-want +got):\n%s", diff)
	}
	if !pass.Changed {
		t.Fatalf("expected change after fixing email")
	}
}

func TestComputeErrorsMapTakesPrecedence(t *testing.T) {
	validators := validity.Map{
		"password": validity.Checks{
			"required": func(v any) bool { return v != "" },
			"strong":   func(v any) bool { return false },
		},
	}
	errs := validity.Map{
		"password": validity.Checks{
			"strong": func(v any) bool { return false },
			"leaked": func(v any) bool { return v == "hunter2" },
		},
	}

	pass := engine.Compute(engine.Input{
		Value:      map[string]any{"password": "hunter2"},
		Validators: validators,
		Errors:     errs,
		Form:       meta.New(),
		Initial:    true,
	})

	want := map[string]bool{"required": false, "strong": false, "leaked": true}
	if diff := cmp.Diff(want, pass.Errors["password"].Named); diff != "" {
		t.Fatalf("password errors mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeFormLevelValidator(t *testing.T) {
	validators := validity.Map{
		"": validity.Func(func(v any) bool {
			m, _ := v.(map[string]any)
			return m["password"] == m["confirm"]
		}),
	}

	pass := engine.Compute(engine.Input{
		Value:      map[string]any{"password": "a", "confirm": "b"},
		Validators: validators,
		Form:       meta.New(),
		Initial:    true,
	})
	if !pass.Errors[""].HasError() {
		t.Fatalf("expected form-level validator to receive the whole model")
	}
}

func TestComputeReconcilesStaleAsyncInvalidity(t *testing.T) {
	form := meta.New()
	form.Form.Valid = false
	form.Fields["email"] = meta.Pristine()

	pass := engine.Compute(engine.Input{
		Value:    map[string]any{"email": "new"},
		Previous: map[string]any{"email": "old"},
		Form:     form,
	})
	if !pass.Reconcile {
		t.Fatalf("expected reconcile for stale form invalidity")
	}
	if pass.Errors != nil || pass.Changed {
		t.Fatalf("expected no per-field computation, got %+v", pass)
	}
}

func TestComputeNoReconcileWhenFieldInvalid(t *testing.T) {
	form := meta.New().WithErrors(validity.Computed{"email": validity.Bool(true), "": validity.Bool(true)})

	pass := engine.Compute(engine.Input{
		Value:    map[string]any{"email": "new"},
		Previous: map[string]any{"email": "old"},
		Form:     form,
	})
	if pass.Reconcile {
		t.Fatalf("expected no reconcile while a field is invalid")
	}
}

func TestComputePropagatesValidatorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected validator panic to propagate")
		}
	}()
	engine.Compute(engine.Input{
		Value: map[string]any{},
		Validators: validity.Map{
			"x": validity.Func(func(any) bool { panic("boom") }),
		},
		Form:    meta.New(),
		Initial: true,
	})
}
