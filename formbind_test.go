package formbind_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind"
	"github.com/goliatone/go-formbind/pkg/config"
	pkgopenapi "github.com/goliatone/go-formbind/pkg/openapi"
	"github.com/goliatone/go-formbind/pkg/store"
	"github.com/goliatone/go-formbind/pkg/validity"
)

func TestMemoryFormEndToEnd(t *testing.T) {
	var submitted []any
	f, err := formbind.NewMemoryForm(formbind.Props{Config: formbind.Config{
		Model: "user",
		Validators: formbind.ValidatorMap{
			"email": validity.Func(func(v any) bool {
				s, _ := v.(string)
				return strings.Contains(s, "@")
			}),
		},
		OnSubmit: func(v any) { submitted = append(submitted, v) },
	}}, map[string]any{"email": "bad"})
	if err != nil {
		t.Fatalf("NewMemoryForm returned error: %v", err)
	}

	if err := f.Mount(); err != nil {
		t.Fatalf("Mount returned error: %v", err)
	}
	if f.Meta().Valid() {
		t.Fatalf("expected invalid form after mount")
	}
	if _, err := f.Submit(); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if len(submitted) != 0 || !f.Meta().Form.SubmitFailed {
		t.Fatalf("expected rejected submit")
	}

	if _, err := f.Change("email", "a@b.com"); err != nil {
		t.Fatalf("Change returned error: %v", err)
	}
	if _, err := f.Submit(); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if diff := cmp.Diff([]any{map[string]any{"email": "a@b.com"}}, submitted); diff != "" {
		t.Fatalf("submitted mismatch (-want +got):\n%s", diff)
	}

	if err := f.Reset(); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if f.Meta().Form.Submitted {
		t.Fatalf("expected reset to clear submitted")
	}
}

func TestNewMemoryFormRequiresModel(t *testing.T) {
	if _, err := formbind.NewMemoryForm(formbind.Props{}, nil); err == nil {
		t.Fatalf("expected missing model to fail")
	}
}

func TestRelativeModelResolvesAgainstParent(t *testing.T) {
	f, err := formbind.NewMemoryForm(
		formbind.Props{Config: formbind.Config{Model: ".profile"}},
		map[string]any{"name": "ann"},
		formbind.WithStoreOptions(store.WithParent("forms")),
	)
	if err != nil {
		t.Fatalf("NewMemoryForm returned error: %v", err)
	}
	if f.Path() != "forms.profile" {
		t.Fatalf("expected resolved path, got %q", f.Path())
	}
	if diff := cmp.Diff(map[string]any{"name": "ann"}, f.Value()); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestFromDefinition(t *testing.T) {
	defs, err := config.LoadYAML([]byte(`
forms:
  - name: login
    model: login
    validators:
      user: required
      pass: "required | minLength:4"
    initial:
      user: ""
      pass: ""
`), "login.yaml")
	if err != nil {
		t.Fatalf("LoadYAML returned error: %v", err)
	}

	var got any
	f, err := formbind.FromDefinition(defs[0], func(v any) { got = v })
	if err != nil {
		t.Fatalf("FromDefinition returned error: %v", err)
	}
	if err := f.Mount(); err != nil {
		t.Fatalf("Mount returned error: %v", err)
	}
	if f.Meta().Field("pass").Valid {
		t.Fatalf("expected empty password to be invalid")
	}

	if _, err := f.Change("user", "ann"); err != nil {
		t.Fatalf("Change returned error: %v", err)
	}
	if _, err := f.Change("pass", "abcd"); err != nil {
		t.Fatalf("Change returned error: %v", err)
	}
	if _, err := f.Submit(); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"user": "ann", "pass": "abcd"}, got); diff != "" {
		t.Fatalf("submitted mismatch (-want +got):\n%s", diff)
	}
}

func TestFromOperation(t *testing.T) {
	op, err := formbind.LoadOperation(context.Background(), pkgopenapi.SourceFromFile("pkg/openapi/testdata/signup.yaml"), "createUser")
	if err != nil {
		t.Fatalf("LoadOperation returned error: %v", err)
	}

	f, err := formbind.FromOperation(op, "signup", nil)
	if err != nil {
		t.Fatalf("FromOperation returned error: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"plan": "free"}, f.Value()); diff != "" {
		t.Fatalf("initial value mismatch (-want +got):\n%s", diff)
	}
	if err := f.Mount(); err != nil {
		t.Fatalf("Mount returned error: %v", err)
	}
	age := f.Meta().Field("age")
	if age.Valid || !age.Errors.Named["required"] {
		t.Fatalf("expected missing age to fail the required check, got %+v", age)
	}

	if _, err := f.Change("age", 30); err != nil {
		t.Fatalf("Change returned error: %v", err)
	}
	if _, err := f.Change("email", "a@b.com"); err != nil {
		t.Fatalf("Change returned error: %v", err)
	}
	if !f.Meta().Valid() {
		t.Fatalf("expected valid form, got %+v", f.Meta())
	}

	if _, err := formbind.LoadOperation(context.Background(), pkgopenapi.SourceFromFile("pkg/openapi/testdata/signup.yaml"), "missing"); err == nil {
		t.Fatalf("expected unknown operation to fail")
	}
}
