package openapi_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind/internal/openapi/parser"
	"github.com/goliatone/go-formbind/pkg/openapi"
	"github.com/goliatone/go-formbind/pkg/validity"
)

func createUser(t *testing.T) openapi.Operation {
	t.Helper()
	data, err := os.ReadFile("testdata/signup.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	doc := openapi.MustNewDocument(openapi.SourceFromFile("testdata/signup.yaml"), data)
	ops, err := parser.New(openapi.NewParserOptions()).Operations(context.Background(), doc)
	if err != nil {
		t.Fatalf("Operations returned error: %v", err)
	}
	op, ok := ops["createUser"]
	if !ok {
		t.Fatalf("createUser not found")
	}
	return op
}

func TestValidatorsFromRequestBody(t *testing.T) {
	v := openapi.Validators(createUser(t))

	if diff := cmp.Diff([]string{"", "age", "email", "plan", "tags"}, v.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	cases := []struct {
		name  string
		field string
		value any
		want  validity.Result
	}{
		{"below minimum", "age", 17, validity.NamedResult(map[string]bool{"schema": false, "required": true})},
		{"valid integer", "age", 21, validity.NamedResult(map[string]bool{"schema": true, "required": true})},
		{"wrong type", "age", "old", validity.NamedResult(map[string]bool{"schema": false, "required": true})},
		{"missing required", "age", nil, validity.NamedResult(map[string]bool{"schema": true, "required": false})},
		{"enum miss", "plan", "gold", validity.NamedResult(map[string]bool{"schema": false})},
		{"enum hit", "plan", "pro", validity.NamedResult(map[string]bool{"schema": true})},
		{"optional missing", "plan", nil, validity.NamedResult(map[string]bool{"schema": true})},
		{"too many items", "tags", []string{"a", "b", "c"}, validity.NamedResult(map[string]bool{"schema": false})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, v[tc.field].Validate(tc.value)); diff != "" {
				t.Fatalf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}

	body := v[validity.FormKey]
	if !body.Validate(map[string]any{"email": "a@b.com", "age": 30}).Value {
		t.Fatalf("expected complete body to pass")
	}
	if body.Validate(map[string]any{"email": "a@b.com"}).Value {
		t.Fatalf("expected body without a required property to fail")
	}
}

func TestInitialUsesDefaults(t *testing.T) {
	got := openapi.Initial(createUser(t))
	if diff := cmp.Diff(map[string]any{"plan": "free"}, got); diff != "" {
		t.Fatalf("initial mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize(t *testing.T) {
	type payload struct {
		Count int      `json:"count"`
		Tags  []string `json:"tags"`
	}
	got := openapi.Normalize(payload{Count: 2, Tags: []string{"x"}})
	want := map[string]any{"count": float64(2), "tags": []any{"x"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalize mismatch (-want +got):\n%s", diff)
	}
	if openapi.Normalize("s") != "s" {
		t.Fatalf("strings should pass through")
	}
}
