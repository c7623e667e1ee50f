package prompt

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind/pkg/config"
	pkgopenapi "github.com/goliatone/go-formbind/pkg/openapi"
)

func TestFieldsFromDefinition(t *testing.T) {
	def := config.Definition{
		Validators: map[string]config.RuleSpec{
			"":                   {Rules: []string{"expr:value.ok"}},
			"email":              {Rules: []string{"required", "email"}},
			"password":           {Named: map[string]string{"long": "minLength:8"}},
			"terms":              {Rules: []string{"accepted"}},
			"plan":               {Rules: []string{"oneOf:free|pro"}},
			"age":                {Rules: []string{"min:18"}},
			"profile.first_name": {Rules: []string{"required"}},
		},
		Errors:  map[string]config.RuleSpec{"username": {Rules: []string{"expr:len(value) < 3"}}},
		Initial: map[string]any{"tags": []any{"a"}, "newsletter": true},
	}

	got := FieldsFromDefinition(def)
	want := []Field{
		{Path: "age", Label: "age", Kind: KindNumber},
		{Path: "email", Label: "email", Kind: KindText, Required: true},
		{Path: "newsletter", Label: "newsletter", Kind: KindBool},
		{Path: "password", Label: "password", Kind: KindSecret},
		{Path: "plan", Label: "plan", Kind: KindChoice, Options: []string{"free", "pro"}},
		{Path: "profile.first_name", Label: "first name", Kind: KindText, Required: true},
		{Path: "tags", Label: "tags", Kind: KindList},
		{Path: "terms", Label: "terms", Kind: KindBool},
		{Path: "username", Label: "username", Kind: KindText},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsFromOperation(t *testing.T) {
	op, err := pkgopenapi.NewOperation("createUser", "POST", "/users", []pkgopenapi.Field{
		{Name: "tags", Type: "array"},
		{Name: "age", Type: "integer", Required: true, Description: "Age in years"},
		{Name: "plan", Type: "string", Enum: []any{"free", "pro"}},
		{Name: "secret", Type: "string", Format: "password"},
		{Name: "score", Type: "number"},
		{Name: "active", Type: "boolean"},
		{Name: "roles", Type: "array", ItemEnum: []any{"admin", "viewer"}},
	})
	if err != nil {
		t.Fatalf("NewOperation returned error: %v", err)
	}

	got := FieldsFromOperation(op)
	want := []Field{
		{Path: "active", Label: "active", Kind: KindBool},
		{Path: "age", Label: "age", Help: "Age in years", Kind: KindInteger, Required: true},
		{Path: "plan", Label: "plan", Kind: KindChoice, Options: []string{"free", "pro"}},
		{Path: "roles", Label: "roles", Kind: KindMultiChoice, Options: []string{"admin", "viewer"}},
		{Path: "score", Label: "score", Kind: KindNumber},
		{Path: "secret", Label: "secret", Kind: KindSecret},
		{Path: "tags", Label: "tags", Kind: KindList},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldParse(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		raw     string
		want    any
		wantErr bool
	}{
		{name: "text keeps input", field: Field{Kind: KindText}, raw: " ann ", want: "ann"},
		{name: "number", field: Field{Kind: KindNumber}, raw: "2.5", want: 2.5},
		{name: "empty number clears", field: Field{Kind: KindNumber}, raw: "", want: nil},
		{name: "bad number", field: Field{Kind: KindNumber, Label: "age"}, raw: "x", wantErr: true},
		{name: "integer", field: Field{Kind: KindInteger}, raw: "42", want: 42},
		{name: "bad integer", field: Field{Kind: KindInteger}, raw: "4.2", wantErr: true},
		{name: "list", field: Field{Kind: KindList}, raw: "a, b,,c ", want: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.field.Parse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFieldDisplay(t *testing.T) {
	field := Field{}
	if got := field.Display([]any{"a", 1}); got != "a, 1" {
		t.Fatalf("unexpected list display %q", got)
	}
	if got := field.Display(nil); got != "" {
		t.Fatalf("expected empty display for nil, got %q", got)
	}
	if got := field.Display(3.5); got != "3.5" {
		t.Fatalf("unexpected number display %q", got)
	}
}

func TestFieldSelected(t *testing.T) {
	field := Field{Kind: KindMultiChoice, Options: []string{"admin", "editor", "viewer"}}

	if diff := cmp.Diff([]int{0, 2}, field.selected([]any{"viewer", "admin", "ghost"})); diff != "" {
		t.Fatalf("selected mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, field.selected([]string{"editor"})); diff != "" {
		t.Fatalf("selected mismatch (-want +got):\n%s", diff)
	}
	if got := field.selected(nil); len(got) != 0 {
		t.Fatalf("expected nothing selected for nil, got %v", got)
	}
}
