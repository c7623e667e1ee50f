package prompt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formbind/pkg/config"
	"github.com/goliatone/go-formbind/pkg/keypath"
	pkgopenapi "github.com/goliatone/go-formbind/pkg/openapi"
	"github.com/goliatone/go-formbind/pkg/validity"
)

// Kind selects how a field is prompted and how its answer is converted.
type Kind int

const (
	KindText Kind = iota
	KindSecret
	KindNumber
	KindInteger
	KindBool
	KindChoice
	KindList
	KindMultiChoice
)

func (k Kind) String() string {
	switch k {
	case KindSecret:
		return "secret"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBool:
		return "bool"
	case KindChoice:
		return "choice"
	case KindList:
		return "list"
	case KindMultiChoice:
		return "multi-choice"
	default:
		return "text"
	}
}

// Field is one prompt of a session.
type Field struct {
	Path     string
	Label    string
	Help     string
	Kind     Kind
	Options  []string
	Required bool
}

// FieldsFromDefinition derives prompts from the validated and initial paths
// of a definition. Kinds are inferred from rule names and initial values.
func FieldsFromDefinition(def config.Definition) []Field {
	paths := make(map[string]struct{})
	for path := range def.Validators {
		paths[path] = struct{}{}
	}
	for path := range def.Errors {
		paths[path] = struct{}{}
	}
	for path := range def.Initial {
		paths[path] = struct{}{}
	}
	delete(paths, validity.FormKey)

	out := make([]Field, 0, len(paths))
	for path := range paths {
		field := Field{Path: path, Label: label(path)}
		spec := def.Validators[path]
		for _, rule := range specRules(spec) {
			name, arg, _ := strings.Cut(rule, ":")
			switch name {
			case "required":
				field.Required = true
			case "accepted":
				field.Kind = KindBool
			case "oneOf":
				field.Kind = KindChoice
				field.Options = strings.Split(arg, "|")
			case "min", "max":
				if field.Kind == KindText {
					field.Kind = KindNumber
				}
			}
		}
		if field.Kind == KindText {
			field.Kind = kindOfValue(keypath.Get(def.Initial, path))
		}
		if field.Kind == KindText && strings.Contains(strings.ToLower(path), "password") {
			field.Kind = KindSecret
		}
		out = append(out, field)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// FieldsFromOperation derives prompts from the request body properties of
// an operation.
func FieldsFromOperation(op pkgopenapi.Operation) []Field {
	out := make([]Field, 0, len(op.Fields))
	for _, f := range op.Fields {
		field := Field{
			Path:     f.Name,
			Label:    label(f.Name),
			Help:     f.Description,
			Required: f.Required,
		}
		switch {
		case f.Type == "array" && len(f.ItemEnum) > 0:
			field.Kind = KindMultiChoice
			field.Options = optionStrings(f.ItemEnum)
		case len(f.Enum) > 0:
			field.Kind = KindChoice
			field.Options = optionStrings(f.Enum)
		case f.Type == "integer":
			field.Kind = KindInteger
		case f.Type == "number":
			field.Kind = KindNumber
		case f.Type == "boolean":
			field.Kind = KindBool
		case f.Type == "array":
			field.Kind = KindList
		case f.Format == "password":
			field.Kind = KindSecret
		}
		out = append(out, field)
	}
	return out
}

// Parse converts a typed answer into the value stored in the model. Empty
// numeric answers clear the field.
func (f Field) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case KindNumber:
		if raw == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", f.Label, raw)
		}
		return n, nil
	case KindInteger:
		if raw == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not an integer", f.Label, raw)
		}
		return n, nil
	case KindList:
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	default:
		return raw, nil
	}
}

// Display renders a current model value as a prompt default.
func (f Field) Display(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func optionStrings(values []any) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, fmt.Sprint(value))
	}
	return out
}

// selected returns the positions in options of the items of a list value.
func (f Field) selected(value any) []int {
	var items []string
	switch v := value.(type) {
	case []string:
		items = v
	case []any:
		for _, item := range v {
			items = append(items, fmt.Sprint(item))
		}
	case string:
		if v != "" {
			items = []string{v}
		}
	}
	return indicesOf(f.Options, items)
}

func specRules(spec config.RuleSpec) []string {
	if !spec.IsNamed() {
		return spec.Rules
	}
	out := make([]string, 0, len(spec.Named))
	for _, rule := range spec.Named {
		out = append(out, rule)
	}
	sort.Strings(out)
	return out
}

func kindOfValue(value any) Kind {
	switch value.(type) {
	case bool:
		return KindBool
	case int, int64, float64:
		return KindNumber
	case []any, []string:
		return KindList
	default:
		return KindText
	}
}

func label(path string) string {
	segments := keypath.Split(path)
	if len(segments) == 0 {
		return path
	}
	return strings.ReplaceAll(segments[len(segments)-1], "_", " ")
}
