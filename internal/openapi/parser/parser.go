package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	pkgopenapi "github.com/goliatone/go-formbind/pkg/openapi"
)

// Parser implements pkgopenapi.Parser using kin-openapi.
type Parser struct {
	options pkgopenapi.ParserOptions
}

// Ensure the implementation satisfies the public interface.
var _ pkgopenapi.Parser = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options pkgopenapi.ParserOptions) pkgopenapi.Parser {
	return &Parser{options: options}
}

// Operations converts a Document into a map keyed by operationId. Operations
// without an id are keyed as "method:path".
func (p *Parser) Operations(ctx context.Context, doc pkgopenapi.Document) (map[string]pkgopenapi.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if p.options.ValidateDocument {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("openapi parser: document does not contain any paths")
	}

	operations := make(map[string]pkgopenapi.Operation)
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			op, err := collectOperation(method, path, operation)
			if err != nil {
				return nil, err
			}
			operations[op.ID] = op
		}
	}
	return operations, nil
}

func collectOperation(method, path string, operation *openapi3.Operation) (pkgopenapi.Operation, error) {
	opID := operation.OperationID
	if opID == "" {
		opID = strings.ToLower(method) + ":" + path
	}

	body := requestSchema(operation.RequestBody)
	op, err := pkgopenapi.NewOperation(opID, strings.ToUpper(method), path, fields(body))
	if err != nil {
		return pkgopenapi.Operation{}, fmt.Errorf("openapi parser: %w", err)
	}
	op.Summary = operation.Summary
	op.Description = operation.Description
	if body != nil {
		op.Body = func(value any) error { return body.VisitJSON(value) }
	}
	return op, nil
}

// requestSchema picks the JSON body schema, falling back to form encodings
// and then to any declared media type.
func requestSchema(requestBody *openapi3.RequestBodyRef) *openapi3.Schema {
	if requestBody == nil || requestBody.Value == nil {
		return nil
	}
	content := requestBody.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt := content.Get(mediaType); mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func fields(body *openapi3.Schema) []pkgopenapi.Field {
	if body == nil || len(body.Properties) == 0 {
		return nil
	}
	required := make(map[string]bool, len(body.Required))
	for _, name := range body.Required {
		required[name] = true
	}

	out := make([]pkgopenapi.Field, 0, len(body.Properties))
	for name, ref := range body.Properties {
		field := pkgopenapi.Field{Name: name, Required: required[name]}
		if ref != nil && ref.Value != nil {
			schema := ref.Value
			field.Type = schemaType(schema)
			field.Format = schema.Format
			field.Enum = append([]any(nil), schema.Enum...)
			if schema.Items != nil && schema.Items.Value != nil {
				field.ItemEnum = append([]any(nil), schema.Items.Value.Enum...)
			}
			field.Description = schema.Description
			field.Default = schema.Default
			field.Check = func(value any) error { return schema.VisitJSON(value) }
		}
		out = append(out, field)
	}
	return out
}

func schemaType(schema *openapi3.Schema) string {
	if schema.Type == nil {
		return ""
	}
	for _, typ := range schema.Type.Slice() {
		if typ != openapi3.TypeNull {
			return typ
		}
	}
	return ""
}
