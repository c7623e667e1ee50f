package formbind

import (
	"context"
	"fmt"

	internalLoader "github.com/goliatone/go-formbind/internal/openapi/loader"
	internalParser "github.com/goliatone/go-formbind/internal/openapi/parser"
	pkgopenapi "github.com/goliatone/go-formbind/pkg/openapi"
)

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...pkgopenapi.LoaderOption) pkgopenapi.Loader {
	cfg := pkgopenapi.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}

// NewParser constructs a parser backed by the internal implementation.
func NewParser(options ...pkgopenapi.ParserOption) pkgopenapi.Parser {
	cfg := pkgopenapi.NewParserOptions(options...)
	return internalParser.New(cfg)
}

// LoadOperation loads a document and returns one of its operations.
func LoadOperation(ctx context.Context, src pkgopenapi.Source, operationID string, options ...pkgopenapi.LoaderOption) (pkgopenapi.Operation, error) {
	doc, err := NewLoader(options...).Load(ctx, src)
	if err != nil {
		return pkgopenapi.Operation{}, err
	}
	return OperationFromDocument(ctx, doc, operationID)
}

// OperationFromDocument parses doc and returns one of its operations.
func OperationFromDocument(ctx context.Context, doc pkgopenapi.Document, operationID string) (pkgopenapi.Operation, error) {
	ops, err := NewParser().Operations(ctx, doc)
	if err != nil {
		return pkgopenapi.Operation{}, err
	}
	op, ok := ops[operationID]
	if !ok {
		return pkgopenapi.Operation{}, fmt.Errorf("formbind: operation %q not found in %s", operationID, doc.Location())
	}
	return op, nil
}
