package openapi

import "context"

// Parser extracts operations, with their request body fields, from a
// document.
type Parser interface {
	Operations(ctx context.Context, doc Document) (map[string]Operation, error)
}

// ParserOptions toggles document handling.
type ParserOptions struct {
	// ValidateDocument runs the OpenAPI document validation before
	// extracting operations. Defaults to true.
	ValidateDocument bool
}

// ParserOption mutates ParserOptions during construction.
type ParserOption func(*ParserOptions)

// WithDocumentValidation toggles document validation.
func WithDocumentValidation(enabled bool) ParserOption {
	return func(opts *ParserOptions) {
		opts.ValidateDocument = enabled
	}
}

// NewParserOptions applies ParserOption functions.
func NewParserOptions(options ...ParserOption) ParserOptions {
	cfg := ParserOptions{ValidateDocument: true}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
