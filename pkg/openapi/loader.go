package openapi

import (
	"context"
	"io/fs"
)

// Loader fetches OpenAPI documents from disk or an fs.FS.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// LoaderOptions configures how a Loader resolves sources.
type LoaderOptions struct {
	// FileSystem serves SourceKindFS sources.
	FileSystem fs.FS
}

// LoaderOption mutates LoaderOptions prior to construction.
type LoaderOption func(*LoaderOptions)

// WithFileSystem injects an fs.FS implementation for SourceFromFS paths.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// NewLoaderOptions applies a set of LoaderOption values.
func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	cfg := LoaderOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
