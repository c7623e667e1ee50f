package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	pkgopenapi "github.com/goliatone/go-formbind/pkg/openapi"
)

// Loader implements pkgopenapi.Loader for files on disk and fs.FS entries.
type Loader struct {
	fs fs.FS
}

// Ensure the implementation satisfies the public interface.
var _ pkgopenapi.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options pkgopenapi.LoaderOptions) pkgopenapi.Loader {
	return &Loader{fs: options.FileSystem}
}

// Load reads the document behind src.
func (l *Loader) Load(ctx context.Context, src pkgopenapi.Source) (pkgopenapi.Document, error) {
	if src == nil {
		return pkgopenapi.Document{}, errors.New("openapi loader: source is nil")
	}

	var (
		data []byte
		err  error
	)

	switch src.Kind() {
	case pkgopenapi.SourceKindFile:
		data, err = loadFile(ctx, src.Location())
	case pkgopenapi.SourceKindFS:
		data, err = l.loadFS(ctx, src.Location())
	default:
		err = fmt.Errorf("openapi loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return pkgopenapi.Document{}, err
	}

	return pkgopenapi.NewDocument(src, data)
}

// loadFS reads name from the configured filesystem.
func (l *Loader) loadFS(ctx context.Context, name string) ([]byte, error) {
	switch {
	case l.fs == nil:
		return nil, errors.New("openapi loader: no filesystem configured for fs source")
	case name == "":
		return nil, errors.New("openapi loader: fs source needs a path")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("openapi loader: read fs %s: %w", name, err)
	}
	return data, nil
}

func loadFile(ctx context.Context, path string) ([]byte, error) {
	if path == "" || path == "." {
		return nil, errors.New("openapi loader: file path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("openapi loader: read %s: %w", path, err)
	}
	return data, nil
}
