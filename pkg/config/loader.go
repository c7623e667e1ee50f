package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-formbind/pkg/rules"
)

// ErrUnsupportedFormat is returned for files that are neither YAML, JSON
// nor HCL.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Parse decodes definitions, choosing the format from the source extension.
func Parse(data []byte, source string, reg *rules.Registry) ([]Definition, error) {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml", ".json":
		return LoadYAML(data, source)
	case ".hcl":
		return LoadHCL(data, source, reg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, source)
	}
}

// LoadFile reads one definition file from disk.
func LoadFile(path string, reg *rules.Registry) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	defs, err := Parse(data, path, reg)
	if err != nil {
		return nil, err
	}
	return NewSet(defs...)
}

// LoadFS walks fsys and loads every definition file it contains. Files with
// other extensions are ignored. A nil fsys yields an empty set.
func LoadFS(fsys fs.FS, reg *rules.Registry) (*Set, error) {
	set, _ := NewSet()
	if fsys == nil {
		return set, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		defs, err := Parse(data, path, reg)
		if err != nil {
			return err
		}
		for _, def := range defs {
			if err := set.add(def); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".hcl":
		return true
	default:
		return false
	}
}
