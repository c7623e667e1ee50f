package openapi

import "path/filepath"

type source struct {
	kind     SourceKind
	location string
}

func (s source) Kind() SourceKind { return s.kind }
func (s source) Location() string { return s.location }

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return source{kind: SourceKindFile, location: filepath.Clean(path)}
}

// SourceFromFS returns a Source naming a path inside the loader's fs.FS.
func SourceFromFS(name string) Source {
	return source{kind: SourceKindFS, location: name}
}

// SourceInline labels a document handed to NewDocument as bytes. Loaders
// reject it; parse such documents with OperationFromDocument.
func SourceInline(label string) Source {
	if label == "" {
		label = "inline"
	}
	return source{kind: SourceKindInline, location: label}
}
