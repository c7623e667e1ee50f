// Package keypath resolves dotted paths ("owner.emails.0", "owner.emails[0]")
// against map[string]any / []any trees. Reads are tolerant of missing
// segments; writes are copy-on-write so earlier snapshots are never mutated.
package keypath

import (
	"fmt"
	"strconv"
	"strings"
)

// Split parses a path into segments. Bracket indexes, leading "$." or "/"
// prefixes and JSON pointer escapes are normalised.
func Split(path string) []string {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return nil
	}
	clean = strings.TrimPrefix(clean, "#/")
	clean = strings.TrimPrefix(clean, "$.")
	for strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = clean[1:]
	}

	replacer := strings.NewReplacer("[", ".", "]", "")
	clean = replacer.Replace(clean)

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

// Join concatenates two dotted paths, skipping empty sides.
func Join(parent, child string) string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

// IsFormLevel reports whether a key addresses the whole form rather than a
// field.
func IsFormLevel(key string) bool {
	switch strings.TrimSpace(key) {
	case "", ".", "$form":
		return true
	default:
		return false
	}
}

// Get resolves path within root. Missing intermediate segments yield nil.
// The empty path returns root itself.
func Get(root any, path string) any {
	value, _ := Lookup(root, path)
	return value
}

// Lookup is Get with an explicit presence flag.
func Lookup(root any, path string) (any, bool) {
	segments := Split(path)
	if len(segments) == 0 {
		return root, true
	}
	current := root
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Set returns a new tree with value written at path. Containers along the
// path are copied; siblings are shared with root. Missing containers are
// created as maps, or as slices when the next segment is numeric.
func Set(root any, path string, value any) (any, error) {
	segments := Split(path)
	if len(segments) == 0 {
		return value, nil
	}
	return setSegments(root, segments, value, path)
}

func setSegments(node any, segments []string, value any, path string) (any, error) {
	segment := segments[0]
	rest := segments[1:]

	if node == nil {
		if _, err := strconv.Atoi(segment); err == nil {
			node = []any{}
		} else {
			node = map[string]any{}
		}
	}

	switch typed := node.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed)+1)
		for k, v := range typed {
			clone[k] = v
		}
		if len(rest) == 0 {
			clone[segment] = value
			return clone, nil
		}
		child, err := setSegments(typed[segment], rest, value, path)
		if err != nil {
			return nil, err
		}
		clone[segment] = child
		return clone, nil

	case []any:
		idx, err := strconv.Atoi(segment)
		if err != nil {
			return nil, fmt.Errorf("keypath: expected numeric segment, got %q", segment)
		}
		if idx < 0 {
			return nil, fmt.Errorf("keypath: negative index in path %q", path)
		}
		size := len(typed)
		if idx >= size {
			size = idx + 1
		}
		clone := make([]any, size)
		copy(clone, typed)
		if len(rest) == 0 {
			clone[idx] = value
			return clone, nil
		}
		child, err := setSegments(clone[idx], rest, value, path)
		if err != nil {
			return nil, err
		}
		clone[idx] = child
		return clone, nil

	default:
		return nil, fmt.Errorf("keypath: unexpected container %T for segment %q", node, segment)
	}
}

// Clone deep copies maps and slices.
func Clone(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = Clone(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = Clone(v)
		}
		return clone
	default:
		return typed
	}
}
