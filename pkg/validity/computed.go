package validity

import "sort"

// FormKey addresses the whole model in validator maps and computed errors.
const FormKey = ""

// Computed is the authoritative errors map produced by one validation pass,
// keyed by field path. Values use errors semantics (true = error).
type Computed map[string]Result

// Valid reports whether no entry carries an error.
func (c Computed) Valid() bool {
	for _, result := range c {
		if result.HasError() {
			return false
		}
	}
	return true
}

// FieldsValid reports whether every entry other than the form-level one is
// free of errors.
func (c Computed) FieldsValid() bool {
	for path, result := range c {
		if path == FormKey {
			continue
		}
		if result.HasError() {
			return false
		}
	}
	return true
}

// Paths returns the field paths in sorted order.
func (c Computed) Paths() []string {
	paths := make([]string, 0, len(c))
	for path := range c {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Equal compares two computed maps entry by entry.
func (c Computed) Equal(other Computed) bool {
	if len(c) != len(other) {
		return false
	}
	for path, result := range c {
		got, ok := other[path]
		if !ok || !result.Equal(got) {
			return false
		}
	}
	return true
}

// Clone returns a copy safe to hand to another owner.
func (c Computed) Clone() Computed {
	if c == nil {
		return nil
	}
	out := make(Computed, len(c))
	for path, result := range c {
		if result.IsNamed() {
			result = NamedResult(result.Named)
		}
		out[path] = result
	}
	return out
}
