package validity

import (
	"sort"
	"strings"
)

// Result is the outcome of running a validator against a value. It is either
// a single boolean (Named == nil) or a set of named booleans, one per check.
//
// The same shape is used for validity (true = passes) and for errors
// (true = error present); Invert converts between the two.
type Result struct {
	Value bool
	Named map[string]bool
}

// Bool wraps a scalar outcome.
func Bool(value bool) Result {
	return Result{Value: value}
}

// NamedResult wraps a set of named outcomes. The map is copied.
func NamedResult(named map[string]bool) Result {
	out := make(map[string]bool, len(named))
	for key, value := range named {
		out[key] = value
	}
	return Result{Named: out}
}

// IsNamed reports whether the result carries named checks.
func (r Result) IsNamed() bool {
	return r.Named != nil
}

// Any reports whether the scalar value, or any named value, is true. For an
// errors result this answers "is there an error".
func (r Result) Any() bool {
	if !r.IsNamed() {
		return r.Value
	}
	for _, value := range r.Named {
		if value {
			return true
		}
	}
	return false
}

// All reports whether the scalar value, or every named value, is true. For a
// validity result this answers "is it valid". An empty named set is true.
func (r Result) All() bool {
	if !r.IsNamed() {
		return r.Value
	}
	for _, value := range r.Named {
		if !value {
			return false
		}
	}
	return true
}

// HasError treats the result as an errors result.
func (r Result) HasError() bool {
	return r.Any()
}

// Invert flips every boolean, turning validity into errors and back.
func (r Result) Invert() Result {
	if !r.IsNamed() {
		return Bool(!r.Value)
	}
	out := make(map[string]bool, len(r.Named))
	for key, value := range r.Named {
		out[key] = !value
	}
	return Result{Named: out}
}

// Equal compares two results shallowly: scalars by value, named results key
// by key.
func (r Result) Equal(other Result) bool {
	if r.IsNamed() != other.IsNamed() {
		return false
	}
	if !r.IsNamed() {
		return r.Value == other.Value
	}
	if len(r.Named) != len(other.Named) {
		return false
	}
	for key, value := range r.Named {
		got, ok := other.Named[key]
		if !ok || got != value {
			return false
		}
	}
	return true
}

// Merge combines an inverted validity result with an explicit errors result.
// When both sides are named the merge is key-wise and errors win on shared
// keys; otherwise the errors side replaces the base.
func Merge(base, errs Result) Result {
	if base.IsNamed() && errs.IsNamed() {
		out := make(map[string]bool, len(base.Named)+len(errs.Named))
		for key, value := range base.Named {
			out[key] = value
		}
		for key, value := range errs.Named {
			out[key] = value
		}
		return Result{Named: out}
	}
	return errs
}

func (r Result) String() string {
	if !r.IsNamed() {
		if r.Value {
			return "true"
		}
		return "false"
	}
	keys := make([]string, 0, len(r.Named))
	for key := range r.Named {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(key)
		b.WriteString(": ")
		if r.Named[key] {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	}
	b.WriteByte('}')
	return b.String()
}
