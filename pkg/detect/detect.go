// Package detect decides when a bound form needs to revalidate or re-render.
// It is pure: nothing here reads or writes global state.
package detect

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Trigger is the set of moments validation runs at. Combine with bitwise OR.
type Trigger uint8

const (
	OnChange Trigger = 1 << iota // revalidate on every value or props change
	OnSubmit                     // validate when the form is submitted
)

// DefaultTrigger applies when no trigger is configured.
const DefaultTrigger = OnChange

// Has reports whether every bit of other is set. The zero Trigger behaves as
// DefaultTrigger.
func (t Trigger) Has(other Trigger) bool {
	return t.normalize()&other == other
}

func (t Trigger) normalize() Trigger {
	if t == 0 {
		return DefaultTrigger
	}
	return t
}

func (t Trigger) String() string {
	t = t.normalize()
	var parts []string
	if t&OnChange != 0 {
		parts = append(parts, "change")
	}
	if t&OnSubmit != 0 {
		parts = append(parts, "submit")
	}
	return strings.Join(parts, "|")
}

// ParseTrigger converts names ("change", "submit") into a Trigger. An empty
// list yields DefaultTrigger.
func ParseTrigger(names []string) (Trigger, error) {
	var out Trigger
	for _, raw := range names {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "change":
			out |= OnChange
		case "submit":
			out |= OnSubmit
		case "":
		default:
			return 0, fmt.Errorf("detect: unknown validate trigger %q", raw)
		}
	}
	return out.normalize(), nil
}

// ShouldRevalidate reports whether a props update should run a live
// validation pass. Only the incoming trigger matters: without OnChange,
// validity is computed at submit time only.
func ShouldRevalidate(_ Trigger, next Trigger) bool {
	return next.Has(OnChange)
}

// RenderProps is the subset of props that affects rendered output.
type RenderProps struct {
	Children any
	Values   map[string]any
}

// ShouldRerender compares the render-relevant props structurally. Functions
// compare equal only when both are nil, so function children always
// re-render.
func ShouldRerender(prev, next RenderProps) bool {
	return !cmp.Equal(prev, next, cmpopts.EquateEmpty())
}

// Equality decides whether two model values are the same for the purpose of
// skipping recomputation.
type Equality func(a, b any) bool

// Identical compares maps, slices, pointers and funcs by reference and other
// values with ==. Structs, arrays and interfaces are walked with the same
// rules, so a struct holding a map is identical only to a copy sharing that
// map.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return identical(reflect.ValueOf(a), reflect.ValueOf(b))
}

func identical(va, vb reflect.Value) bool {
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Interface:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return identical(va.Elem(), vb.Elem())
	case reflect.Struct:
		for i := 0; i < va.NumField(); i++ {
			if !identical(va.Field(i), vb.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := 0; i < va.Len(); i++ {
			if !identical(va.Index(i), vb.Index(i)) {
				return false
			}
		}
		return true
	}
	return va.Equal(vb)
}

// DeepEqual compares values structurally. Slower than Identical but
// insensitive to how the state container copies values.
func DeepEqual(a, b any) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}
