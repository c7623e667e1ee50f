package validity

import "sort"

// Validator checks a single (sub-)value. Validators in a validators map
// report validity (true = valid); validators in an errors map report errors
// (true = error). Implementations must be synchronous and side-effect free.
// Panics are not recovered by this module.
type Validator interface {
	Validate(value any) Result
}

// Func adapts a boolean predicate into a Validator.
type Func func(value any) bool

// Validate delegates to the predicate.
func (fn Func) Validate(value any) Result {
	return Bool(fn(value))
}

// Checks groups several named predicates for one field.
type Checks map[string]func(value any) bool

// Validate runs every named predicate.
func (c Checks) Validate(value any) Result {
	out := make(map[string]bool, len(c))
	for name, check := range c {
		if check == nil {
			continue
		}
		out[name] = check(value)
	}
	return Result{Named: out}
}

// ResultFunc adapts a function that already produces a Result.
type ResultFunc func(value any) Result

// Validate delegates to the function.
func (fn ResultFunc) Validate(value any) Result {
	return fn(value)
}

// Map associates field paths with validators. The empty path addresses the
// whole model.
type Map map[string]Validator

// Keys returns the configured field paths in sorted order.
func (m Map) Keys() []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether a field path is configured.
func (m Map) Has(path string) bool {
	_, ok := m[path]
	return ok
}

// SameKeys compares two sorted key sets.
func SameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Invert wraps every validator so it reports errors instead of validity.
func Invert(validators Map) Map {
	if validators == nil {
		return nil
	}
	out := make(Map, len(validators))
	for path, validator := range validators {
		if validator == nil {
			continue
		}
		v := validator
		out[path] = ResultFunc(func(value any) Result {
			return v.Validate(value).Invert()
		})
	}
	return out
}

// ErrorValidators builds the final error-validator set used at submit time:
// the inverted validators merged with the explicit error validators, with
// the same precedence as Merge.
func ErrorValidators(validators, errs Map) Map {
	if validators == nil {
		return errs
	}
	inverted := Invert(validators)
	out := make(Map, len(inverted)+len(errs))
	for path, validator := range inverted {
		out[path] = validator
	}
	for path, errValidator := range errs {
		if errValidator == nil {
			continue
		}
		base, ok := out[path]
		if !ok {
			out[path] = errValidator
			continue
		}
		b, e := base, errValidator
		out[path] = ResultFunc(func(value any) Result {
			return Merge(b.Validate(value), e.Validate(value))
		})
	}
	return out
}
