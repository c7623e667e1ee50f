package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/goliatone/go-formbind/pkg/rules/expr"
	"github.com/goliatone/go-formbind/pkg/validity"
)

// ExprPrefix marks a rule string as an expression (see package expr).
const ExprPrefix = "expr:"

var (
	// ErrEmptyRule is returned when compiling a blank rule string.
	ErrEmptyRule = errors.New("rules: empty rule")
)

// Predicate reports whether a value passes a rule.
type Predicate func(value any) bool

// Factory builds a predicate from the argument that follows the rule name
// (`minLength:3` calls the minLength factory with "3"). Rules without an
// argument receive "".
type Factory func(arg string) (Predicate, error)

// UnknownRuleError reports a rule name that is not registered.
type UnknownRuleError struct {
	Name       string
	Suggestion string
}

func (e *UnknownRuleError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("rules: unknown rule %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("rules: unknown rule %q", e.Name)
}

// Registry holds named rule factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry preloaded with the built-in rules.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	for name, factory := range builtins() {
		r.factories[name] = factory
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared registry with the built-in rules.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register adds or replaces a named rule.
func (r *Registry) Register(name string, factory Factory) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("rules: rule name is required")
	}
	if strings.ContainsAny(name, ": ") {
		return fmt.Errorf("rules: invalid rule name %q", name)
	}
	if factory == nil {
		return fmt.Errorf("rules: factory for %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	return nil
}

// Names lists the registered rule names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compile turns a rule string into a predicate. Accepted forms are
// `name`, `name:arg` and `expr:<expression>`.
func (r *Registry) Compile(rule string) (Predicate, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, ErrEmptyRule
	}
	if source, ok := strings.CutPrefix(rule, ExprPrefix); ok {
		program, err := expr.Compile(source)
		if err != nil {
			return nil, fmt.Errorf("rules: %q: %w", rule, err)
		}
		return program.Eval, nil
	}

	name, arg, _ := strings.Cut(rule, ":")
	name = strings.TrimSpace(name)

	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownRuleError{Name: name, Suggestion: r.suggest(name)}
	}
	pred, err := factory(strings.TrimSpace(arg))
	if err != nil {
		return nil, fmt.Errorf("rules: %q: %w", rule, err)
	}
	return pred, nil
}

// All compiles several rules into one predicate that passes when every rule
// passes.
func (r *Registry) All(rules ...string) (Predicate, error) {
	preds := make([]Predicate, 0, len(rules))
	for _, rule := range rules {
		pred, err := r.Compile(rule)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	return func(value any) bool {
		for _, pred := range preds {
			if !pred(value) {
				return false
			}
		}
		return true
	}, nil
}

// Validator compiles rules into a scalar validator.
func (r *Registry) Validator(rules ...string) (validity.Validator, error) {
	pred, err := r.All(rules...)
	if err != nil {
		return nil, err
	}
	return validity.Func(pred), nil
}

// Checks compiles named rules into a validator producing a named result.
func (r *Registry) Checks(named map[string]string) (validity.Validator, error) {
	checks := make(validity.Checks, len(named))
	for _, key := range sortedKeys(named) {
		pred, err := r.Compile(named[key])
		if err != nil {
			return nil, fmt.Errorf("rules: check %q: %w", key, err)
		}
		checks[key] = pred
	}
	return checks, nil
}

// suggest returns the closest registered name, if it is close enough to be
// a plausible typo.
func (r *Registry) suggest(name string) string {
	if name == "" {
		return ""
	}
	best, bestDist := "", -1
	for _, candidate := range r.Names() {
		dist := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(candidate))
		if bestDist < 0 || dist < bestDist {
			best, bestDist = candidate, dist
		}
	}
	if bestDist < 0 || bestDist > max(2, len(name)/3) {
		return ""
	}
	return best
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
