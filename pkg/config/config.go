package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formbind/pkg/detect"
	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/rules"
	"github.com/goliatone/go-formbind/pkg/validity"
)

// Definition declares one bound form.
type Definition struct {
	Name       string              `yaml:"name" json:"name"`
	Model      string              `yaml:"model" json:"model"`
	ValidateOn []string            `yaml:"validateOn,omitempty" json:"validateOn,omitempty"`
	Validators map[string]RuleSpec `yaml:"validators,omitempty" json:"validators,omitempty"`
	Errors     map[string]RuleSpec `yaml:"errors,omitempty" json:"errors,omitempty"`
	// Messages are pongo2 templates keyed by field path or "path.check".
	Messages map[string]string `yaml:"messages,omitempty" json:"messages,omitempty"`
	// Initial is the model value registered before the form mounts.
	Initial map[string]any `yaml:"initial,omitempty" json:"initial,omitempty"`
	// Source names the file the definition came from.
	Source string `yaml:"-" json:"-"`
}

// RuleSpec is the rule configuration of a single field: either a list of
// rules that must all pass (scalar result) or named rules (named result).
type RuleSpec struct {
	Rules []string
	Named map[string]string
}

// IsNamed reports whether s produces a named result.
func (s RuleSpec) IsNamed() bool {
	return s.Named != nil
}

// Validator compiles s against a registry.
func (s RuleSpec) Validator(reg *rules.Registry) (validity.Validator, error) {
	if reg == nil {
		reg = rules.Default()
	}
	if s.IsNamed() {
		return reg.Checks(s.Named)
	}
	return reg.Validator(s.Rules...)
}

// Set is a collection of definitions indexed by name.
type Set struct {
	forms map[string]Definition
}

// NewSet indexes definitions, rejecting empty and duplicate names.
func NewSet(defs ...Definition) (*Set, error) {
	set := &Set{forms: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		if err := set.add(def); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (s *Set) add(def Definition) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return fmt.Errorf("config: %s defines a form without a name", sourceLabel(def.Source))
	}
	if existing, ok := s.forms[name]; ok {
		return fmt.Errorf("config: duplicate form %q (%s and %s)", name, sourceLabel(existing.Source), sourceLabel(def.Source))
	}
	def.Name = name
	s.forms[name] = def
	return nil
}

// Form returns the definition registered under name.
func (s *Set) Form(name string) (Definition, bool) {
	if s == nil {
		return Definition{}, false
	}
	def, ok := s.forms[name]
	return def, ok
}

// Names lists the definition names in sorted order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.forms))
	for name := range s.forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of definitions.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.forms)
}

// Issue describes a problem found while checking a definition.
type Issue struct {
	Form    string `json:"form,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	var b strings.Builder
	if i.Form != "" {
		b.WriteString(i.Form)
	}
	if i.Field != "" {
		b.WriteString("." + i.Field)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(i.Message)
	return b.String()
}

// ValidationError groups the issues of a definition that failed to compile.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return "config: invalid definition: " + strings.Join(parts, "; ")
}

// Check reports every problem in the definition without stopping at the
// first one.
func (d Definition) Check(reg *rules.Registry) []Issue {
	if reg == nil {
		reg = rules.Default()
	}
	var issues []Issue
	if strings.TrimSpace(d.Model) == "" {
		issues = append(issues, Issue{Form: d.Name, Message: "model is required"})
	}
	if _, err := detect.ParseTrigger(d.ValidateOn); err != nil {
		issues = append(issues, Issue{Form: d.Name, Message: err.Error()})
	}
	issues = append(issues, checkSpecs(d.Name, d.Validators, reg)...)
	issues = append(issues, checkSpecs(d.Name, d.Errors, reg)...)
	return issues
}

func checkSpecs(name string, specs map[string]RuleSpec, reg *rules.Registry) []Issue {
	var issues []Issue
	for _, field := range sortedFields(specs) {
		if _, err := specs[field].Validator(reg); err != nil {
			issues = append(issues, Issue{Form: name, Field: field, Message: err.Error()})
		}
	}
	return issues
}

// Compile builds the controller configuration for the definition. The
// submit callback is left for the caller.
func (d Definition) Compile(reg *rules.Registry) (form.Config, error) {
	if reg == nil {
		reg = rules.Default()
	}
	if issues := d.Check(reg); len(issues) > 0 {
		return form.Config{}, &ValidationError{Issues: issues}
	}

	trigger, err := detect.ParseTrigger(d.ValidateOn)
	if err != nil {
		return form.Config{}, err
	}
	validators, err := compileSpecs(d.Validators, reg)
	if err != nil {
		return form.Config{}, err
	}
	errs, err := compileSpecs(d.Errors, reg)
	if err != nil {
		return form.Config{}, err
	}
	return form.Config{
		Model:      strings.TrimSpace(d.Model),
		Validators: validators,
		Errors:     errs,
		ValidateOn: trigger,
	}, nil
}

func compileSpecs(specs map[string]RuleSpec, reg *rules.Registry) (validity.Map, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make(validity.Map, len(specs))
	for field, spec := range specs {
		v, err := spec.Validator(reg)
		if err != nil {
			return nil, fmt.Errorf("config: field %q: %w", field, err)
		}
		out[field] = v
	}
	return out, nil
}

func sortedFields(specs map[string]RuleSpec) []string {
	fields := make([]string, 0, len(specs))
	for field := range specs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func sourceLabel(source string) string {
	if source == "" {
		return "<inline>"
	}
	return source
}
