package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlDocument struct {
	Forms []Definition `yaml:"forms"`
}

// LoadYAML parses YAML or JSON form definitions:
//
//	forms:
//	  - name: signup
//	    model: user
//	    validateOn: [change]
//	    validators:
//	      email: [required, email]
//	      password: {present: required, long: "minLength:8"}
//	      "": 'expr:plan != ""'
func LoadYAML(data []byte, source string) ([]Definition, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", sourceLabel(source), err)
	}
	for i := range doc.Forms {
		doc.Forms[i].Source = source
	}
	return doc.Forms, nil
}

// UnmarshalYAML accepts a single rule string, a list of rules, or a mapping
// of check names to rules.
func (s *RuleSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var rule string
		if err := node.Decode(&rule); err != nil {
			return err
		}
		*s = RuleSpec{Rules: splitRules(rule)}
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = RuleSpec{Rules: list}
	case yaml.MappingNode:
		named := make(map[string]string)
		if err := node.Decode(&named); err != nil {
			return err
		}
		*s = RuleSpec{Named: named}
	default:
		return fmt.Errorf("config: line %d: rules must be a string, list or mapping", node.Line)
	}
	return nil
}

// MarshalYAML mirrors UnmarshalYAML.
func (s RuleSpec) MarshalYAML() (any, error) {
	if s.IsNamed() {
		return s.Named, nil
	}
	return s.Rules, nil
}

// splitRules lets a scalar carry several rules separated by ` | `. Expression
// rules are kept whole.
func splitRules(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "expr:") {
		return []string{raw}
	}
	parts := strings.Split(raw, " | ")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
