package rules

import (
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

func builtins() map[string]Factory {
	return map[string]Factory{
		"required": noArg(Required),
		"email":    noArg(Email),
		"accepted": noArg(Accepted),
		"noMarkup": noArg(NoMarkup),
		"minLength": intArg(func(n int) Predicate {
			return func(v any) bool { return Length(v) >= n }
		}),
		"maxLength": intArg(func(n int) Predicate {
			return func(v any) bool { return Length(v) <= n }
		}),
		"min": numberArg(func(limit float64) Predicate {
			return func(v any) bool {
				f, ok := Number(v)
				return ok && f >= limit
			}
		}),
		"max": numberArg(func(limit float64) Predicate {
			return func(v any) bool {
				f, ok := Number(v)
				return ok && f <= limit
			}
		}),
		"pattern": patternRule,
		"oneOf":   oneOfRule,
	}
}

func noArg(pred Predicate) Factory {
	return func(arg string) (Predicate, error) {
		if arg != "" {
			return nil, fmt.Errorf("unexpected argument %q", arg)
		}
		return pred, nil
	}
}

func intArg(build func(int) Predicate) Factory {
	return func(arg string) (Predicate, error) {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("expected a non-negative integer, got %q", arg)
		}
		return build(n), nil
	}
}

func numberArg(build func(float64) Predicate) Factory {
	return func(arg string) (Predicate, error) {
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", arg)
		}
		return build(f), nil
	}
}

// patternRule matches strings against a regular expression. Empty values
// pass; combine with required to reject them.
func patternRule(arg string) (Predicate, error) {
	if arg == "" {
		return nil, fmt.Errorf("pattern is required")
	}
	re, err := regexp.Compile(arg)
	if err != nil {
		return nil, err
	}
	return func(v any) bool {
		s := Text(v)
		return s == "" || re.MatchString(s)
	}, nil
}

// oneOfRule accepts values listed in a `|` separated argument.
func oneOfRule(arg string) (Predicate, error) {
	if arg == "" {
		return nil, fmt.Errorf("at least one option is required")
	}
	options := make(map[string]struct{})
	for _, option := range strings.Split(arg, "|") {
		options[strings.TrimSpace(option)] = struct{}{}
	}
	return func(v any) bool {
		_, ok := options[Text(v)]
		return ok
	}, nil
}

// Required rejects nil, blank strings and empty collections.
func Required(v any) bool {
	switch typed := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(typed) != ""
	case bool:
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// Email accepts strings shaped like local@domain.tld. Empty values pass.
func Email(v any) bool {
	s := strings.TrimSpace(Text(v))
	if s == "" {
		return true
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".") && !strings.HasPrefix(domain, ".")
}

// Accepted requires a true boolean or a truthy string ("true", "yes", "on", "1").
func Accepted(v any) bool {
	switch typed := v.(type) {
	case bool:
		return typed
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "true", "yes", "on", "1":
			return true
		}
	}
	return false
}

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// NoMarkup rejects strings containing HTML elements or attributes.
func NoMarkup(v any) bool {
	s := Text(v)
	if s == "" {
		return true
	}
	markupPolicyOnce.Do(func() {
		markupPolicy = bluemonday.StrictPolicy()
	})
	return html.UnescapeString(markupPolicy.Sanitize(s)) == s
}

// Length counts runes in strings and elements in collections. Other values
// are measured by their printed form.
func Length(v any) int {
	switch typed := v.(type) {
	case nil:
		return 0
	case string:
		return utf8.RuneCountInString(typed)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len()
	}
	return utf8.RuneCountInString(fmt.Sprint(v))
}

// Number converts numeric values and numeric strings to float64.
func Number(v any) (float64, bool) {
	switch typed := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		return f, err == nil
	case nil, bool:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// Text renders a value as a string for string-oriented rules.
func Text(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []byte:
		return string(typed)
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(v)
	}
}
