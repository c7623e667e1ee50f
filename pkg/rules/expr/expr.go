package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Program is a compiled rule expression.
//
// Supported forms:
//   - truthiness: `value`, `!accepted`
//   - equality: `value != ""`, `role == "admin"`, `count == 3`, `ok == true`
//   - ordering against numbers: `age >= 18`, `value < 10`
//   - length: `len(value) >= 3`, `len(tags) == 0`
//   - composition: `a == true && (b || !c)`
//
// The identifier `value` is the validated value itself; any other
// identifier is a dotted path inside it (so `password == confirm` is not
// supported, but `plan == "pro"` works on a form-level value).
type Program struct {
	source string
	root   node
}

// Compile parses an expression. Operator/literal mismatches are reported
// here so evaluation never fails.
func Compile(source string) (*Program, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, errors.New("rules/expr: empty expression")
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	stream := &tokenStream{tokens: tokens}
	root, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("rules/expr: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return &Program{source: trimmed, root: root}, nil
}

// MustCompile panics when source does not compile.
func MustCompile(source string) *Program {
	p, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return p
}

// Eval runs the program against a value.
func (p *Program) Eval(value any) bool {
	if p == nil || p.root == nil {
		return true
	}
	return p.root.eval(value)
}

func (p *Program) String() string {
	if p == nil {
		return ""
	}
	return p.source
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '!', '=', '&', '|', '<', '>':
		return true
	}
	return false
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	peek := func(offset int) byte {
		if i+offset >= len(input) {
			return 0
		}
		return input[i+offset]
	}

	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			i++
		case ch == '!' && peek(1) == '=':
			tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
			i += 2
		case ch == '!':
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			i++
		case ch == '=':
			if peek(1) != '=' {
				return nil, errors.New("rules/expr: unexpected '='; use '=='")
			}
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
			i += 2
		case ch == '<' || ch == '>':
			kind, raw := tokenLt, "<"
			if ch == '>' {
				kind, raw = tokenGt, ">"
			}
			if peek(1) == '=' {
				kind++
				raw += "="
				i++
			}
			tokens = append(tokens, token{kind: kind, raw: raw})
			i++
		case ch == '&':
			if peek(1) != '&' {
				return nil, errors.New("rules/expr: unexpected '&'; use '&&'")
			}
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
			i += 2
		case ch == '|':
			if peek(1) != '|' {
				return nil, errors.New("rules/expr: unexpected '|'; use '||'")
			}
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
			i += 2
		case ch == '"' || ch == '\'':
			literal, next, err := readString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenString, raw: literal})
			i = next
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			raw := input[start:i]
			switch strings.ToLower(raw) {
			case "true", "false":
				tokens = append(tokens, token{kind: tokenBool, raw: strings.ToLower(raw)})
			case "null", "nil":
				tokens = append(tokens, token{kind: tokenNull, raw: "null"})
			default:
				if _, err := strconv.ParseFloat(raw, 64); err == nil {
					tokens = append(tokens, token{kind: tokenNumber, raw: raw})
				} else {
					tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
				}
			}
		}
	}
	return tokens, nil
}

func readString(input string, start int) (string, int, error) {
	quote := input[start]
	escaped := false
	for i := start + 1; i < len(input); i++ {
		c := input[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c != quote {
			continue
		}
		body := input[start+1 : i]
		if quote == '\'' {
			body = strings.ReplaceAll(body, `\'`, `'`)
			body = strings.ReplaceAll(body, `"`, `\"`)
		}
		value, err := strconv.Unquote(`"` + body + `"`)
		if err != nil {
			return "", 0, fmt.Errorf("rules/expr: invalid string literal: %w", err)
		}
		return value, i + 1, nil
	}
	return "", 0, errors.New("rules/expr: unterminated string literal")
}

type tokenStream struct {
	tokens []token
	pos    int
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) peek() (token, bool) {
	if s.pos >= len(s.tokens) {
		return token{}, false
	}
	return s.tokens[s.pos], true
}

func parseOr(s *tokenStream) (node, error) {
	left, err := parseAnd(s)
	if err != nil {
		return nil, err
	}
	for s.match(tokenOr) {
		right, err := parseAnd(s)
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func parseAnd(s *tokenStream) (node, error) {
	left, err := parseUnary(s)
	if err != nil {
		return nil, err
	}
	for s.match(tokenAnd) {
		right, err := parseUnary(s)
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func parseUnary(s *tokenStream) (node, error) {
	if s.match(tokenNot) {
		inner, err := parseUnary(s)
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return parsePrimary(s)
}

func parsePrimary(s *tokenStream) (node, error) {
	if s.match(tokenLParen) {
		inner, err := parseOr(s)
		if err != nil {
			return nil, err
		}
		if !s.match(tokenRParen) {
			return nil, errors.New("rules/expr: missing closing ')'")
		}
		return inner, nil
	}

	left, err := parseOperand(s)
	if err != nil {
		return nil, err
	}

	op, ok := s.peek()
	if !ok || op.kind < tokenEq || op.kind > tokenGte {
		return truthyNode{operand: left}, nil
	}
	s.pos++

	lit, ok := s.peek()
	if !ok {
		return nil, errors.New("rules/expr: missing literal")
	}
	s.pos++

	switch op.kind {
	case tokenLt, tokenLte, tokenGt, tokenGte:
		if lit.kind != tokenNumber {
			return nil, fmt.Errorf("rules/expr: operator %q needs a number, got %q", op.raw, lit.raw)
		}
		want, _ := strconv.ParseFloat(lit.raw, 64)
		return orderNode{operand: left, op: op.kind, want: want}, nil
	}

	switch lit.kind {
	case tokenString, tokenNumber, tokenBool, tokenNull:
	case tokenIdentifier:
		// bare words compare as strings
		lit.kind = tokenString
	default:
		return nil, fmt.Errorf("rules/expr: expected literal, got %q", lit.raw)
	}
	return equalNode{operand: left, negate: op.kind == tokenNeq, literal: lit}, nil
}

func parseOperand(s *tokenStream) (operand, error) {
	tok, ok := s.peek()
	if !ok {
		return nil, errors.New("rules/expr: unexpected end of expression")
	}
	if tok.kind != tokenIdentifier {
		return nil, fmt.Errorf("rules/expr: expected identifier, got %q", tok.raw)
	}
	s.pos++

	if tok.raw != "len" || !s.match(tokenLParen) {
		return pathOperand(tok.raw), nil
	}
	arg, ok := s.peek()
	if !ok || arg.kind != tokenIdentifier {
		return nil, errors.New("rules/expr: len expects an identifier")
	}
	s.pos++
	if !s.match(tokenRParen) {
		return nil, errors.New("rules/expr: missing closing ')' after len")
	}
	return lenOperand(arg.raw), nil
}

type operand interface {
	resolve(value any) (any, bool)
}

type pathOperand string

func (p pathOperand) resolve(value any) (any, bool) {
	return lookup(value, string(p))
}

type lenOperand string

func (p lenOperand) resolve(value any) (any, bool) {
	got, ok := lookup(value, string(p))
	if !ok {
		return 0, true
	}
	return length(got), true
}

type node interface {
	eval(value any) bool
}

type orNode struct{ left, right node }

func (n orNode) eval(value any) bool { return n.left.eval(value) || n.right.eval(value) }

type andNode struct{ left, right node }

func (n andNode) eval(value any) bool { return n.left.eval(value) && n.right.eval(value) }

type notNode struct{ inner node }

func (n notNode) eval(value any) bool { return !n.inner.eval(value) }

type truthyNode struct{ operand operand }

func (n truthyNode) eval(value any) bool {
	got, ok := n.operand.resolve(value)
	return ok && truthy(got)
}

type equalNode struct {
	operand operand
	negate  bool
	literal token
}

func (n equalNode) eval(value any) bool {
	got, _ := n.operand.resolve(value)
	var eq bool
	switch n.literal.kind {
	case tokenNull:
		eq = got == nil
	case tokenBool:
		b, _ := coerceBool(got)
		eq = b == (n.literal.raw == "true")
	case tokenNumber:
		want, _ := strconv.ParseFloat(n.literal.raw, 64)
		f, ok := coerceNumber(got)
		eq = ok && f == want
	default:
		eq = coerceString(got) == n.literal.raw
	}
	if n.negate {
		return !eq
	}
	return eq
}

type orderNode struct {
	operand operand
	op      tokenKind
	want    float64
}

func (n orderNode) eval(value any) bool {
	got, _ := n.operand.resolve(value)
	f, ok := coerceNumber(got)
	if !ok {
		return false
	}
	switch n.op {
	case tokenLt:
		return f < n.want
	case tokenLte:
		return f <= n.want
	case tokenGt:
		return f > n.want
	default:
		return f >= n.want
	}
}

func lookup(value any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "value" {
		return value, true
	}
	path = strings.TrimPrefix(path, "value.")

	current := value
	for _, part := range strings.Split(path, ".") {
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

func length(value any) int {
	switch v := value.(type) {
	case nil:
		return 0
	case string:
		return utf8.RuneCountInString(v)
	case []any:
		return len(v)
	case []string:
		return len(v)
	case map[string]any:
		return len(v)
	default:
		return len(fmt.Sprint(v))
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if f, ok := coerceNumber(value); ok {
		return f != 0
	}
	return true
}

func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed, true
		}
	}
	return truthy(value), true
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}
