package messages

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formbind/pkg/keypath"
	"github.com/goliatone/go-formbind/pkg/meta"
	"github.com/goliatone/go-formbind/pkg/validity"
)

// Fallback is used when no template matches a failing entry.
const Fallback = "{{ field|capfirst }} is invalid"

// Defaults are the built-in templates keyed by check name.
var Defaults = map[string]string{
	"required":  "{{ field|capfirst }} is required",
	"email":     "{{ field|capfirst }} must be a valid email address",
	"accepted":  "{{ field|capfirst }} must be accepted",
	"noMarkup":  "{{ field|capfirst }} must not contain markup",
	"minLength": "{{ field|capfirst }} is too short",
	"maxLength": "{{ field|capfirst }} is too long",
	"min":       "{{ field|capfirst }} is too small",
	"max":       "{{ field|capfirst }} is too large",
	"pattern":   "{{ field|capfirst }} has an invalid format",
	"oneOf":     "{{ field|capfirst }} is not an allowed option",
	"schema":    "{{ field|capfirst }} does not match the schema",
}

// Message is a rendered message for one failing field or check.
type Message struct {
	Path  string
	Check string
	Text  string
}

func (m Message) String() string {
	return m.Text
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithTemplates adds templates keyed by field path, "path.check" or check
// name. Later options override earlier ones.
func WithTemplates(templates map[string]string) Option {
	return func(c *Catalog) {
		for key, tpl := range templates {
			c.sources[key] = tpl
		}
	}
}

// WithLabels maps field paths to human labels exposed as {{ field }}.
func WithLabels(labels map[string]string) Option {
	return func(c *Catalog) {
		for path, label := range labels {
			c.labels[path] = label
		}
	}
}

// WithGlobals seeds values available to every template.
func WithGlobals(globals map[string]any) Option {
	return func(c *Catalog) {
		for key, value := range globals {
			c.globals[strings.TrimSpace(key)] = value
		}
	}
}

// WithFS lets templates include or extend files from fsys.
func WithFS(fsys fs.FS) Option {
	return func(c *Catalog) {
		c.files = fsys
	}
}

var noTemplates embed.FS

// Catalog renders human readable messages for computed errors.
type Catalog struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	files     fs.FS
	sources   map[string]string
	templates map[string]*pongo2.Template
	fallback  *pongo2.Template
	labels    map[string]string
	globals   pongo2.Context
}

// New compiles the default and configured templates.
func New(options ...Option) (*Catalog, error) {
	c := &Catalog{
		sources:   make(map[string]string, len(Defaults)),
		templates: make(map[string]*pongo2.Template),
		labels:    make(map[string]string),
		globals:   make(pongo2.Context),
	}
	for key, tpl := range Defaults {
		c.sources[key] = tpl
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}

	files := c.files
	if files == nil {
		files = noTemplates
	}
	c.set = pongo2.NewSet("messages", pongo2.NewFSLoader(files))
	if c.set.Globals == nil {
		c.set.Globals = make(pongo2.Context)
	}
	c.set.Globals.Update(c.globals)

	fallback, err := c.compile(Fallback)
	if err != nil {
		return nil, fmt.Errorf("messages: fallback template: %w", err)
	}
	c.fallback = fallback
	for key, src := range c.sources {
		tpl, err := c.compile(src)
		if err != nil {
			return nil, fmt.Errorf("messages: template %q: %w", key, err)
		}
		c.templates[key] = tpl
	}
	return c, nil
}

// Set adds or replaces one template.
func (c *Catalog) Set(key, source string) error {
	if strings.TrimSpace(source) == "" {
		return errors.New("messages: template is empty")
	}
	tpl, err := c.compile(source)
	if err != nil {
		return fmt.Errorf("messages: template %q: %w", key, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[key] = source
	c.templates[key] = tpl
	return nil
}

func (c *Catalog) compile(source string) (*pongo2.Template, error) {
	return c.set.FromString(source)
}

// Render produces one message per failing entry of computed, in path order.
// value is the model value; sub-values are exposed to templates as
// {{ value }}.
func (c *Catalog) Render(computed validity.Computed, value any) ([]Message, error) {
	var out []Message
	for _, path := range computed.Paths() {
		result := computed[path]
		if !result.IsNamed() {
			if !result.Value {
				continue
			}
			msg, err := c.render(path, "", value)
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
			continue
		}
		checks := make([]string, 0, len(result.Named))
		for check, failed := range result.Named {
			if failed {
				checks = append(checks, check)
			}
		}
		sort.Strings(checks)
		for _, check := range checks {
			msg, err := c.render(path, check, value)
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
		}
	}
	return out, nil
}

// RenderForm renders messages for the errors stored in form metadata.
func (c *Catalog) RenderForm(form meta.FormMeta, value any) ([]Message, error) {
	computed := make(validity.Computed, len(form.Fields)+1)
	for path, field := range form.Fields {
		computed[path] = field.Errors
	}
	// an invalid form entry only gets its own message when no field failed
	if !form.Form.Valid && form.FieldsValid() {
		computed[validity.FormKey] = form.Form.Errors
		if !form.Form.Errors.HasError() {
			computed[validity.FormKey] = validity.Bool(true)
		}
	}
	return c.Render(computed, value)
}

func (c *Catalog) render(path, check string, value any) (Message, error) {
	tpl := c.lookup(path, check)
	if tpl == nil {
		tpl = c.fallback
	}

	sub := value
	if path != validity.FormKey {
		sub = keypath.Get(value, path)
	}
	ctx := pongo2.Context{
		"field": c.label(path),
		"path":  path,
		"check": check,
		"value": sub,
		"model": value,
	}
	text, err := tpl.Execute(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("messages: render %s: %w", describe(path, check), err)
	}
	return Message{Path: path, Check: check, Text: strings.TrimSpace(text)}, nil
}

// lookup prefers "path.check", then the check name, then the path.
func (c *Catalog) lookup(path, check string) *pongo2.Template {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, 3)
	if check != "" {
		keys = append(keys, path+"."+check, check)
	}
	keys = append(keys, path)
	for _, key := range keys {
		if tpl, ok := c.templates[key]; ok {
			return tpl
		}
	}
	return nil
}

func (c *Catalog) label(path string) string {
	if label, ok := c.labels[path]; ok {
		return label
	}
	if path == validity.FormKey {
		return "form"
	}
	segments := keypath.Split(path)
	if len(segments) == 0 {
		return path
	}
	return strings.ReplaceAll(segments[len(segments)-1], "_", " ")
}

func describe(path, check string) string {
	if check == "" {
		return fmt.Sprintf("%q", path)
	}
	return fmt.Sprintf("%q check %q", path, check)
}
