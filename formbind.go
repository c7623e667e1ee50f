package formbind

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goliatone/go-formbind/pkg/bridge"
	"github.com/goliatone/go-formbind/pkg/config"
	"github.com/goliatone/go-formbind/pkg/detect"
	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/meta"
	pkgopenapi "github.com/goliatone/go-formbind/pkg/openapi"
	"github.com/goliatone/go-formbind/pkg/rules"
	"github.com/goliatone/go-formbind/pkg/store"
	"github.com/goliatone/go-formbind/pkg/validity"
)

// Config is the constructor-time configuration of a bound form.
type Config = form.Config

// Props are the inputs of one render.
type Props = form.Props

// Controller binds one model to validation and submission behaviour.
type Controller = form.Controller

// Result is the outcome of a validator.
type Result = validity.Result

// Validator checks a single (sub-)value.
type Validator = validity.Validator

// ValidatorMap associates field paths with validators.
type ValidatorMap = validity.Map

// Computed is the per-pass errors map.
type Computed = validity.Computed

// FormMeta is the validation and submission metadata of a model.
type FormMeta = meta.FormMeta

// FieldMeta is the metadata of a single field.
type FieldMeta = meta.FieldMeta

// Trigger selects when validation runs.
type Trigger = detect.Trigger

// Validation triggers.
const (
	OnChange = detect.OnChange
	OnSubmit = detect.OnSubmit
)

// Option configures NewMemoryForm.
type Option func(*setup)

type setup struct {
	logger    *slog.Logger
	storeOpts []store.Option
	formOpts  []form.Option
	registry  *rules.Registry
}

// WithLogger sets the logger of both the store and the controller.
func WithLogger(logger *slog.Logger) Option {
	return func(s *setup) {
		s.logger = logger
	}
}

// WithStoreOptions forwards options to store.New.
func WithStoreOptions(options ...store.Option) Option {
	return func(s *setup) {
		s.storeOpts = append(s.storeOpts, options...)
	}
}

// WithFormOptions forwards options to form.New.
func WithFormOptions(options ...form.Option) Option {
	return func(s *setup) {
		s.formOpts = append(s.formOpts, options...)
	}
}

// WithRegistry sets the rule registry used by FromDefinition.
func WithRegistry(reg *rules.Registry) Option {
	return func(s *setup) {
		s.registry = reg
	}
}

func newSetup(options []Option) *setup {
	s := &setup{}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.registry == nil {
		s.registry = rules.Default()
	}
	return s
}

// MemoryForm is a controller wired to an in-memory store.
type MemoryForm struct {
	Store      *store.Memory
	Bridge     *bridge.Bridge
	Controller *form.Controller
	path       string
}

// NewMemoryForm registers value under props.Model in a new memory store and
// binds a controller to it. The controller is not mounted.
func NewMemoryForm(props Props, value any, options ...Option) (*MemoryForm, error) {
	return newMemoryForm(props, value, newSetup(options))
}

func newMemoryForm(props Props, value any, s *setup) (*MemoryForm, error) {
	if strings.TrimSpace(props.Model) == "" {
		return nil, form.ErrModelRequired
	}

	storeOpts := s.storeOpts
	formOpts := s.formOpts
	if s.logger != nil {
		storeOpts = append([]store.Option{store.WithLogger(s.logger)}, storeOpts...)
		formOpts = append([]form.Option{form.WithLogger(s.logger)}, formOpts...)
	}

	mem := store.New(storeOpts...)
	path := mem.ResolveModel(props.Model, nil)
	if err := mem.Register(path, value); err != nil {
		return nil, fmt.Errorf("formbind: %w", err)
	}
	b, err := bridge.New(mem, mem,
		bridge.WithResolver(mem),
		bridge.WithGetter(mem),
		bridge.WithFormGetter(mem),
		bridge.WithFieldAccessor(mem),
	)
	if err != nil {
		return nil, fmt.Errorf("formbind: %w", err)
	}
	ctrl, err := form.New(b, props, formOpts...)
	if err != nil {
		return nil, err
	}
	return &MemoryForm{Store: mem, Bridge: b, Controller: ctrl, path: path}, nil
}

// FromDefinition compiles a declarative definition and binds it. Its
// initial value is registered as the model value.
func FromDefinition(def config.Definition, onSubmit func(any), options ...Option) (*MemoryForm, error) {
	s := newSetup(options)
	cfg, err := def.Compile(s.registry)
	if err != nil {
		return nil, err
	}
	cfg.OnSubmit = onSubmit
	initial := def.Initial
	if initial == nil {
		initial = map[string]any{}
	}
	return newMemoryForm(Props{Config: cfg}, initial, s)
}

// FromOperation binds a model validated by the request body schema of an
// OpenAPI operation. Property defaults seed the model value.
func FromOperation(op pkgopenapi.Operation, model string, onSubmit func(any), options ...Option) (*MemoryForm, error) {
	if len(op.Fields) == 0 && op.Body == nil {
		return nil, errors.New("formbind: operation has no request body")
	}
	cfg := Config{
		Model:      model,
		Validators: pkgopenapi.Validators(op),
		OnSubmit:   onSubmit,
	}
	return newMemoryForm(Props{Config: cfg}, pkgopenapi.Initial(op), newSetup(options))
}

// Path returns the resolved model path.
func (f *MemoryForm) Path() string {
	return f.path
}

// Mount runs the initial validation pass.
func (f *MemoryForm) Mount() error {
	return f.Controller.OnMount()
}

// Change writes a field value relative to the model and forwards the
// current props, as a view would after a state update.
func (f *MemoryForm) Change(field string, value any) (bool, error) {
	target := f.path
	if field = strings.TrimSpace(field); field != "" {
		target = f.path + "." + field
	}
	if err := f.Store.Change(target, value); err != nil {
		return false, err
	}
	return f.Controller.OnPropsChange(f.Controller.Props())
}

// Submit submits the model.
func (f *MemoryForm) Submit() (any, error) {
	return f.Controller.OnSubmit(nil)
}

// Reset resets the model metadata.
func (f *MemoryForm) Reset() error {
	return f.Controller.OnReset(nil)
}

// Value returns the current model value.
func (f *MemoryForm) Value() any {
	return f.Store.Value(f.path)
}

// Meta returns the current model metadata.
func (f *MemoryForm) Meta() FormMeta {
	return f.Store.Form(f.path)
}
