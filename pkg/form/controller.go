package form

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/goliatone/go-formbind/pkg/bridge"
	"github.com/goliatone/go-formbind/pkg/detect"
	"github.com/goliatone/go-formbind/pkg/engine"
	"github.com/goliatone/go-formbind/pkg/meta"
	"github.com/goliatone/go-formbind/pkg/submit"
	"github.com/goliatone/go-formbind/pkg/validity"
)

var (
	// ErrModelRequired is returned when a controller is built without a model
	// reference.
	ErrModelRequired = errors.New("form: model is required")

	errBridgeMissing = errors.New("form: bridge is required")
)

// Config is the constructor-time configuration of a bound form.
type Config struct {
	// Model is the symbolic reference of the bound value in global state.
	Model string
	// Validators map field paths to validity checks (true = valid).
	Validators validity.Map
	// Errors map field paths to error checks (true = error).
	Errors validity.Map
	// ValidateOn selects when validation runs; zero means on change.
	ValidateOn detect.Trigger
	// OnSubmit receives the model value after a successful submit.
	OnSubmit func(value any)
}

// Props are the inputs of one render: the configuration plus the values that
// affect rendered output.
type Props struct {
	Config
	Render detect.RenderProps
}

// Event is the view-layer event accompanying submit and reset requests.
type Event interface {
	PreventDefault()
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger. The default discards records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithValueEquality replaces the sameness check used to skip recomputation.
// detect.Identical (the default) compares containers by reference;
// detect.DeepEqual compares structurally.
func WithValueEquality(eq detect.Equality) Option {
	return func(c *Controller) {
		if eq != nil {
			c.same = eq
		}
	}
}

// WithAutoSettle controls whether a valid submit dispatches SetSubmitted as
// soon as the callback returns (the default). With false the form stays
// pending until Settle is called, for callbacks that hand the value to an
// asynchronous transport.
func WithAutoSettle(auto bool) Option {
	return func(c *Controller) {
		c.autoSettle = auto
	}
}

// Controller binds one model to validation and submission behaviour. All
// methods are expected to be called from a single goroutine, one event at a
// time.
type Controller struct {
	bridge *bridge.Bridge
	props  Props
	logger *slog.Logger
	same   detect.Equality

	prevValue         any
	prevValidatorKeys []string
	prevErrorKeys     []string

	autoSettle bool
	state      submit.State
}

// New validates the configuration and builds a controller.
func New(b *bridge.Bridge, props Props, options ...Option) (*Controller, error) {
	if strings.TrimSpace(props.Model) == "" {
		return nil, ErrModelRequired
	}
	if b == nil {
		return nil, errBridgeMissing
	}
	c := &Controller{
		bridge: b,
		props:  props,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		same:   detect.Identical,

		autoSettle: true,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Props returns the current props.
func (c *Controller) Props() Props {
	return c.props
}

// State returns the submission state as tracked by this controller.
func (c *Controller) State() submit.State {
	return c.state
}

// Meta reads the current form metadata of the bound model.
func (c *Controller) Meta() (meta.FormMeta, error) {
	snap, err := c.bridge.Snapshot(c.props.Model)
	if err != nil {
		return meta.FormMeta{}, err
	}
	return snap.Form, nil
}

// OnMount runs the initial validation pass when validating on change.
func (c *Controller) OnMount() error {
	snap, err := c.bridge.Snapshot(c.props.Model)
	if err != nil {
		return err
	}
	if c.props.ValidateOn.Has(detect.OnChange) {
		c.validate(snap, c.props, true)
	}
	c.remember(snap, c.props)
	return nil
}

// OnPropsChange applies new props, revalidating when the trigger allows it.
// It reports whether the rendered output should be refreshed.
func (c *Controller) OnPropsChange(next Props) (bool, error) {
	if strings.TrimSpace(next.Model) == "" {
		return false, ErrModelRequired
	}
	snap, err := c.bridge.Snapshot(next.Model)
	if err != nil {
		return false, err
	}

	if !c.same(snap.Value, c.prevValue) {
		c.transition(submit.Changed)
	}
	if detect.ShouldRevalidate(c.props.ValidateOn, next.ValidateOn) {
		c.validate(snap, next, false)
	}

	rerender := detect.ShouldRerender(c.props.Render, next.Render)
	c.props = next
	c.remember(snap, next)
	return rerender, nil
}

// OnSubmit validates and submits the bound model. Without validators and
// with a valid form the callback runs immediately and nothing is
// dispatched, unless auto settle is off; otherwise a validate-and-branch intent decides between the
// pending/callback path and the submit-failed path.
func (c *Controller) OnSubmit(ev Event) (any, error) {
	if ev != nil {
		ev.PreventDefault()
	}
	snap, err := c.bridge.Snapshot(c.props.Model)
	if err != nil {
		return nil, err
	}
	value := snap.Value
	onSubmit := c.props.OnSubmit

	if c.autoSettle && len(c.props.Validators) == 0 && onSubmit != nil && snap.Form.Valid() {
		c.logger.Debug("submit fast path", "model", c.props.Model)
		c.transition(submit.Valid)
		onSubmit(value)
		c.transition(submit.Settled)
		return value, nil
	}

	final := validity.ErrorValidators(c.props.Validators, c.props.Errors)
	path := snap.Path
	c.bridge.ValidateFieldsErrors(path, final, bridge.Continuations{
		OnValid: func() {
			c.bridge.SetPending(path)
			c.transition(submit.Valid)
			if onSubmit != nil {
				onSubmit(value)
			}
			if c.autoSettle {
				c.settle(path)
			}
		},
		OnInvalid: func() {
			c.bridge.SetSubmitFailed(path)
			c.transition(submit.Invalid)
		},
	})
	return value, nil
}

// Settle records a completed submission for a pending form. It is only
// needed when auto settle is off; a form that is not pending is left alone.
func (c *Controller) Settle() error {
	snap, err := c.bridge.Snapshot(c.props.Model)
	if err != nil {
		return err
	}
	if !snap.Form.Form.Pending {
		return nil
	}
	c.settle(snap.Path)
	return nil
}

func (c *Controller) settle(path string) {
	c.bridge.SetSubmitted(path)
	c.transition(submit.Settled)
}

// OnReset dispatches a reset for the bound model regardless of its state.
func (c *Controller) OnReset(ev Event) error {
	if ev != nil {
		ev.PreventDefault()
	}
	snap, err := c.bridge.Snapshot(c.props.Model)
	if err != nil {
		return err
	}
	c.bridge.Reset(snap.Path)
	c.transition(submit.Reset)
	return nil
}

func (c *Controller) validate(snap bridge.Snapshot, props Props, initial bool) engine.Pass {
	pass := engine.Compute(engine.Input{
		Value:             snap.Value,
		Previous:          c.prevValue,
		Validators:        props.Validators,
		Errors:            props.Errors,
		PrevValidatorKeys: c.prevValidatorKeys,
		PrevErrorKeys:     c.prevErrorKeys,
		Form:              snap.Form,
		Initial:           initial,
		Same:              c.same,
		Field: func(form meta.FormMeta, path string) meta.FieldMeta {
			return c.bridge.Field(bridge.Snapshot{Form: form}, path)
		},
	})

	switch {
	case pass.Reconcile:
		c.bridge.SetValidity(snap.Path, true)
	case pass.Changed:
		c.bridge.SetFieldsErrors(snap.Path, c.bridge.NextSeq(snap.Path), pass.Errors)
	}

	c.logger.Debug("validation pass",
		"model", props.Model,
		"path", snap.Path,
		"initial", initial,
		"changed", pass.Changed,
		"reconcile", pass.Reconcile,
		"skipped", pass.Skipped,
	)
	return pass
}

func (c *Controller) remember(snap bridge.Snapshot, props Props) {
	c.prevValue = snap.Value
	c.prevValidatorKeys = props.Validators.Keys()
	c.prevErrorKeys = props.Errors.Keys()
}

func (c *Controller) transition(ev submit.Event) {
	next := submit.Transition(c.state, ev)
	if next != c.state {
		c.logger.Debug("submit state", "model", c.props.Model, "event", ev.String(), "from", c.state.String(), "to", next.String())
	}
	c.state = next
}
