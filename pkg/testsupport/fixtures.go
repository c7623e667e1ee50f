package testsupport

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/goliatone/go-formbind/pkg/bridge"
	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/store"
)

// Harness couples a memory store with a controller bound to one model.
type Harness struct {
	Store      *store.Memory
	Bridge     *bridge.Bridge
	Controller *form.Controller
	Submitted  []any
}

// NewHarness registers value under props.Model in a fresh store and builds a
// controller for it. When props.OnSubmit is nil, submitted values are
// collected in Harness.Submitted.
func NewHarness(t *testing.T, props form.Props, value any, options ...form.Option) *Harness {
	t.Helper()

	h, err := BuildHarness(props, value, options...)
	if err != nil {
		t.Fatalf("build harness: %v", err)
	}
	return h
}

// BuildHarness is NewHarness without testing.T, for examples and setup code.
func BuildHarness(props form.Props, value any, options ...form.Option) (*Harness, error) {
	if props.Model == "" {
		return nil, errors.New("testsupport: model is required")
	}
	h := &Harness{Store: store.New()}
	if err := h.Store.Register(h.Store.ResolveModel(props.Model, nil), value); err != nil {
		return nil, fmt.Errorf("testsupport: register: %w", err)
	}
	b, err := bridge.New(h.Store, h.Store,
		bridge.WithResolver(h.Store),
		bridge.WithGetter(h.Store),
		bridge.WithFormGetter(h.Store),
		bridge.WithFieldAccessor(h.Store),
	)
	if err != nil {
		return nil, fmt.Errorf("testsupport: bridge: %w", err)
	}
	h.Bridge = b
	if props.OnSubmit == nil {
		props.OnSubmit = func(v any) { h.Submitted = append(h.Submitted, v) }
	}
	ctrl, err := form.New(b, props, options...)
	if err != nil {
		return nil, err
	}
	h.Controller = ctrl
	return h, nil
}

// Change writes a value into the store and forwards unchanged props to the
// controller, the way a view layer re-renders after a state update.
func (h *Harness) Change(t *testing.T, path string, value any) bool {
	t.Helper()

	if err := h.Store.Change(path, value); err != nil {
		t.Fatalf("change %s: %v", path, err)
	}
	rerender, err := h.Controller.OnPropsChange(h.Controller.Props())
	if err != nil {
		t.Fatalf("props change: %v", err)
	}
	return rerender
}

// ReadFixture loads a testdata file.
func ReadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}

// Event records PreventDefault calls.
type Event struct {
	Prevented int
}

// PreventDefault implements form.Event.
func (e *Event) PreventDefault() {
	e.Prevented++
}
