// Package store provides an in-memory state container that satisfies every
// collaborator the form controller needs. Values and metadata are immutable
// snapshots; each write produces a new snapshot and notifies subscribers.
package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formbind/pkg/bridge"
	"github.com/goliatone/go-formbind/pkg/keypath"
	"github.com/goliatone/go-formbind/pkg/meta"
	"github.com/goliatone/go-formbind/pkg/validity"
)

var errPathRequired = errors.New("store: path is required")

var (
	_ bridge.State         = (*Memory)(nil)
	_ bridge.Resolver      = (*Memory)(nil)
	_ bridge.Getter        = (*Memory)(nil)
	_ bridge.FormGetter    = (*Memory)(nil)
	_ bridge.FieldAccessor = (*Memory)(nil)
	_ bridge.Dispatcher    = (*Memory)(nil)
)

// Snapshot is the state handed out by Memory.State. Callers must treat it
// as read-only.
type Snapshot struct {
	Values any
	Forms  map[string]meta.FormMeta
}

// Option configures a Memory store.
type Option func(*Memory)

// WithLogger sets the structured logger. The default discards records.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Memory) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithParent sets the path relative model references (".name") resolve
// against.
func WithParent(parent string) Option {
	return func(m *Memory) {
		m.parent = strings.TrimSpace(parent)
	}
}

// WithInitial seeds the value tree.
func WithInitial(values map[string]any) Option {
	return func(m *Memory) {
		m.values = keypath.Clone(values)
	}
}

// Memory is a serialised, in-process state container.
type Memory struct {
	mu        sync.Mutex
	values    any
	forms     map[string]meta.FormMeta
	lastSeq   map[string]uint64
	issued    map[string]uint64
	parent    string
	logger    *slog.Logger
	listeners []func(Snapshot)
	applied   []bridge.Intent
}

// New constructs an empty store.
func New(options ...Option) *Memory {
	m := &Memory{
		values:  map[string]any{},
		forms:   map[string]meta.FormMeta{},
		lastSeq: map[string]uint64{},
		issued:  map[string]uint64{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// State returns the current snapshot.
func (m *Memory) State() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Memory) snapshotLocked() Snapshot {
	return Snapshot{Values: m.values, Forms: m.forms}
}

// Subscribe registers a listener called after every applied write.
func (m *Memory) Subscribe(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Register binds a model path: the value is written and pristine metadata
// is created unless the path already has some.
func (m *Memory) Register(path string, value any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errPathRequired
	}
	m.mu.Lock()
	next, err := keypath.Set(m.values, path, value)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("store: register %s: %w", path, err)
	}
	m.values = next
	if _, ok := m.forms[path]; !ok {
		m.forms = withForm(m.forms, path, meta.New())
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Debug("model registered", "path", path)
	m.notify(snap)
	return nil
}

// Change writes a value. A change inside a registered model clears its
// submitted and submit-failed flags.
func (m *Memory) Change(path string, value any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errPathRequired
	}
	m.mu.Lock()
	next, err := keypath.Set(m.values, path, value)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("store: change %s: %w", path, err)
	}
	m.values = next
	for _, model := range m.modelsContainingLocked(path) {
		form := m.forms[model].Clone()
		form.Form.SubmitFailed = false
		form.Form.Submitted = false
		m.forms = withForm(m.forms, model, form)
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Debug("value changed", "path", path)
	m.notify(snap)
	return nil
}

// Value reads a value from the current snapshot.
func (m *Memory) Value(path string) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return keypath.Get(m.values, path)
}

// Form reads the metadata of a model from the current snapshot.
func (m *Memory) Form(path string) meta.FormMeta {
	m.mu.Lock()
	defer m.mu.Unlock()
	if form, ok := m.forms[path]; ok {
		return form
	}
	return meta.New()
}

// Applied returns the intents applied so far, oldest first.
func (m *Memory) Applied() []bridge.Intent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bridge.Intent(nil), m.applied...)
}

// ResolveModel implements bridge.Resolver. References starting with "." are
// relative to the configured parent.
func (m *Memory) ResolveModel(ref string, _ any) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, ".") {
		return keypath.Join(m.parent, strings.TrimPrefix(ref, "."))
	}
	return ref
}

// Get implements bridge.Getter.
func (m *Memory) Get(state any, path string) any {
	snap, ok := state.(Snapshot)
	if !ok {
		return nil
	}
	return keypath.Get(snap.Values, path)
}

// GetForm implements bridge.FormGetter.
func (m *Memory) GetForm(state any, path string) meta.FormMeta {
	snap, ok := state.(Snapshot)
	if !ok {
		return meta.New()
	}
	if form, ok := snap.Forms[path]; ok {
		return form
	}
	return meta.New()
}

// GetField implements bridge.FieldAccessor.
func (m *Memory) GetField(form meta.FormMeta, path string) meta.FieldMeta {
	return form.Field(path)
}

// NextSeq implements bridge.Sequencer. Tokens are shared by every writer of
// a path, so a controller mounted after another one never starts behind the
// last applied pass.
func (m *Memory) NextSeq(path string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := max(m.issued[path], m.lastSeq[path]) + 1
	m.issued[path] = next
	return next
}

// Dispatch implements bridge.Dispatcher. Intents are applied one at a time;
// continuations of ValidateFieldsErrors run after the write is visible.
func (m *Memory) Dispatch(intent bridge.Intent) {
	if intent == nil {
		return
	}
	header := intent.Meta()

	m.mu.Lock()
	next, applied := m.applyLocked(intent)
	if applied {
		m.applied = append(m.applied, intent)
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Debug("intent",
		"intent", string(intent.Kind()),
		"id", header.ID,
		"path", header.Path,
		"seq", header.Seq,
		"applied", applied,
	)
	if applied {
		m.notify(snap)
	}
	if next != nil {
		next()
	}
}

func (m *Memory) applyLocked(intent bridge.Intent) (func(), bool) {
	header := intent.Meta()
	path := header.Path
	form := m.formLocked(path).Clone()

	switch typed := intent.(type) {
	case bridge.SetValidity:
		form.Form.Valid = typed.Valid
		form.Form.Validity = validity.Bool(typed.Valid)
		form.Form.Errors = validity.Bool(!typed.Valid)

	case bridge.SetFieldsErrors:
		if header.Seq != 0 {
			if header.Seq <= m.lastSeq[path] {
				m.logger.Debug("stale errors dropped", "path", path, "seq", header.Seq, "last", m.lastSeq[path])
				return nil, false
			}
			m.lastSeq[path] = header.Seq
		}
		form = form.WithErrors(typed.Errors)

	case bridge.SetPending:
		form.Form.Pending = typed.Pending
		form.Form.Submitted = false

	case bridge.SetSubmitted:
		form.Form.Pending = false
		form.Form.Submitted = true
		form.Form.SubmitFailed = false

	case bridge.SetSubmitFailed:
		form.Form.Pending = false
		form.Form.Submitted = false
		form.Form.SubmitFailed = true

	case bridge.Reset:
		form = meta.New()
		// passes issued before the reset stay stale; other writers start over
		if issued := m.issued[path]; issued > 0 {
			m.lastSeq[path] = issued
		} else {
			delete(m.lastSeq, path)
		}

	case bridge.ValidateFieldsErrors:
		computed := evaluate(keypath.Get(m.values, path), typed.Validators)
		form = form.WithErrors(computed)
		m.forms = withForm(m.forms, path, form)
		if form.Valid() {
			return typed.OnValid, true
		}
		return typed.OnInvalid, true

	default:
		m.logger.Warn("unknown intent ignored", "intent", string(intent.Kind()), "path", path)
		return nil, false
	}

	m.forms = withForm(m.forms, path, form)
	return nil, true
}

func (m *Memory) formLocked(path string) meta.FormMeta {
	if form, ok := m.forms[path]; ok {
		return form
	}
	return meta.New()
}

func (m *Memory) modelsContainingLocked(path string) []string {
	var out []string
	for model := range m.forms {
		if path == model || strings.HasPrefix(path, model+".") || strings.HasPrefix(model, path+".") {
			out = append(out, model)
		}
	}
	sort.Strings(out)
	return out
}

func (m *Memory) notify(snap Snapshot) {
	m.mu.Lock()
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

// evaluate runs error validators against a model value. The form-level entry
// defaults to the aggregate of the field entries.
func evaluate(value any, validators validity.Map) validity.Computed {
	computed := make(validity.Computed, len(validators)+1)
	for _, path := range validators.Keys() {
		validator := validators[path]
		if validator == nil {
			continue
		}
		sub := value
		if path != validity.FormKey {
			sub = keypath.Get(value, path)
		}
		computed[path] = validator.Validate(sub)
	}
	if _, ok := computed[validity.FormKey]; !ok {
		computed[validity.FormKey] = validity.Bool(!computed.FieldsValid())
	}
	return computed
}

func withForm(forms map[string]meta.FormMeta, path string, form meta.FormMeta) map[string]meta.FormMeta {
	out := make(map[string]meta.FormMeta, len(forms)+1)
	for key, value := range forms {
		out[key] = value
	}
	out[path] = form
	return out
}
