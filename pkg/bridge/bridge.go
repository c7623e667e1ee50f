package bridge

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formbind/pkg/keypath"
	"github.com/goliatone/go-formbind/pkg/meta"
	"github.com/goliatone/go-formbind/pkg/validity"
)

var (
	errStateMissing      = errors.New("bridge: state provider is required")
	errDispatcherMissing = errors.New("bridge: dispatcher is required")
)

// State returns the current global state snapshot.
type State interface {
	State() any
}

// StateFunc adapts a function into a State.
type StateFunc func() any

// State delegates to the function.
func (fn StateFunc) State() any { return fn() }

// Resolver turns a symbolic model reference into a concrete path.
type Resolver interface {
	ResolveModel(ref string, state any) string
}

// ResolverFunc adapts a function into a Resolver.
type ResolverFunc func(ref string, state any) string

// ResolveModel delegates to the function.
func (fn ResolverFunc) ResolveModel(ref string, state any) string { return fn(ref, state) }

// Getter reads a value at a path, returning nil for missing segments.
type Getter interface {
	Get(state any, path string) any
}

// GetterFunc adapts a function into a Getter.
type GetterFunc func(state any, path string) any

// Get delegates to the function.
func (fn GetterFunc) Get(state any, path string) any { return fn(state, path) }

// FormGetter reads the metadata subtree for a model path.
type FormGetter interface {
	GetForm(state any, path string) meta.FormMeta
}

// FormGetterFunc adapts a function into a FormGetter.
type FormGetterFunc func(state any, path string) meta.FormMeta

// GetForm delegates to the function.
func (fn FormGetterFunc) GetForm(state any, path string) meta.FormMeta { return fn(state, path) }

// FieldAccessor reads a field entry out of form metadata.
type FieldAccessor interface {
	GetField(form meta.FormMeta, path string) meta.FieldMeta
}

// FieldAccessorFunc adapts a function into a FieldAccessor.
type FieldAccessorFunc func(form meta.FormMeta, path string) meta.FieldMeta

// GetField delegates to the function.
func (fn FieldAccessorFunc) GetField(form meta.FormMeta, path string) meta.FieldMeta {
	return fn(form, path)
}

// Dispatcher accepts intents and applies them serially.
type Dispatcher interface {
	Dispatch(intent Intent)
}

// DispatcherFunc adapts a function into a Dispatcher.
type DispatcherFunc func(intent Intent)

// Dispatch delegates to the function.
func (fn DispatcherFunc) Dispatch(intent Intent) { fn(intent) }

// Sequencer issues the per-path sequence tokens stamped on SetFieldsErrors.
// A dispatcher that also orders those intents should implement it so every
// writer of a path draws from the same counter.
type Sequencer interface {
	NextSeq(path string) uint64
}

// SequencerFunc adapts a function into a Sequencer.
type SequencerFunc func(path string) uint64

// NextSeq delegates to the function.
func (fn SequencerFunc) NextSeq(path string) uint64 { return fn(path) }

// Option configures a Bridge.
type Option func(*Bridge)

// WithResolver overrides model path resolution. The default uses the
// reference verbatim.
func WithResolver(resolver Resolver) Option {
	return func(b *Bridge) {
		if resolver != nil {
			b.resolver = resolver
		}
	}
}

// WithGetter overrides value lookup. The default is keypath.Get.
func WithGetter(getter Getter) Option {
	return func(b *Bridge) {
		if getter != nil {
			b.getter = getter
		}
	}
}

// WithFormGetter sets the metadata reader. Without one, every model reads as
// pristine metadata.
func WithFormGetter(forms FormGetter) Option {
	return func(b *Bridge) {
		if forms != nil {
			b.forms = forms
		}
	}
}

// WithFieldAccessor overrides field lookup within metadata.
func WithFieldAccessor(fields FieldAccessor) Option {
	return func(b *Bridge) {
		if fields != nil {
			b.fields = fields
		}
	}
}

// WithIDGenerator overrides intent ID generation (uuid by default).
func WithIDGenerator(next func() string) Option {
	return func(b *Bridge) {
		if next != nil {
			b.nextID = next
		}
	}
}

// WithSequencer sets the token source. By default the dispatcher is used when
// it implements Sequencer, otherwise the bridge counts per path itself.
func WithSequencer(seq Sequencer) Option {
	return func(b *Bridge) {
		if seq != nil {
			b.sequencer = seq
		}
	}
}

// Bridge reads model values and metadata through injected collaborators and
// sends every write as an intent. It keeps no references into global state
// between calls.
type Bridge struct {
	state      State
	dispatcher Dispatcher
	resolver   Resolver
	getter     Getter
	forms      FormGetter
	fields     FieldAccessor
	nextID     func() string
	sequencer  Sequencer
}

// New builds a Bridge around a state provider and a dispatcher.
func New(state State, dispatcher Dispatcher, options ...Option) (*Bridge, error) {
	if state == nil {
		return nil, errStateMissing
	}
	if dispatcher == nil {
		return nil, errDispatcherMissing
	}
	b := &Bridge{
		state:      state,
		dispatcher: dispatcher,
		resolver:   ResolverFunc(func(ref string, _ any) string { return strings.TrimSpace(ref) }),
		getter:     GetterFunc(keypath.Get),
		forms:      FormGetterFunc(func(any, string) meta.FormMeta { return meta.New() }),
		fields:     FieldAccessorFunc(func(form meta.FormMeta, path string) meta.FieldMeta { return form.Field(path) }),
		nextID:     uuid.NewString,
	}
	if seq, ok := dispatcher.(Sequencer); ok {
		b.sequencer = seq
	}
	for _, opt := range options {
		if opt != nil {
			opt(b)
		}
	}
	if b.sequencer == nil {
		b.sequencer = &pathCounter{next: map[string]uint64{}}
	}
	return b, nil
}

// Snapshot is one pass's read-only view of a model.
type Snapshot struct {
	Path  string
	Value any
	Form  meta.FormMeta
}

// Snapshot resolves the model reference and reads its value and metadata.
func (b *Bridge) Snapshot(model string) (Snapshot, error) {
	state := b.state.State()
	path := b.resolver.ResolveModel(model, state)
	if path == "" {
		return Snapshot{}, fmt.Errorf("bridge: model %q resolved to an empty path", model)
	}
	return Snapshot{
		Path:  path,
		Value: b.getter.Get(state, path),
		Form:  b.forms.GetForm(state, path),
	}, nil
}

// Field reads one field entry from a snapshot through the field accessor.
func (b *Bridge) Field(snap Snapshot, path string) meta.FieldMeta {
	return b.fields.GetField(snap.Form, path)
}

// NextSeq returns the next sequence token for path.
func (b *Bridge) NextSeq(path string) uint64 {
	return b.sequencer.NextSeq(path)
}

type pathCounter struct {
	mu   sync.Mutex
	next map[string]uint64
}

func (c *pathCounter) NextSeq(path string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next[path]++
	return c.next[path]
}

func (b *Bridge) header(path string, seq uint64) Header {
	return Header{ID: b.nextID(), Path: path, Seq: seq}
}

// SetValidity dispatches a form-level validity update.
func (b *Bridge) SetValidity(path string, valid bool) Intent {
	return b.send(SetValidity{Header: b.header(path, 0), Valid: valid})
}

// SetFieldsErrors dispatches a computed errors map stamped with seq.
func (b *Bridge) SetFieldsErrors(path string, seq uint64, errs validity.Computed) Intent {
	return b.send(SetFieldsErrors{Header: b.header(path, seq), Errors: errs})
}

// SetPending dispatches the pending flag.
func (b *Bridge) SetPending(path string) Intent {
	return b.send(SetPending{Header: b.header(path, 0), Pending: true})
}

// SetSubmitted dispatches a completed submission.
func (b *Bridge) SetSubmitted(path string) Intent {
	return b.send(SetSubmitted{Header: b.header(path, 0)})
}

// SetSubmitFailed dispatches a rejected submission.
func (b *Bridge) SetSubmitFailed(path string) Intent {
	return b.send(SetSubmitFailed{Header: b.header(path, 0)})
}

// Reset dispatches a metadata reset.
func (b *Bridge) Reset(path string) Intent {
	return b.send(Reset{Header: b.header(path, 0)})
}

// ValidateFieldsErrors dispatches a validate-and-branch intent.
func (b *Bridge) ValidateFieldsErrors(path string, validators validity.Map, next Continuations) Intent {
	return b.send(ValidateFieldsErrors{
		Header:        b.header(path, 0),
		Validators:    validators,
		Continuations: next,
	})
}

func (b *Bridge) send(intent Intent) Intent {
	b.dispatcher.Dispatch(intent)
	return intent
}
