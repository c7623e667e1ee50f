package bridge

import (
	"github.com/goliatone/go-formbind/pkg/validity"
)

// Kind names an intent for logging and dispatch switches.
type Kind string

const (
	KindSetValidity          Kind = "setValidity"
	KindSetFieldsErrors      Kind = "setFieldsErrors"
	KindSetPending           Kind = "setPending"
	KindSetSubmitted         Kind = "setSubmitted"
	KindSetSubmitFailed      Kind = "setSubmitFailed"
	KindReset                Kind = "reset"
	KindValidateFieldsErrors Kind = "validateFieldsErrors"
)

// Intent describes a state mutation for the dispatcher to apply. The core
// never mutates state itself.
type Intent interface {
	Kind() Kind
	Meta() Header
}

// Header carries the fields common to every intent. ID correlates log
// records; Seq is the per-path sequence token of the pass that produced the
// intent (zero when the intent is not ordered).
type Header struct {
	ID   string
	Path string
	Seq  uint64
}

// Meta returns the header.
func (h Header) Meta() Header { return h }

// SetValidity marks the form-level entry valid or invalid.
type SetValidity struct {
	Header
	Valid bool
}

func (SetValidity) Kind() Kind { return KindSetValidity }

// SetFieldsErrors replaces the errors of every field named in Errors.
type SetFieldsErrors struct {
	Header
	Errors validity.Computed
}

func (SetFieldsErrors) Kind() Kind { return KindSetFieldsErrors }

// SetPending marks the form as submitting.
type SetPending struct {
	Header
	Pending bool
}

func (SetPending) Kind() Kind { return KindSetPending }

// SetSubmitted records a completed submission and clears pending.
type SetSubmitted struct {
	Header
}

func (SetSubmitted) Kind() Kind { return KindSetSubmitted }

// SetSubmitFailed records a rejected submission.
type SetSubmitFailed struct {
	Header
}

func (SetSubmitFailed) Kind() Kind { return KindSetSubmitFailed }

// Reset returns the form metadata to its pristine state.
type Reset struct {
	Header
}

func (Reset) Kind() Kind { return KindReset }

// Continuations are run by the dispatcher once a ValidateFieldsErrors intent
// has been applied.
type Continuations struct {
	OnValid   func()
	OnInvalid func()
}

// ValidateFieldsErrors asks the dispatcher to evaluate error validators
// against the current value, store the result and continue with OnValid or
// OnInvalid.
type ValidateFieldsErrors struct {
	Header
	Validators validity.Map
	Continuations
}

func (ValidateFieldsErrors) Kind() Kind { return KindValidateFieldsErrors }
