// Package submit models the submission lifecycle of a bound form.
package submit

import (
	"fmt"

	"github.com/goliatone/go-formbind/pkg/meta"
)

// State is a submission state.
type State int

const (
	Idle State = iota
	Pending
	SubmittedValid
	SubmittedInvalid
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case SubmittedValid:
		return "submitted_valid"
	case SubmittedInvalid:
		return "submitted_invalid"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event drives a transition.
type Event int

const (
	// Valid is raised when a submit request validated successfully.
	Valid Event = iota
	// Invalid is raised when a submit request failed validation.
	Invalid
	// Settled is raised once the submit callback has returned.
	Settled
	// Changed is raised when the model value changes.
	Changed
	// Reset is raised by an explicit reset.
	Reset
)

func (e Event) String() string {
	switch e {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case Settled:
		return "settled"
	case Changed:
		return "changed"
	case Reset:
		return "reset"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Transition returns the state reached from s on e. Events that do not apply
// leave the state unchanged.
func Transition(s State, e Event) State {
	switch e {
	case Reset:
		return Idle
	case Valid:
		return Pending
	case Invalid:
		return SubmittedInvalid
	case Settled:
		if s == Pending {
			return SubmittedValid
		}
	case Changed:
		if s == SubmittedValid || s == SubmittedInvalid {
			return Idle
		}
	}
	return s
}

// StateOf derives the state recorded in form-level metadata.
func StateOf(form meta.FieldMeta) State {
	switch {
	case form.Pending:
		return Pending
	case form.SubmitFailed:
		return SubmittedInvalid
	case form.Submitted:
		return SubmittedValid
	default:
		return Idle
	}
}
