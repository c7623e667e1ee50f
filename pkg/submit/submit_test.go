package submit_test

import (
	"testing"

	"github.com/goliatone/go-formbind/pkg/meta"
	"github.com/goliatone/go-formbind/pkg/submit"
)

func TestTransitions(t *testing.T) {
	cases := []struct {
		from submit.State
		on   submit.Event
		want submit.State
	}{
		{submit.Idle, submit.Valid, submit.Pending},
		{submit.Idle, submit.Invalid, submit.SubmittedInvalid},
		{submit.Pending, submit.Settled, submit.SubmittedValid},
		{submit.Idle, submit.Settled, submit.Idle},
		{submit.SubmittedInvalid, submit.Changed, submit.Idle},
		{submit.SubmittedValid, submit.Changed, submit.Idle},
		{submit.Pending, submit.Changed, submit.Pending},
		{submit.Pending, submit.Reset, submit.Idle},
		{submit.SubmittedInvalid, submit.Reset, submit.Idle},
		{submit.SubmittedValid, submit.Reset, submit.Idle},
	}
	for _, tc := range cases {
		if got := submit.Transition(tc.from, tc.on); got != tc.want {
			t.Fatalf("Transition(%s, %s) = %s, want %s", tc.from, tc.on, got, tc.want)
		}
	}
}

func TestStateOf(t *testing.T) {
	if got := submit.StateOf(meta.Pristine()); got != submit.Idle {
		t.Fatalf("expected idle, got %s", got)
	}
	if got := submit.StateOf(meta.FieldMeta{Pending: true, Submitted: true}); got != submit.Pending {
		t.Fatalf("expected pending to win, got %s", got)
	}
	if got := submit.StateOf(meta.FieldMeta{SubmitFailed: true}); got != submit.SubmittedInvalid {
		t.Fatalf("expected submitted invalid, got %s", got)
	}
	if got := submit.StateOf(meta.FieldMeta{Submitted: true}); got != submit.SubmittedValid {
		t.Fatalf("expected submitted valid, got %s", got)
	}
}
