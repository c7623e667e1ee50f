package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formbind/pkg/bridge"
	"github.com/goliatone/go-formbind/pkg/store"
	"github.com/goliatone/go-formbind/pkg/validity"
)

func TestRegisterCreatesPristineMetadata(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Register("user", map[string]any{"email": "a"}))

	assert.Equal(t, "a", s.Value("user.email"))
	form := s.Form("user")
	assert.True(t, form.Form.Valid)
	assert.Empty(t, form.Fields)

	require.ErrorContains(t, s.Register(" ", nil), "path is required")
}

func TestSnapshotsAreImmutable(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Register("user", map[string]any{"email": "a"}))

	before := s.State()
	require.NoError(t, s.Change("user.email", "b"))
	after := s.State()

	assert.Equal(t, "a", s.Get(before, "user.email"))
	assert.Equal(t, "b", s.Get(after, "user.email"))
}

func TestResolveModelRelative(t *testing.T) {
	s := store.New(store.WithParent("forms"))
	assert.Equal(t, "forms.user", s.ResolveModel(".user", nil))
	assert.Equal(t, "user", s.ResolveModel("user", nil))
}

func TestSetFieldsErrorsRejectsStaleSequence(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Register("user", map[string]any{}))

	s.Dispatch(bridge.SetFieldsErrors{
		Header: bridge.Header{Path: "user", Seq: 2},
		Errors: validity.Computed{"email": validity.Bool(false)},
	})
	s.Dispatch(bridge.SetFieldsErrors{
		Header: bridge.Header{Path: "user", Seq: 1},
		Errors: validity.Computed{"email": validity.Bool(true)},
	})

	assert.True(t, s.Form("user").Field("email").Valid, "stale errors should be dropped")
	assert.Len(t, s.Applied(), 1)
}

func TestNextSeqIsSharedByWritersOfAPath(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Register("user", map[string]any{}))

	first := s.NextSeq("user")
	second := s.NextSeq("user")
	assert.Equal(t, uint64(1), s.NextSeq("other"), "paths count independently")
	assert.Greater(t, second, first)

	s.Dispatch(bridge.SetFieldsErrors{
		Header: bridge.Header{Path: "user", Seq: second},
		Errors: validity.Computed{"email": validity.Bool(true)},
	})
	s.Dispatch(bridge.SetFieldsErrors{
		Header: bridge.Header{Path: "user", Seq: first},
		Errors: validity.Computed{"email": validity.Bool(false)},
	})
	assert.False(t, s.Form("user").Field("email").Valid, "the older pass must not overwrite the newer one")

	// a writer that joins later still draws a token ahead of the last applied pass
	third := s.NextSeq("user")
	assert.Greater(t, third, second)
	s.Dispatch(bridge.SetFieldsErrors{
		Header: bridge.Header{Path: "user", Seq: third},
		Errors: validity.Computed{"email": validity.Bool(false)},
	})
	assert.True(t, s.Form("user").Field("email").Valid)
}

func TestNextSeqSkipsPastHandFedTokens(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Register("user", map[string]any{}))

	s.Dispatch(bridge.SetFieldsErrors{
		Header: bridge.Header{Path: "user", Seq: 7},
		Errors: validity.Computed{"email": validity.Bool(true)},
	})
	assert.Equal(t, uint64(8), s.NextSeq("user"))
}

func TestResetFencesEarlierPasses(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Register("user", map[string]any{}))

	inflight := s.NextSeq("user")
	s.Dispatch(bridge.Reset{Header: bridge.Header{Path: "user"}})
	s.Dispatch(bridge.SetFieldsErrors{
		Header: bridge.Header{Path: "user", Seq: inflight},
		Errors: validity.Computed{"email": validity.Bool(true)},
	})
	assert.True(t, s.Form("user").Valid(), "a pass issued before the reset is stale")

	s.Dispatch(bridge.SetFieldsErrors{
		Header: bridge.Header{Path: "user", Seq: s.NextSeq("user")},
		Errors: validity.Computed{"email": validity.Bool(true)},
	})
	assert.False(t, s.Form("user").Field("email").Valid)
}

func TestResetRestartsHandFedSequence(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Register("user", map[string]any{}))

	s.Dispatch(bridge.SetFieldsErrors{
		Header: bridge.Header{Path: "user", Seq: 4},
		Errors: validity.Computed{"email": validity.Bool(true)},
	})
	s.Dispatch(bridge.Reset{Header: bridge.Header{Path: "user"}})
	s.Dispatch(bridge.SetFieldsErrors{
		Header: bridge.Header{Path: "user", Seq: 1},
		Errors: validity.Computed{"email": validity.Bool(true)},
	})
	assert.False(t, s.Form("user").Field("email").Valid, "passes after a reset start a new sequence")
	assert.Len(t, s.Applied(), 3)
}

func TestSubmitLifecycleFlags(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Register("user", map[string]any{"email": "a"}))

	s.Dispatch(bridge.SetSubmitFailed{Header: bridge.Header{Path: "user"}})
	assert.True(t, s.Form("user").Form.SubmitFailed)

	require.NoError(t, s.Change("user.email", "b"))
	assert.False(t, s.Form("user").Form.SubmitFailed, "a value change clears submit failure")

	s.Dispatch(bridge.SetPending{Header: bridge.Header{Path: "user"}, Pending: true})
	assert.True(t, s.Form("user").Form.Pending)

	s.Dispatch(bridge.SetSubmitted{Header: bridge.Header{Path: "user"}})
	form := s.Form("user").Form
	assert.False(t, form.Pending)
	assert.True(t, form.Submitted)

	s.Dispatch(bridge.Reset{Header: bridge.Header{Path: "user"}})
	form = s.Form("user").Form
	assert.False(t, form.Submitted)
	assert.True(t, form.Valid)
}

func TestValidateFieldsErrorsBranches(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Register("user", map[string]any{"email": "bad"}))

	errs := validity.Map{
		"email": validity.Func(func(v any) bool { return v == "bad" }),
	}

	var valid, invalid int
	next := bridge.Continuations{
		OnValid:   func() { valid++ },
		OnInvalid: func() { invalid++ },
	}

	s.Dispatch(bridge.ValidateFieldsErrors{Header: bridge.Header{Path: "user"}, Validators: errs, Continuations: next})
	assert.Equal(t, 0, valid)
	assert.Equal(t, 1, invalid)
	assert.False(t, s.Form("user").Field("email").Valid)
	assert.False(t, s.Form("user").Form.Valid)

	require.NoError(t, s.Change("user.email", "a@b.com"))
	s.Dispatch(bridge.ValidateFieldsErrors{Header: bridge.Header{Path: "user"}, Validators: errs, Continuations: next})
	assert.Equal(t, 1, valid)
	assert.True(t, s.Form("user").Valid())
}

func TestContinuationsCanDispatch(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Register("user", map[string]any{}))

	s.Dispatch(bridge.ValidateFieldsErrors{
		Header: bridge.Header{Path: "user"},
		Continuations: bridge.Continuations{
			OnValid: func() {
				s.Dispatch(bridge.SetPending{Header: bridge.Header{Path: "user"}, Pending: true})
			},
		},
	})
	assert.True(t, s.Form("user").Form.Pending)
}

func TestSubscribeNotifiesOnWrites(t *testing.T) {
	s := store.New()
	var seen int
	s.Subscribe(func(store.Snapshot) { seen++ })

	require.NoError(t, s.Register("user", map[string]any{}))
	s.Dispatch(bridge.SetValidity{Header: bridge.Header{Path: "user"}, Valid: false})

	assert.Equal(t, 2, seen)
	assert.False(t, s.Form("user").Form.Valid)
}
