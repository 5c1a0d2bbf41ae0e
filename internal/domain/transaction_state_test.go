package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStates = []TransactionState{StateInitial, StatePending, StateSuccess, StateFailure}

func TestCompareStatesKnownPairs(t *testing.T) {
	cases := []struct {
		current   TransactionState
		candidate TransactionState
		want      Decision
	}{
		{StateInitial, StatePending, Advance},
		{StatePending, StateSuccess, Advance},
		{StatePending, StateFailure, Advance},
		{StateInitial, StateSuccess, Advance},
		{StateSuccess, StateFailure, Reject},
		{StateFailure, StateSuccess, Reject},
		{StateSuccess, StateSuccess, NoOp},
		{StateFailure, StateFailure, NoOp},
		{StatePending, StateInitial, Reject},
		{StateSuccess, StatePending, Reject},
		{StateFailure, StateInitial, Reject},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.current)+"->"+string(tc.candidate), func(t *testing.T) {
			got, err := CompareStates(tc.current, tc.candidate)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompareStatesTerminalFlipIsRejected(t *testing.T) {
	// Equal rank, different terminal state: neither dominates.
	require.Equal(t, Rank(ptr(StateSuccess)), Rank(ptr(StateFailure)))

	got, err := CompareStates(StateSuccess, StateFailure)
	require.NoError(t, err)
	assert.Equal(t, Reject, got)

	got, err = CompareStates(StateFailure, StateSuccess)
	require.NoError(t, err)
	assert.Equal(t, Reject, got)
}

func TestCompareStatesIsTotalAndAntisymmetric(t *testing.T) {
	for _, a := range allStates {
		for _, b := range allStates {
			ab, err := CompareStates(a, b)
			require.NoError(t, err)
			ba, err := CompareStates(b, a)
			require.NoError(t, err)

			assert.Contains(t, []Decision{Advance, NoOp, Reject}, ab)

			switch {
			case a == b:
				assert.Equal(t, NoOp, ab)
			case Rank(&a) < Rank(&b):
				assert.Equal(t, Advance, ab, "%s -> %s", a, b)
				assert.Equal(t, Reject, ba, "%s -> %s", b, a)
			case Rank(&a) == Rank(&b):
				assert.Equal(t, Reject, ab)
				assert.Equal(t, Reject, ba)
			}

			// Never both directions advance.
			assert.False(t, ab == Advance && ba == Advance)
		}
	}
}

func TestCompareStatesNeverLowersRank(t *testing.T) {
	for _, a := range allStates {
		for _, b := range allStates {
			got, err := CompareStates(a, b)
			require.NoError(t, err)
			if got == Advance {
				assert.Greater(t, Rank(&b), Rank(&a))
			}
		}
	}
}

func TestCompareStatesRejectsUnknownLiteral(t *testing.T) {
	cases := []struct {
		current   TransactionState
		candidate TransactionState
	}{
		{StatePending, "Authorised"},
		{"Authorised", StatePending},
		{StatePending, "success"},
		{"", StateSuccess},
	}
	for _, tc := range cases {
		_, err := CompareStates(tc.current, tc.candidate)
		require.ErrorIs(t, err, ErrInvalidState)
	}
}

func TestCompareToExistingAbsentAlwaysAdvances(t *testing.T) {
	for _, s := range allStates {
		got, err := CompareToExisting(nil, s)
		require.NoError(t, err)
		assert.Equal(t, Advance, got)
	}

	_, err := CompareToExisting(nil, "Authorised")
	require.ErrorIs(t, err, ErrInvalidState)

	pending := StatePending
	got, err := CompareToExisting(&pending, StateInitial)
	require.NoError(t, err)
	assert.Equal(t, Reject, got)
}

func TestParseTransactionState(t *testing.T) {
	s, err := ParseTransactionState(" Success ")
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, s)

	_, err = ParseTransactionState("Authorised")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestTerminal(t *testing.T) {
	assert.True(t, StateSuccess.Terminal())
	assert.True(t, StateFailure.Terminal())
	assert.False(t, StatePending.Terminal())
	assert.False(t, TransactionState("Authorised").Terminal())
}

func ptr(s TransactionState) *TransactionState {
	return &s
}
