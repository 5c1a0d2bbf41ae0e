package domain

import (
	"fmt"
	"strings"
)

// TransactionState is the lifecycle state of a single payment transaction.
type TransactionState string

const (
	StateInitial TransactionState = "Initial"
	StatePending TransactionState = "Pending"
	StateSuccess TransactionState = "Success"
	StateFailure TransactionState = "Failure"
)

// rankAbsent is the rank of a transaction type that does not exist on the payment yet.
const rankAbsent = -1

const rankTerminal = 2

var stateRanks = map[TransactionState]int{
	StateInitial: 0,
	StatePending: 1,
	StateSuccess: rankTerminal,
	StateFailure: rankTerminal,
}

// Decision is the verdict of comparing a reported state against the current one.
type Decision int

const (
	Reject Decision = iota
	NoOp
	Advance
)

func (d Decision) String() string {
	switch d {
	case Advance:
		return "advance"
	case NoOp:
		return "noop"
	default:
		return "reject"
	}
}

// Valid reports whether s is a member of the state enumeration.
func (s TransactionState) Valid() bool {
	_, ok := stateRanks[s]
	return ok
}

// Terminal reports whether s can no longer change.
func (s TransactionState) Terminal() bool {
	return stateRanks[s] == rankTerminal && s.Valid()
}

// ParseTransactionState returns the state for a literal, rejecting anything outside the enumeration.
// Matching is exact: "success" or "Authorised" are errors.
func ParseTransactionState(raw string) (TransactionState, error) {
	s := TransactionState(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, raw)
	}
	return s, nil
}

// CompareStates decides whether candidate may replace current.
//
// Success and Failure share the terminal rank but exclude each other, so a flip
// between them is rejected rather than treated as equal progress.
func CompareStates(current, candidate TransactionState) (Decision, error) {
	if !current.Valid() || !candidate.Valid() {
		return Reject, fmt.Errorf("%w: current=%q candidate=%q", ErrInvalidState, current, candidate)
	}
	if candidate == current {
		return NoOp, nil
	}

	cur, next := stateRanks[current], stateRanks[candidate]
	if next == cur && current.Terminal() {
		// Success <-> Failure flip.
		return Reject, nil
	}
	if next > cur {
		return Advance, nil
	}
	return Reject, nil
}

// CompareToExisting is CompareStates where current may be absent. An absent transaction
// ranks below Initial, so any valid candidate advances it.
func CompareToExisting(current *TransactionState, candidate TransactionState) (Decision, error) {
	if current == nil {
		if !candidate.Valid() {
			return Reject, fmt.Errorf("%w: candidate=%q", ErrInvalidState, candidate)
		}
		return Advance, nil
	}
	return CompareStates(*current, candidate)
}

// Rank exposes the ordering position of s; unknown states and absence rank -1.
func Rank(s *TransactionState) int {
	if s == nil {
		return rankAbsent
	}
	r, ok := stateRanks[*s]
	if !ok {
		return rankAbsent
	}
	return r
}
