package caseflow

import "fmt"

// Transition names. They double as audit actions for the corresponding
// lifecycle operations.
const (
	TransitionSubmit              = "submit"
	TransitionApprove             = "approve"
	TransitionReject              = "reject"
	TransitionReturn              = "return"
	TransitionConsider            = "consider"
	TransitionRequestVerification = "request_verification"
	TransitionRequestDocuments    = "request_documents"
	TransitionResolve             = "resolve"
	TransitionClose               = "close"
)

// reviewable is the status set from which a case can be approved, rejected
// or returned for revision.
func reviewable(s Status) bool {
	return s == StatusInspected || s == StatusPendingConsideration || s == StatusDataVerification
}

// transitions is the single source of truth for the state machine:
// from-status × transition → to-status. Anything absent here is rejected.
var transitions = map[string]struct {
	from map[Status]bool
	to   Status
}{
	TransitionSubmit: {
		from: map[Status]bool{StatusNew: true, StatusPendingRevision: true},
		to:   StatusInspected,
	},
	TransitionApprove: {
		from: map[Status]bool{StatusInspected: true, StatusPendingConsideration: true, StatusDataVerification: true},
		to:   StatusApproved,
	},
	TransitionReject: {
		from: map[Status]bool{StatusInspected: true, StatusPendingConsideration: true, StatusDataVerification: true},
		to:   StatusRejected,
	},
	// The only backward transition; enables rework.
	TransitionReturn: {
		from: map[Status]bool{StatusInspected: true, StatusPendingConsideration: true, StatusDataVerification: true},
		to:   StatusPendingRevision,
	},
	TransitionConsider: {
		from: map[Status]bool{StatusInspected: true},
		to:   StatusPendingConsideration,
	},
	TransitionRequestVerification: {
		from: map[Status]bool{StatusInspected: true, StatusPendingConsideration: true},
		to:   StatusDataVerification,
	},
	TransitionRequestDocuments: {
		from: map[Status]bool{StatusInspected: true, StatusPendingConsideration: true},
		to:   StatusWaitingDocuments,
	},
	TransitionResolve: {
		from: map[Status]bool{StatusDataVerification: true, StatusWaitingDocuments: true},
		to:   StatusPendingConsideration,
	},
	TransitionClose: {
		from: map[Status]bool{StatusApproved: true, StatusRejected: true},
		to:   StatusClosed,
	},
}

// Next validates a transition against the table and returns the resulting
// status. ErrInvalidTransition carries both sides for the caller's message.
func Next(from Status, transition string) (Status, error) {
	t, ok := transitions[transition]
	if !ok {
		return "", fmt.Errorf("%w: unknown transition %q", ErrInvalidTransition, transition)
	}
	if !t.from[from] {
		return "", fmt.Errorf("%w: cannot %s a %s case", ErrInvalidTransition, transition, from)
	}
	return t.to, nil
}
