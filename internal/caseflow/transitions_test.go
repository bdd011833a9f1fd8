package caseflow

import (
	"errors"
	"testing"
)

func TestNext(t *testing.T) {
	cases := []struct {
		from       Status
		transition string
		want       Status
		wantErr    bool
	}{
		{StatusNew, TransitionSubmit, StatusInspected, false},
		{StatusPendingRevision, TransitionSubmit, StatusInspected, false},
		{StatusInspected, TransitionSubmit, "", true},
		{StatusApproved, TransitionSubmit, "", true},

		{StatusInspected, TransitionApprove, StatusApproved, false},
		{StatusPendingConsideration, TransitionApprove, StatusApproved, false},
		{StatusDataVerification, TransitionApprove, StatusApproved, false},
		{StatusNew, TransitionApprove, "", true},
		{StatusWaitingDocuments, TransitionApprove, "", true},

		{StatusInspected, TransitionReject, StatusRejected, false},
		{StatusRejected, TransitionReject, "", true},

		{StatusInspected, TransitionReturn, StatusPendingRevision, false},
		{StatusDataVerification, TransitionReturn, StatusPendingRevision, false},
		{StatusNew, TransitionReturn, "", true},

		{StatusInspected, TransitionConsider, StatusPendingConsideration, false},
		{StatusNew, TransitionConsider, "", true},

		{StatusInspected, TransitionRequestVerification, StatusDataVerification, false},
		{StatusPendingConsideration, TransitionRequestDocuments, StatusWaitingDocuments, false},
		{StatusDataVerification, TransitionRequestVerification, "", true},

		{StatusDataVerification, TransitionResolve, StatusPendingConsideration, false},
		{StatusWaitingDocuments, TransitionResolve, StatusPendingConsideration, false},
		{StatusInspected, TransitionResolve, "", true},

		{StatusApproved, TransitionClose, StatusClosed, false},
		{StatusRejected, TransitionClose, StatusClosed, false},
		{StatusInspected, TransitionClose, "", true},
	}
	for _, c := range cases {
		got, err := Next(c.from, c.transition)
		if c.wantErr {
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("Next(%s, %s): want ErrInvalidTransition, got %v", c.from, c.transition, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Next(%s, %s): %v", c.from, c.transition, err)
		}
		if got != c.want {
			t.Fatalf("Next(%s, %s) = %s, want %s", c.from, c.transition, got, c.want)
		}
	}
}

func TestNextUnknownTransition(t *testing.T) {
	if _, err := Next(StatusNew, "escalate"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition for unknown transition, got %v", err)
	}
}

func TestClosedIsTerminal(t *testing.T) {
	for name := range transitions {
		if _, err := Next(StatusClosed, name); err == nil {
			t.Fatalf("transition %q allowed out of closed", name)
		}
	}
}

func TestNoTransitionSkipsInspection(t *testing.T) {
	// A new case can only ever move to inspected.
	for name := range transitions {
		next, err := Next(StatusNew, name)
		if err != nil {
			continue
		}
		if next != StatusInspected {
			t.Fatalf("transition %q moves new directly to %s", name, next)
		}
	}
}
