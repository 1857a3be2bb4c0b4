package services

import (
	"fmt"

	"civictrack/models"
)

// TransitionPolicy decides whether an issue may move from one status to
// another. A nil error allows the move.
type TransitionPolicy func(from, to models.IssueStatus) error

// TransitionError is returned when a policy rejects a move.
type TransitionError struct {
	From   models.IssueStatus
	To     models.IssueStatus
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move issue from %q to %q: %s", e.From, e.To, e.Reason)
}

// AnyTransition allows every move, including no-ops.
func AnyTransition(from, to models.IssueStatus) error {
	return nil
}

// ForwardOnly rejects moves back along Reported -> In Progress -> Resolved.
func ForwardOnly(from, to models.IssueStatus) error {
	if to.Rank() < from.Rank() {
		return &TransitionError{From: from, To: to, Reason: "status can only move forward"}
	}
	return nil
}

// RejectNoOp rejects moves that leave the status unchanged.
func RejectNoOp(from, to models.IssueStatus) error {
	if from == to {
		return &TransitionError{From: from, To: to, Reason: "status is unchanged"}
	}
	return nil
}

// ChainPolicies applies each policy in order and returns the first rejection.
func ChainPolicies(policies ...TransitionPolicy) TransitionPolicy {
	return func(from, to models.IssueStatus) error {
		for _, p := range policies {
			if err := p(from, to); err != nil {
				return err
			}
		}
		return nil
	}
}

// PolicyByName maps a configuration value to a policy:
// "any" (default), "forward", or "strict" (forward and no no-ops).
func PolicyByName(name string) (TransitionPolicy, error) {
	switch name {
	case "", "any":
		return AnyTransition, nil
	case "forward":
		return ForwardOnly, nil
	case "strict":
		return ChainPolicies(ForwardOnly, RejectNoOp), nil
	}
	return nil, fmt.Errorf("unknown status policy %q", name)
}
