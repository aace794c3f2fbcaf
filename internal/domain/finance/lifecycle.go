package finance

import (
	"fmt"

	"github.com/oneflow/backend/internal/domain/shared"
)

// TransitionPolicy decides whether a document may move between two states
// that are both members of its type's enum.
type TransitionPolicy interface {
	Allow(t DocumentType, from, to DocumentStatus) error
}

// PermissiveTransitions allows any member state from any other, in any order.
// This is the default policy.
type PermissiveTransitions struct{}

// Allow always succeeds
func (PermissiveTransitions) Allow(DocumentType, DocumentStatus, DocumentStatus) error {
	return nil
}

// ForwardOnlyTransitions rejects moves to an earlier lifecycle state
type ForwardOnlyTransitions struct{}

// Allow succeeds when to is not earlier than from
func (ForwardOnlyTransitions) Allow(t DocumentType, from, to DocumentStatus) error {
	if t.statusRank(to) < t.statusRank(from) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot move %s from %s back to %s", t.DisplayName(), from, to))
	}
	return nil
}

// TransitionPolicyFor returns the policy selected by configuration
func TransitionPolicyFor(enforceForward bool) TransitionPolicy {
	if enforceForward {
		return ForwardOnlyTransitions{}
	}
	return PermissiveTransitions{}
}
