package entity

import (
	"time"

	"lotkeeper/internal/core/apperror"
)

// Status is a document lifecycle state.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusReceived          Status = "received"
	StatusApproved          Status = "approved"
	StatusPosted            Status = "posted"
	StatusShipped           Status = "shipped"
	StatusPartiallyReceived Status = "partially_received"
	StatusCompleted         Status = "completed"
	StatusCanceled          Status = "canceled"
)

// StatusMachine is the allowed-transitions table for a document type.
// Transitions not present in the table are rejected with
// INVALID_STATE_TRANSITION; there are no implicit guard clauses elsewhere.
type StatusMachine map[Status][]Status

// CanTransition reports whether from -> to is in the table.
func (m StatusMachine) CanTransition(from, to Status) bool {
	for _, allowed := range m[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
// Re-invoking a mutating transition on a terminal document fails rather than
// re-applying stock effects.
func (m StatusMachine) IsTerminal(s Status) bool {
	return len(m[s]) == 0
}

// Transition validates and applies a status change on a document.
func (d *Document) Transition(docType string, m StatusMachine, to Status) error {
	if !m.CanTransition(d.Status, to) {
		return apperror.NewInvalidStateTransition(docType, string(d.Status), string(to))
	}
	// Version is managed by the repository on update; only the timestamp
	// moves here so the optimistic-lock predicate still matches.
	d.Status = to
	d.UpdatedAt = time.Now().UTC()
	return nil
}
