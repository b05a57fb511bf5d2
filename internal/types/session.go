package types

import (
	"fmt"
	"time"
)

// SessionState is the fine-grained progress state of an agent session.
// Membership in this set is validated on every update; adjacency is not.
// Any of the seven states may follow any other.
type SessionState string

const (
	StateIdle         SessionState = "idle"
	StateAnalyzing    SessionState = "analyzing"
	StateImplementing SessionState = "implementing"
	StateTesting      SessionState = "testing"
	StateCommitting   SessionState = "committing"
	StateReviewing    SessionState = "reviewing"
	StateDone         SessionState = "done"
)

// IsValid checks if the session state value is valid
func (s SessionState) IsValid() bool {
	switch s {
	case StateIdle, StateAnalyzing, StateImplementing, StateTesting,
		StateCommitting, StateReviewing, StateDone:
		return true
	}
	return false
}

// AllowsWrites reports whether code-mutating tool calls are permitted
// while a session is in this state.
func (s SessionState) AllowsWrites() bool {
	switch s {
	case StateImplementing, StateTesting, StateCommitting:
		return true
	}
	return false
}

// Outcome records how a session ended
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeCancelled Outcome = "cancelled"
)

// IsValid checks if the outcome value is valid
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure, OutcomeTimeout, OutcomeCancelled:
		return true
	}
	return false
}

// StateEntry is one append-only record in a session's state history
type StateEntry struct {
	State     SessionState      `json:"state"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Session tracks one unit of autonomous-agent work bound to a ticket.
// CurrentState is always a projection of the last history entry. Once
// CompletedAt is set the session is immutable.
type Session struct {
	ID           string       `json:"id"`
	TicketID     string       `json:"ticket_id"`
	ProjectID    string       `json:"project_id,omitempty"`
	CurrentState SessionState `json:"current_state"`
	History      []StateEntry `json:"state_history"`
	Outcome      Outcome      `json:"outcome,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	StartedAt    time.Time    `json:"started_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}

// Completed reports whether the session has reached its terminal form
func (s *Session) Completed() bool {
	return s.CompletedAt != nil
}

// Validate checks if the session has valid field values
func (s *Session) Validate() error {
	if s.TicketID == "" {
		return &ValidationError{Field: "ticket_id", Reason: "ticket_id is required"}
	}
	if !s.CurrentState.IsValid() {
		return &ValidationError{Field: "current_state", Reason: fmt.Sprintf("invalid session state: %s", s.CurrentState)}
	}
	if s.Outcome != "" && !s.Outcome.IsValid() {
		return &ValidationError{Field: "outcome", Reason: fmt.Sprintf("invalid outcome: %s", s.Outcome)}
	}
	return nil
}
