// Package types defines core data structures for the ralphkit QA workflow tracker.
package types

import (
	"fmt"
	"time"
)

// Project groups tickets and anchors them to a workspace on disk.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks if the project has valid field values
func (p *Project) Validate() error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Reason: "name is required"}
	}
	return nil
}

// Ticket represents a trackable work item moving through the QA lifecycle
type Ticket struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority,omitempty"`
	Position    float64    `json:"position"`
	ProjectID   string     `json:"project_id,omitempty"`
	EpicID      string     `json:"epic_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Validate checks if the ticket has valid field values
func (t *Ticket) Validate() error {
	if len(t.Title) == 0 {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	if len(t.Title) > 500 {
		return &ValidationError{Field: "title", Reason: fmt.Sprintf("title must be 500 characters or less (got %d)", len(t.Title))}
	}
	if !t.Status.IsValid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status: %s", t.Status)}
	}
	if !t.Priority.IsValid() {
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("invalid priority: %s", t.Priority)}
	}
	return nil
}

// Status represents the current lifecycle phase of a ticket
type Status string

const (
	StatusBacklog     Status = "backlog"
	StatusReady       Status = "ready"
	StatusInProgress  Status = "in_progress"
	StatusAIReview    Status = "ai_review"
	StatusHumanReview Status = "human_review"
	StatusDone        Status = "done"
)

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusBacklog, StatusReady, StatusInProgress, StatusAIReview, StatusHumanReview, StatusDone:
		return true
	}
	return false
}

// IsTerminalForWork reports whether completing work on a ticket in this
// status must be treated as an idempotent no-op.
func (s Status) IsTerminalForWork() bool {
	switch s {
	case StatusDone, StatusAIReview, StatusHumanReview:
		return true
	}
	return false
}

// Priority orders tickets within a status column. The empty value means
// the ticket has no explicit priority and ranks with medium.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = ""
)

// IsValid checks if the priority value is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow, PriorityNone:
		return true
	}
	return false
}

// Rank maps priority to a sortable integer: high=0, medium/unset=1, low=2.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// CommentType categorizes audit trail entries on a ticket
type CommentType string

const (
	CommentPlain       CommentType = "comment"
	CommentWorkSummary CommentType = "work_summary"
	CommentTestReport  CommentType = "test_report"
	CommentProgress    CommentType = "progress"
)

// IsValid checks if the comment type value is valid
func (c CommentType) IsValid() bool {
	switch c {
	case CommentPlain, CommentWorkSummary, CommentTestReport, CommentProgress:
		return true
	}
	return false
}

// Comment is an append-only audit entry attached to a ticket.
// Comments are never mutated; they only disappear via ticket cascade delete.
type Comment struct {
	ID        int64       `json:"id"`
	TicketID  string      `json:"ticket_id"`
	Author    string      `json:"author"`
	Type      CommentType `json:"type"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// WorkflowState is a best-effort projection of a ticket's review progress.
// It may be absent or stale even after the ticket's canonical status has
// advanced; it is never the source of truth.
type WorkflowState struct {
	TicketID        string    `json:"ticket_id"`
	CurrentPhase    string    `json:"current_phase"`
	ReviewIteration int       `json:"review_iteration"`
	FindingsCount   int       `json:"findings_count"`
	FindingsFixed   int       `json:"findings_fixed"`
	DemoGenerated   bool      `json:"demo_generated"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Commit links a VCS commit hash to a ticket
type Commit struct {
	TicketID string    `json:"ticket_id"`
	Hash     string    `json:"hash"`
	Message  string    `json:"message,omitempty"`
	LinkedAt time.Time `json:"linked_at"`
}

// TicketFilter is used to filter ticket queries
type TicketFilter struct {
	Status    *Status
	Priority  *Priority
	ProjectID *string
	Limit     int
}
