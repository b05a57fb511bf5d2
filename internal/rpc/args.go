package rpc

import "github.com/ralphkit/ralphkit/internal/types"

// TicketCreateArgs are the arguments for ticket_create
type TicketCreateArgs struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Priority    types.Priority `json:"priority,omitempty"`
	ProjectID   string         `json:"project_id,omitempty"`
	EpicID      string         `json:"epic_id,omitempty"`
}

// TicketShowArgs are the arguments for ticket_show and ticket_delete
type TicketShowArgs struct {
	ID string `json:"id"`
}

// TicketListArgs are the arguments for ticket_list
type TicketListArgs struct {
	ProjectID string       `json:"project_id,omitempty"`
	Status    types.Status `json:"status,omitempty"`
	Limit     int          `json:"limit,omitempty"`
}

// StartWorkArgs are the arguments for start_work
type StartWorkArgs struct {
	TicketID string `json:"ticket_id"`
}

// CompleteWorkArgs are the arguments for complete_work
type CompleteWorkArgs struct {
	TicketID string `json:"ticket_id"`
	Summary  string `json:"summary,omitempty"`
}

// LinkCommitArgs are the arguments for link_commit
type LinkCommitArgs struct {
	TicketID string `json:"ticket_id"`
	Hash     string `json:"hash"`
	Message  string `json:"message,omitempty"`
}

// FindingSubmitArgs are the arguments for finding_submit
type FindingSubmitArgs struct {
	TicketID    string         `json:"ticket_id"`
	Severity    types.Severity `json:"severity"`
	Category    string         `json:"category,omitempty"`
	Description string         `json:"description"`
}

// FindingFixArgs are the arguments for finding_fix
type FindingFixArgs struct {
	FindingID string `json:"finding_id"`
}

// FindingListArgs are the arguments for finding_list
type FindingListArgs struct {
	TicketID string `json:"ticket_id"`
}

// DemoGenerateArgs are the arguments for demo_generate
type DemoGenerateArgs struct {
	TicketID string           `json:"ticket_id"`
	Steps    []types.DemoStep `json:"steps"`
}

// DemoFeedbackArgs are the arguments for demo_feedback
type DemoFeedbackArgs struct {
	TicketID string `json:"ticket_id"`
	Passed   bool   `json:"passed"`
	Feedback string `json:"feedback,omitempty"`
}

// SessionCreateArgs are the arguments for session_create
type SessionCreateArgs struct {
	TicketID string `json:"ticket_id"`
}

// SessionUpdateArgs are the arguments for session_update
type SessionUpdateArgs struct {
	SessionID string             `json:"session_id"`
	State     types.SessionState `json:"state"`
	Metadata  map[string]string  `json:"metadata,omitempty"`
}

// SessionCompleteArgs are the arguments for session_complete
type SessionCompleteArgs struct {
	SessionID    string        `json:"session_id"`
	Outcome      types.Outcome `json:"outcome"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// SessionShowArgs are the arguments for session_show
type SessionShowArgs struct {
	SessionID string `json:"session_id"`
}
