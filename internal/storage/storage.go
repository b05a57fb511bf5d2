// Package storage defines the interface for workflow storage backends.
package storage

import (
	"context"
	"database/sql"

	"github.com/ralphkit/ralphkit/internal/types"
)

// Storage defines the interface for workflow storage backends
type Storage interface {
	// Projects
	CreateProject(ctx context.Context, project *types.Project) error
	GetProject(ctx context.Context, id string) (*types.Project, error)
	ListProjects(ctx context.Context) ([]*types.Project, error)

	// Tickets
	CreateTicket(ctx context.Context, ticket *types.Ticket) error
	GetTicket(ctx context.Context, id string) (*types.Ticket, error)
	ListTickets(ctx context.Context, filter types.TicketFilter) ([]*types.Ticket, error)
	SetTicketStatus(ctx context.Context, id string, status types.Status, completedAt bool) error
	DeleteTicket(ctx context.Context, id string) error

	// NextTicket returns the suggested next ticket in a project: excludes the
	// given ticket and anything in {done, ai_review, human_review}, ordered by
	// priority rank ascending then position ascending.
	NextTicket(ctx context.Context, projectID, excludeID string) (*types.Ticket, error)

	// Comments (append-only audit log)
	AddComment(ctx context.Context, ticketID, author string, ctype types.CommentType, content string) (*types.Comment, error)
	GetComments(ctx context.Context, ticketID string) ([]*types.Comment, error)
	HasComment(ctx context.Context, ticketID string, ctype types.CommentType, content string) (bool, error)

	// Workflow state (best-effort projection, never the source of truth)
	GetWorkflowState(ctx context.Context, ticketID string) (*types.WorkflowState, error)
	EnsureWorkflowState(ctx context.Context, ticketID string) error
	UpdateWorkflowState(ctx context.Context, ticketID string, updates map[string]interface{}) error
	BumpWorkflowCounter(ctx context.Context, ticketID, column string, delta int) error

	// Review findings
	CreateFinding(ctx context.Context, finding *types.Finding) error
	GetFinding(ctx context.Context, id string) (*types.Finding, error)
	ListFindings(ctx context.Context, ticketID string) ([]*types.Finding, error)
	MarkFindingFixed(ctx context.Context, id string) (*types.Finding, error)
	CountOpenBlockingFindings(ctx context.Context, ticketID string) (int, error)

	// Demo scripts
	CreateDemoScript(ctx context.Context, script *types.DemoScript) error
	GetDemoScript(ctx context.Context, ticketID string) (*types.DemoScript, error)
	RecordDemoFeedback(ctx context.Context, ticketID string, passed bool, feedback string) error

	// Sessions
	CreateSession(ctx context.Context, session *types.Session) error
	GetSession(ctx context.Context, id string) (*types.Session, error)
	GetActiveSessionForTicket(ctx context.Context, ticketID string) (*types.Session, error)
	AppendSessionState(ctx context.Context, sessionID string, entry types.StateEntry) (*types.Session, error)
	CompleteSession(ctx context.Context, sessionID string, outcome types.Outcome, errorMessage string) (*types.Session, error)

	// Linked commits
	LinkCommit(ctx context.Context, ticketID, hash, message string) error
	ListCommits(ctx context.Context, ticketID string) ([]*types.Commit, error)

	// Config
	SetConfig(ctx context.Context, key, value string) error
	GetConfig(ctx context.Context, key string) (string, error)

	// Lifecycle
	Close() error

	// Database path (for daemon validation)
	Path() string

	// UnderlyingDB returns the underlying *sql.DB connection for extensions
	// that need their own tables in the same database.
	UnderlyingDB() *sql.DB
}

// Config holds database configuration
type Config struct {
	Path string // database file path
}
