// Package workflow implements the ticket lifecycle state machine: starting
// work, completing work into review, and commit linking.
package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ralphkit/ralphkit/internal/git"
	"github.com/ralphkit/ralphkit/internal/storage"
	"github.com/ralphkit/ralphkit/internal/types"
)

// Workspace is the slice of git behavior the lifecycle needs
type Workspace interface {
	Validate() error
	CheckoutBranch(branch string) (created bool, err error)
}

// Service drives ticket status transitions
type Service struct {
	store storage.Storage
	actor string

	// openWorkspace is swappable for tests
	openWorkspace func(path string) Workspace
}

// NewService creates a lifecycle service
func NewService(store storage.Storage, actor string) *Service {
	return &Service{
		store: store,
		actor: actor,
		openWorkspace: func(path string) Workspace {
			return git.NewWorkspace(path)
		},
	}
}

// StartResult reports the outcome of StartWork
type StartResult struct {
	TicketID       string `json:"ticket_id"`
	BranchName     string `json:"branch_name"`
	BranchCreated  bool   `json:"branch_created"`
	AlreadyStarted bool   `json:"already_started"`
	// WorkflowUpdated is false when the best-effort projection write failed
	WorkflowUpdated bool     `json:"workflow_updated"`
	Warnings        []string `json:"warnings,omitempty"`
}

// StartWork moves a ticket to in_progress and prepares its feature branch.
// Calling it on a ticket already in progress is an idempotent no-op that
// still reports the deterministic branch name.
func (s *Service) StartWork(ctx context.Context, ticketID string) (*StartResult, error) {
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	// done is terminal: restarting would clear completed_at
	if ticket.Status == types.StatusDone {
		return nil, &types.PreconditionError{
			Op:     "start_work",
			Reason: fmt.Sprintf("ticket %s is done, completed tickets cannot be restarted", ticket.ID),
		}
	}

	branch := BranchName(ticket.ID, ticket.Title)
	result := &StartResult{TicketID: ticket.ID, BranchName: branch, WorkflowUpdated: true}

	if ticket.Status == types.StatusInProgress {
		result.AlreadyStarted = true
		return result, nil
	}

	if ticket.ProjectID == "" {
		return nil, &types.PreconditionError{Op: "start_work", Reason: "ticket has no project"}
	}
	project, err := s.store.GetProject(ctx, ticket.ProjectID)
	if err != nil {
		return nil, err
	}

	ws := s.openWorkspace(project.Path)
	if err := ws.Validate(); err != nil {
		return nil, &types.PreconditionError{Op: "start_work", Reason: err.Error()}
	}

	// Reuse the branch if it already exists rather than recreate it
	created, err := ws.CheckoutBranch(branch)
	if err != nil {
		return nil, err
	}
	result.BranchCreated = created

	if err := s.store.SetTicketStatus(ctx, ticket.ID, types.StatusInProgress, false); err != nil {
		return nil, err
	}

	// Exactly one start comment per ticket, no matter how often this runs
	content := "Starting work on: " + ticket.Title
	has, err := s.store.HasComment(ctx, ticket.ID, types.CommentPlain, content)
	if err != nil {
		return nil, err
	}
	if !has {
		if _, err := s.store.AddComment(ctx, ticket.ID, s.actor, types.CommentPlain, content); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateWorkflowState(ctx, ticket.ID, map[string]interface{}{
		"current_phase": string(types.StatusInProgress),
	}); err != nil {
		result.WorkflowUpdated = false
		result.Warnings = append(result.Warnings, fmt.Sprintf("workflow state update failed: %v", err))
	}

	return result, nil
}

// CompleteResult reports the outcome of CompleteWork
type CompleteResult struct {
	TicketID string       `json:"ticket_id"`
	Status   types.Status `json:"status"`
	NoOp     bool         `json:"no_op"`
	// NextTicket is the suggested follow-up in the same project, if any
	NextTicket            *types.Ticket `json:"next_ticket,omitempty"`
	WorkflowUpdated       bool          `json:"workflow_updated"`
	RequirementsAnnotated bool          `json:"requirements_annotated"`
	Warnings              []string      `json:"warnings,omitempty"`
}

// CompleteWork moves a ticket from active work into ai_review. Tickets
// already in or past review no-op so retries never duplicate summaries.
func (s *Service) CompleteWork(ctx context.Context, ticketID, summary string) (*CompleteResult, error) {
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	result := &CompleteResult{TicketID: ticket.ID, Status: ticket.Status, WorkflowUpdated: true}

	if ticket.Status.IsTerminalForWork() {
		result.NoOp = true
		return result, nil
	}

	if err := s.store.SetTicketStatus(ctx, ticket.ID, types.StatusAIReview, false); err != nil {
		return nil, err
	}
	result.Status = types.StatusAIReview

	if summary == "" {
		summary = "Work completed on: " + ticket.Title
	}
	if _, err := s.store.AddComment(ctx, ticket.ID, s.actor, types.CommentWorkSummary, summary); err != nil {
		return nil, err
	}

	// review_iteration counts entries into ai_review, including re-entries
	// after fixes
	if err := s.store.BumpWorkflowCounter(ctx, ticket.ID, "review_iteration", 1); err != nil {
		result.WorkflowUpdated = false
		result.Warnings = append(result.Warnings, fmt.Sprintf("review iteration bump failed: %v", err))
	}
	if err := s.store.UpdateWorkflowState(ctx, ticket.ID, map[string]interface{}{
		"current_phase": string(types.StatusAIReview),
	}); err != nil {
		result.WorkflowUpdated = false
		result.Warnings = append(result.Warnings, fmt.Sprintf("workflow state update failed: %v", err))
	}

	// Best-effort requirements annotation; reported, never blocking
	if err := s.annotateRequirements(ctx, ticket); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("requirements annotation failed: %v", err))
	} else {
		result.RequirementsAnnotated = true
	}

	if ticket.ProjectID != "" {
		next, err := s.store.NextTicket(ctx, ticket.ProjectID, ticket.ID)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("next ticket lookup failed: %v", err))
		} else {
			result.NextTicket = next
		}
	}

	return result, nil
}

// annotateRequirements appends a completion line to the project's
// requirements file when one exists.
func (s *Service) annotateRequirements(ctx context.Context, ticket *types.Ticket) error {
	if ticket.ProjectID == "" {
		return nil
	}
	project, err := s.store.GetProject(ctx, ticket.ProjectID)
	if err != nil {
		return err
	}

	path := filepath.Join(project.Path, ".ralphkit", "requirements.md")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644) // #nosec G304 - project-controlled path
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	line := fmt.Sprintf("- %s entered ai_review: %s (%s)\n",
		ticket.ID, ticket.Title, time.Now().Format(time.RFC3339))
	_, err = f.WriteString(line)
	return err
}

// LinkCommit records a commit against a ticket. A hash that is a prefix of,
// or extends, an already-linked hash counts as a duplicate and is skipped.
func (s *Service) LinkCommit(ctx context.Context, ticketID, hash, message string) (bool, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return false, &types.ValidationError{Field: "hash", Reason: "hash is required"}
	}

	if _, err := s.store.GetTicket(ctx, ticketID); err != nil {
		return false, err
	}

	existing, err := s.store.ListCommits(ctx, ticketID)
	if err != nil {
		return false, err
	}
	for _, c := range existing {
		if strings.HasPrefix(c.Hash, hash) || strings.HasPrefix(hash, c.Hash) {
			return false, nil
		}
	}

	if err := s.store.LinkCommit(ctx, ticketID, hash, message); err != nil {
		return false, err
	}
	return true, nil
}
