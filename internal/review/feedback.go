package review

import (
	"context"
	"fmt"

	"github.com/ralphkit/ralphkit/internal/storage"
	"github.com/ralphkit/ralphkit/internal/types"
)

// FeedbackGate applies the human demo verdict that gates ticket completion
type FeedbackGate struct {
	store storage.Storage
	actor string
}

// NewFeedbackGate creates a demo feedback gate
func NewFeedbackGate(store storage.Storage, actor string) *FeedbackGate {
	return &FeedbackGate{store: store, actor: actor}
}

// FeedbackResult reports the outcome of SubmitFeedback
type FeedbackResult struct {
	TicketID        string       `json:"ticket_id"`
	Status          types.Status `json:"status"`
	Passed          bool         `json:"passed"`
	WorkflowUpdated bool         `json:"workflow_updated"`
	Warnings        []string     `json:"warnings,omitempty"`
}

// SubmitFeedback records the human verdict on a demo. A pass completes the
// ticket; a rejection persists the feedback and leaves the ticket parked in
// human_review. There is no automatic requeue.
func (fg *FeedbackGate) SubmitFeedback(ctx context.Context, ticketID string, passed bool, feedback string) (*FeedbackResult, error) {
	ticket, err := fg.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != types.StatusHumanReview {
		return nil, &types.PreconditionError{
			Op:     "submit_feedback",
			Reason: fmt.Sprintf("ticket %s is %s, demo feedback applies to human_review", ticket.ID, ticket.Status),
		}
	}

	if err := fg.store.RecordDemoFeedback(ctx, ticketID, passed, feedback); err != nil {
		return nil, err
	}

	result := &FeedbackResult{TicketID: ticketID, Passed: passed, Status: types.StatusHumanReview, WorkflowUpdated: true}

	if !passed {
		return result, nil
	}

	if err := fg.store.SetTicketStatus(ctx, ticketID, types.StatusDone, true); err != nil {
		return nil, err
	}
	result.Status = types.StatusDone

	if err := fg.store.UpdateWorkflowState(ctx, ticketID, map[string]interface{}{
		"current_phase": string(types.StatusDone),
	}); err != nil {
		result.WorkflowUpdated = false
		result.Warnings = append(result.Warnings, fmt.Sprintf("workflow state update failed: %v", err))
	}

	if _, err := fg.store.AddComment(ctx, ticketID, fg.actor, types.CommentProgress, "Demo approved, ticket completed"); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("progress comment failed: %v", err))
	}

	return result, nil
}
