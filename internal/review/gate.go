// Package review implements the AI review gate and the human demo feedback
// gate that sit between active work and ticket completion.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/ralphkit/ralphkit/internal/storage"
	"github.com/ralphkit/ralphkit/internal/types"
)

// Gate owns the review-finding lifecycle and the precondition check that
// gates demo generation.
type Gate struct {
	store storage.Storage
	actor string
}

// NewGate creates a review gate
func NewGate(store storage.Storage, actor string) *Gate {
	return &Gate{store: store, actor: actor}
}

// FindingResult reports a finding mutation plus projection health
type FindingResult struct {
	Finding         *types.Finding `json:"finding"`
	WorkflowUpdated bool           `json:"workflow_updated"`
	Warnings        []string       `json:"warnings,omitempty"`
}

// SubmitFinding records a review finding against a ticket currently in
// ai_review. The finding is tagged with the current review iteration.
func (g *Gate) SubmitFinding(ctx context.Context, finding *types.Finding) (*FindingResult, error) {
	ticket, err := g.store.GetTicket(ctx, finding.TicketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != types.StatusAIReview {
		return nil, &types.PreconditionError{
			Op:     "submit_finding",
			Reason: fmt.Sprintf("ticket %s is %s, findings can only be submitted during ai_review", ticket.ID, ticket.Status),
		}
	}

	if finding.Agent == "" {
		finding.Agent = g.actor
	}
	if finding.Iteration == 0 {
		if ws, err := g.store.GetWorkflowState(ctx, ticket.ID); err == nil {
			finding.Iteration = ws.ReviewIteration
		}
	}

	if err := g.store.CreateFinding(ctx, finding); err != nil {
		return nil, err
	}

	result := &FindingResult{Finding: finding, WorkflowUpdated: true}
	if err := g.store.BumpWorkflowCounter(ctx, ticket.ID, "findings_count", 1); err != nil {
		result.WorkflowUpdated = false
		result.Warnings = append(result.Warnings, fmt.Sprintf("findings count bump failed: %v", err))
	}
	return result, nil
}

// MarkFixed transitions a finding to fixed. The workflow counter bump is
// independent of the finding update: a projection failure never undoes the
// fixed status.
func (g *Gate) MarkFixed(ctx context.Context, findingID string) (*FindingResult, error) {
	finding, err := g.store.GetFinding(ctx, findingID)
	if err != nil {
		return nil, err
	}
	alreadyFixed := finding.Status == types.FindingFixed

	finding, err = g.store.MarkFindingFixed(ctx, findingID)
	if err != nil {
		return nil, err
	}

	result := &FindingResult{Finding: finding, WorkflowUpdated: true}
	if !alreadyFixed {
		if err := g.store.BumpWorkflowCounter(ctx, finding.TicketID, "findings_fixed", 1); err != nil {
			result.WorkflowUpdated = false
			result.Warnings = append(result.Warnings, fmt.Sprintf("findings fixed bump failed: %v", err))
		}
	}
	return result, nil
}

// DemoResult reports a generated demo script plus projection health
type DemoResult struct {
	Script          *types.DemoScript `json:"script"`
	WorkflowUpdated bool              `json:"workflow_updated"`
	Warnings        []string          `json:"warnings,omitempty"`
}

// GenerateDemoScript passes the review gate: it requires zero open findings
// of blocking severity (critical or major; minor findings never block),
// creates the demo script, and advances the ticket to human_review.
func (g *Gate) GenerateDemoScript(ctx context.Context, ticketID string, steps []types.DemoStep) (*DemoResult, error) {
	ticket, err := g.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != types.StatusAIReview {
		return nil, &types.PreconditionError{
			Op:     "generate_demo",
			Reason: fmt.Sprintf("ticket %s is %s, demo scripts are generated from ai_review", ticket.ID, ticket.Status),
		}
	}

	open, err := g.store.CountOpenBlockingFindings(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, &types.PreconditionError{
			Op:     "generate_demo",
			Reason: fmt.Sprintf("%d open critical/major finding(s) must be fixed first", open),
		}
	}

	// One demo script per ticket
	if existing, err := g.store.GetDemoScript(ctx, ticketID); err == nil {
		return nil, &types.PreconditionError{
			Op:     "generate_demo",
			Reason: fmt.Sprintf("ticket %s already has a demo script (generated %s)", ticketID, existing.GeneratedAt.Format(time.RFC3339)),
		}
	}

	script := &types.DemoScript{TicketID: ticketID, Steps: steps}
	if err := g.store.CreateDemoScript(ctx, script); err != nil {
		return nil, err
	}

	if err := g.store.SetTicketStatus(ctx, ticketID, types.StatusHumanReview, false); err != nil {
		return nil, err
	}

	result := &DemoResult{Script: script, WorkflowUpdated: true}
	if err := g.store.UpdateWorkflowState(ctx, ticketID, map[string]interface{}{
		"demo_generated": 1,
		"current_phase":  string(types.StatusHumanReview),
	}); err != nil {
		result.WorkflowUpdated = false
		result.Warnings = append(result.Warnings, fmt.Sprintf("workflow state update failed: %v", err))
	}

	content := fmt.Sprintf("Demo script generated with %d step(s), ready for human review", len(script.Steps))
	if _, err := g.store.AddComment(ctx, ticketID, g.actor, types.CommentProgress, content); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("progress comment failed: %v", err))
	}

	return result, nil
}
