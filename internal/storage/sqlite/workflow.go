package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ralphkit/ralphkit/internal/types"
)

// workflowColumns whitelists the columns UpdateWorkflowState may touch
var workflowColumns = map[string]bool{
	"current_phase":    true,
	"review_iteration": true,
	"findings_count":   true,
	"findings_fixed":   true,
	"demo_generated":   true,
}

// GetWorkflowState returns the workflow projection for a ticket, or
// ErrNotFound when no row exists.
func (s *SQLiteStorage) GetWorkflowState(ctx context.Context, ticketID string) (*types.WorkflowState, error) {
	var ws types.WorkflowState
	var demoGenerated int
	err := s.db.QueryRowContext(ctx, `
		SELECT ticket_id, current_phase, review_iteration, findings_count, findings_fixed, demo_generated, updated_at
		FROM ticket_workflow_state WHERE ticket_id = ?
	`, ticketID).Scan(&ws.TicketID, &ws.CurrentPhase, &ws.ReviewIteration,
		&ws.FindingsCount, &ws.FindingsFixed, &demoGenerated, &ws.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("workflow state for %s: %w", ticketID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow state: %w", err)
	}
	ws.DemoGenerated = demoGenerated != 0
	return &ws, nil
}

// EnsureWorkflowState creates the projection row if it does not exist yet
func (s *SQLiteStorage) EnsureWorkflowState(ctx context.Context, ticketID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ticket_workflow_state (ticket_id, updated_at)
		VALUES (?, ?)
		ON CONFLICT (ticket_id) DO NOTHING
	`, ticketID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to ensure workflow state: %w", err)
	}
	return nil
}

// UpdateWorkflowState applies column updates to the projection row,
// creating it first if needed. Unknown columns are rejected.
func (s *SQLiteStorage) UpdateWorkflowState(ctx context.Context, ticketID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	cols := make([]string, 0, len(updates))
	for col := range updates {
		if !workflowColumns[col] {
			return &types.ValidationError{Field: col, Reason: "unknown workflow state column"}
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	if err := s.EnsureWorkflowState(ctx, ticketID); err != nil {
		return err
	}

	setClauses := make([]string, 0, len(cols)+1)
	args := make([]interface{}, 0, len(cols)+2)
	for _, col := range cols {
		setClauses = append(setClauses, col+" = ?")
		args = append(args, updates[col])
	}
	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now(), ticketID)

	query := fmt.Sprintf(`UPDATE ticket_workflow_state SET %s WHERE ticket_id = ?`, strings.Join(setClauses, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update workflow state: %w", err)
	}
	return nil
}

// BumpWorkflowCounter increments a counter column on the projection row
func (s *SQLiteStorage) BumpWorkflowCounter(ctx context.Context, ticketID, column string, delta int) error {
	if !workflowColumns[column] {
		return &types.ValidationError{Field: column, Reason: "unknown workflow state column"}
	}

	if err := s.EnsureWorkflowState(ctx, ticketID); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE ticket_workflow_state SET %s = %s + ?, updated_at = ? WHERE ticket_id = ?
	`, column, column)
	if _, err := s.db.ExecContext(ctx, query, delta, time.Now(), ticketID); err != nil {
		return fmt.Errorf("failed to bump %s: %w", column, err)
	}
	return nil
}
