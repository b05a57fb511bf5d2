package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ralphkit/ralphkit/internal/types"
)

// CreateDemoScript stores the demo script and its ordered steps. A ticket
// gets at most one script; a second create fails on the primary key.
func (s *SQLiteStorage) CreateDemoScript(ctx context.Context, script *types.DemoScript) error {
	if script.TicketID == "" {
		return &types.ValidationError{Field: "ticket_id", Reason: "ticket_id is required"}
	}
	if len(script.Steps) == 0 {
		return &types.ValidationError{Field: "steps", Reason: "at least one step is required"}
	}
	if script.GeneratedAt.IsZero() {
		script.GeneratedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO demo_scripts (ticket_id, generated_at) VALUES (?, ?)
	`, script.TicketID, script.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to create demo script: %w", err)
	}

	for i, step := range script.Steps {
		order := step.Order
		if order == 0 {
			order = i + 1
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO demo_steps (ticket_id, step_order, description, expected_outcome, step_type)
			VALUES (?, ?, ?, ?, ?)
		`, script.TicketID, order, step.Description, step.ExpectedOutcome, step.Type)
		if err != nil {
			return fmt.Errorf("failed to create demo step %d: %w", order, err)
		}
	}

	return tx.Commit()
}

// GetDemoScript retrieves the demo script and steps for a ticket
func (s *SQLiteStorage) GetDemoScript(ctx context.Context, ticketID string) (*types.DemoScript, error) {
	var script types.DemoScript
	var completedAt sql.NullTime
	var passed sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT ticket_id, generated_at, completed_at, feedback, passed
		FROM demo_scripts WHERE ticket_id = ?
	`, ticketID).Scan(&script.TicketID, &script.GeneratedAt, &completedAt, &script.Feedback, &passed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("demo script for %s: %w", ticketID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get demo script: %w", err)
	}

	if completedAt.Valid {
		script.CompletedAt = &completedAt.Time
	}
	if passed.Valid {
		b := passed.Int64 != 0
		script.Passed = &b
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT step_order, description, expected_outcome, step_type
		FROM demo_steps WHERE ticket_id = ? ORDER BY step_order
	`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get demo steps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var step types.DemoStep
		if err := rows.Scan(&step.Order, &step.Description, &step.ExpectedOutcome, &step.Type); err != nil {
			return nil, fmt.Errorf("failed to scan demo step: %w", err)
		}
		script.Steps = append(script.Steps, step)
	}
	return &script, rows.Err()
}

// RecordDemoFeedback persists the human verdict on the demo script. A pass
// stamps completed_at; a failure records feedback and leaves the script open
// for another round.
func (s *SQLiteStorage) RecordDemoFeedback(ctx context.Context, ticketID string, passed bool, feedback string) error {
	var completed interface{}
	if passed {
		completed = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE demo_scripts SET completed_at = ?, feedback = ?, passed = ? WHERE ticket_id = ?
	`, completed, feedback, boolToInt(passed), ticketID)
	if err != nil {
		return fmt.Errorf("failed to record demo feedback: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("demo script for %s: %w", ticketID, types.ErrNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
