package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ralphkit/ralphkit/internal/types"
)

const findingColumns = `id, ticket_id, iteration, agent, severity, category, description, status, created_at, fixed_at`

// CreateFinding records a new review finding with status open
func (s *SQLiteStorage) CreateFinding(ctx context.Context, finding *types.Finding) error {
	if err := finding.Validate(); err != nil {
		return err
	}
	if finding.ID == "" {
		finding.ID = uuid.NewString()
	}
	if finding.Status == "" {
		finding.Status = types.FindingOpen
	}
	if finding.CreatedAt.IsZero() {
		finding.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_findings (id, ticket_id, iteration, agent, severity, category, description, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, finding.ID, finding.TicketID, finding.Iteration, finding.Agent,
		finding.Severity, finding.Category, finding.Description, finding.Status, finding.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create finding: %w", err)
	}
	return nil
}

// GetFinding retrieves a finding by id
func (s *SQLiteStorage) GetFinding(ctx context.Context, id string) (*types.Finding, error) {
	f, err := scanFinding(s.db.QueryRowContext(ctx,
		`SELECT `+findingColumns+` FROM review_findings WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("finding %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get finding: %w", err)
	}
	return f, nil
}

// ListFindings returns all findings for a ticket, oldest first
func (s *SQLiteStorage) ListFindings(ctx context.Context, ticketID string) ([]*types.Finding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+findingColumns+` FROM review_findings WHERE ticket_id = ? ORDER BY created_at, id`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var findings []*types.Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// MarkFindingFixed transitions a finding to fixed and stamps fixed_at.
// Marking an already-fixed finding again is a no-op returning current state.
func (s *SQLiteStorage) MarkFindingFixed(ctx context.Context, id string) (*types.Finding, error) {
	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE review_findings SET status = 'fixed', fixed_at = ?
		WHERE id = ? AND status = 'open'
	`, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to mark finding fixed: %w", err)
	}
	if _, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return s.GetFinding(ctx, id)
}

// CountOpenBlockingFindings counts open findings with severity critical or
// major. Minor findings never gate progression.
func (s *SQLiteStorage) CountOpenBlockingFindings(ctx context.Context, ticketID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM review_findings
		WHERE ticket_id = ? AND status = 'open' AND severity IN ('critical', 'major')
	`, ticketID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count blocking findings: %w", err)
	}
	return count, nil
}

func scanFinding(row rowScanner) (*types.Finding, error) {
	var f types.Finding
	var fixedAt sql.NullTime
	err := row.Scan(&f.ID, &f.TicketID, &f.Iteration, &f.Agent, &f.Severity,
		&f.Category, &f.Description, &f.Status, &f.CreatedAt, &fixedAt)
	if err != nil {
		return nil, err
	}
	if fixedAt.Valid {
		f.FixedAt = &fixedAt.Time
	}
	return &f, nil
}
