package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ralphkit/ralphkit/internal/types"
)

const defaultTicketPrefix = "rk"

// CreateProject creates a new project
func (s *SQLiteStorage) CreateProject(ctx context.Context, project *types.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, path, created_at)
		VALUES (?, ?, ?, ?)
	`, project.ID, project.Name, project.Path, project.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by id
func (s *SQLiteStorage) GetProject(ctx context.Context, id string) (*types.Project, error) {
	var p types.Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, path, created_at FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Path, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects ordered by creation time
func (s *SQLiteStorage) ListProjects(ctx context.Context) ([]*types.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, path, created_at FROM projects ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*types.Project
	for rows.Next() {
		var p types.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Path, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// CreateTicket creates a new ticket. A missing id is allocated from the
// configured prefix counter; a missing status defaults to backlog.
func (s *SQLiteStorage) CreateTicket(ctx context.Context, ticket *types.Ticket) error {
	if ticket.Status == "" {
		ticket.Status = types.StatusBacklog
	}
	if err := ticket.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if ticket.ID == "" {
		prefix := defaultTicketPrefix
		var configured string
		if err := tx.QueryRowContext(ctx, `SELECT value FROM config WHERE key = 'ticket-prefix'`).Scan(&configured); err == nil && configured != "" {
			prefix = configured
		}
		ticket.ID, err = s.nextTicketID(ctx, tx, prefix)
		if err != nil {
			return err
		}
	}

	if ticket.Position == 0 {
		// Place at the end of the column
		var maxPos sql.NullFloat64
		if err := tx.QueryRowContext(ctx, `
			SELECT MAX(position) FROM tickets WHERE status = ?
		`, ticket.Status).Scan(&maxPos); err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to compute position: %w", err)
		}
		ticket.Position = maxPos.Float64 + 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tickets (id, title, description, status, priority, position, project_id, epic_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ticket.ID, ticket.Title, ticket.Description, ticket.Status,
		nullString(string(ticket.Priority)), ticket.Position,
		nullString(ticket.ProjectID), nullString(ticket.EpicID),
		ticket.CreatedAt, ticket.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return tx.Commit()
}

// GetTicket retrieves a ticket by id
func (s *SQLiteStorage) GetTicket(ctx context.Context, id string) (*types.Ticket, error) {
	t, err := scanTicket(s.db.QueryRowContext(ctx, `
		SELECT id, title, description, status, priority, position, project_id, epic_id,
		       created_at, updated_at, completed_at
		FROM tickets WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ticket %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return t, nil
}

// ListTickets returns tickets matching the filter, ordered by status column position
func (s *SQLiteStorage) ListTickets(ctx context.Context, filter types.TicketFilter) ([]*types.Ticket, error) {
	query := `
		SELECT id, title, description, status, priority, position, project_id, epic_id,
		       created_at, updated_at, completed_at
		FROM tickets WHERE 1=1`
	var args []interface{}

	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, *filter.Status)
	}
	if filter.Priority != nil {
		if *filter.Priority == types.PriorityNone {
			query += ` AND priority IS NULL`
		} else {
			query += ` AND priority = ?`
			args = append(args, *filter.Priority)
		}
	}
	if filter.ProjectID != nil {
		query += ` AND project_id = ?`
		args = append(args, *filter.ProjectID)
	}
	query += ` ORDER BY status, position`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tickets []*types.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// SetTicketStatus updates a ticket's status. When completedAt is true the
// completed_at timestamp is set; moving away from done always clears it.
func (s *SQLiteStorage) SetTicketStatus(ctx context.Context, id string, status types.Status, completedAt bool) error {
	if !status.IsValid() {
		return &types.ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status: %s", status)}
	}

	now := time.Now()
	var completed interface{}
	if completedAt {
		completed = now
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tickets SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?
	`, status, completed, now, id)
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("ticket %s: %w", id, types.ErrNotFound)
	}
	return nil
}

// DeleteTicket removes a ticket and all dependent rows via cascade
func (s *SQLiteStorage) DeleteTicket(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("ticket %s: %w", id, types.ErrNotFound)
	}
	return nil
}

// NextTicket suggests the next ticket to work in a project. Tickets already
// in or past review are excluded; ordering is priority rank (high=0,
// medium/null=1, low=2) ascending, then position ascending.
func (s *SQLiteStorage) NextTicket(ctx context.Context, projectID, excludeID string) (*types.Ticket, error) {
	t, err := scanTicket(s.db.QueryRowContext(ctx, `
		SELECT id, title, description, status, priority, position, project_id, epic_id,
		       created_at, updated_at, completed_at
		FROM tickets
		WHERE project_id = ?
		  AND id != ?
		  AND status NOT IN ('done', 'ai_review', 'human_review')
		ORDER BY
		  CASE priority WHEN 'high' THEN 0 WHEN 'low' THEN 2 ELSE 1 END ASC,
		  position ASC
		LIMIT 1
	`, projectID, excludeID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find next ticket: %w", err)
	}
	return t, nil
}
