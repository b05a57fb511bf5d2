package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ralphkit/ralphkit/internal/types"
)

// AddComment appends an audit entry to a ticket. Comments are never updated
// or deleted individually; they only go away with the ticket.
func (s *SQLiteStorage) AddComment(ctx context.Context, ticketID, author string, ctype types.CommentType, content string) (*types.Comment, error) {
	if !ctype.IsValid() {
		return nil, &types.ValidationError{Field: "type", Reason: fmt.Sprintf("invalid comment type: %s", ctype)}
	}
	if content == "" {
		return nil, &types.ValidationError{Field: "content", Reason: "content is required"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO ticket_comments (ticket_id, author, comment_type, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, ticketID, author, ctype, content, now)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get comment id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE tickets SET updated_at = ? WHERE id = ?
	`, now, ticketID); err != nil {
		return nil, fmt.Errorf("failed to update timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &types.Comment{
		ID:        id,
		TicketID:  ticketID,
		Author:    author,
		Type:      ctype,
		Content:   content,
		CreatedAt: now,
	}, nil
}

// GetComments returns all audit entries for a ticket, oldest first
func (s *SQLiteStorage) GetComments(ctx context.Context, ticketID string) ([]*types.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticket_id, author, comment_type, content, created_at
		FROM ticket_comments
		WHERE ticket_id = ?
		ORDER BY id
	`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var comments []*types.Comment
	for rows.Next() {
		var c types.Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.Author, &c.Type, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

// HasComment reports whether a comment with the given type and content
// already exists on the ticket. Used as the duplicate guard for idempotent
// lifecycle operations.
func (s *SQLiteStorage) HasComment(ctx context.Context, ticketID string, ctype types.CommentType, content string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ticket_comments
		WHERE ticket_id = ? AND comment_type = ? AND content = ?
	`, ticketID, ctype, content).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check comment: %w", err)
	}
	return count > 0, nil
}
