package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ralphkit/ralphkit/internal/types"
)

// LinkCommit records a commit hash against a ticket. Linking the same hash
// twice is a silent no-op; prefix-duplicate detection happens in the
// workflow layer before this is called.
func (s *SQLiteStorage) LinkCommit(ctx context.Context, ticketID, hash, message string) error {
	if hash == "" {
		return &types.ValidationError{Field: "hash", Reason: "hash is required"}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ticket_commits (ticket_id, hash, message, linked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (ticket_id, hash) DO NOTHING
	`, ticketID, hash, message, time.Now())
	if err != nil {
		return fmt.Errorf("failed to link commit: %w", err)
	}
	return nil
}

// ListCommits returns all commits linked to a ticket, oldest first
func (s *SQLiteStorage) ListCommits(ctx context.Context, ticketID string) ([]*types.Commit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticket_id, hash, message, linked_at
		FROM ticket_commits WHERE ticket_id = ? ORDER BY linked_at
	`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var commits []*types.Commit
	for rows.Next() {
		var c types.Commit
		if err := rows.Scan(&c.TicketID, &c.Hash, &c.Message, &c.LinkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		commits = append(commits, &c)
	}
	return commits, rows.Err()
}
