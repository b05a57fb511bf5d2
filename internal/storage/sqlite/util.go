package sqlite

import (
	"database/sql"

	"github.com/ralphkit/ralphkit/internal/types"
)

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTicket(row rowScanner) (*types.Ticket, error) {
	var t types.Ticket
	var priority, projectID, epicID sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &priority, &t.Position,
		&projectID, &epicID, &t.CreatedAt, &t.UpdatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Priority = types.Priority(priority.String)
	t.ProjectID = projectID.String
	t.EpicID = epicID.String
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

// nullString converts empty strings to NULL for optional columns
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
