package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ralphkit/ralphkit/internal/types"
)

// CreateSession persists a new session and its initial history entry
func (s *SQLiteStorage) CreateSession(ctx context.Context, session *types.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CurrentState == "" {
		session.CurrentState = types.StateIdle
	}
	if err := session.Validate(); err != nil {
		return err
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	if len(session.History) == 0 {
		session.History = []types.StateEntry{{State: session.CurrentState, Timestamp: session.StartedAt}}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, ticket_id, project_id, current_state, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, session.ID, session.TicketID, session.ProjectID, session.CurrentState, session.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	for _, entry := range session.History {
		if err := insertHistoryEntry(ctx, tx, session.ID, entry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetSession retrieves a session with its full state history
func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (*types.Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx, `
		SELECT id, ticket_id, project_id, current_state, outcome, error_message, started_at, completed_at
		FROM sessions WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := s.loadHistory(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// GetActiveSessionForTicket returns the non-completed session for a ticket,
// or nil when none exists. Enforced by lookup-before-create, not a unique
// index.
func (s *SQLiteStorage) GetActiveSessionForTicket(ctx context.Context, ticketID string) (*types.Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx, `
		SELECT id, ticket_id, project_id, current_state, outcome, error_message, started_at, completed_at
		FROM sessions WHERE ticket_id = ? AND completed_at IS NULL
		ORDER BY started_at DESC LIMIT 1
	`, ticketID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up active session: %w", err)
	}

	if err := s.loadHistory(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// AppendSessionState appends a history entry and projects current_state from
// it. Rejected when the session is already completed.
func (s *SQLiteStorage) AppendSessionState(ctx context.Context, sessionID string, entry types.StateEntry) (*types.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var completedAt sql.NullTime
	err = tx.QueryRowContext(ctx, `SELECT completed_at FROM sessions WHERE id = ?`, sessionID).Scan(&completedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", sessionID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if completedAt.Valid {
		return nil, &types.PreconditionError{Op: "update_state", Reason: "session is already completed"}
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if err := insertHistoryEntry(ctx, tx, sessionID, entry); err != nil {
		return nil, err
	}

	// current_state is a pure projection of the last history entry
	if _, err := tx.ExecContext(ctx, `
		UPDATE sessions SET current_state = ? WHERE id = ?
	`, entry.State, sessionID); err != nil {
		return nil, fmt.Errorf("failed to project current state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetSession(ctx, sessionID)
}

// CompleteSession appends the terminal history entry and freezes the session
func (s *SQLiteStorage) CompleteSession(ctx context.Context, sessionID string, outcome types.Outcome, errorMessage string) (*types.Session, error) {
	if !outcome.IsValid() {
		return nil, &types.ValidationError{Field: "outcome", Reason: fmt.Sprintf("invalid outcome: %s", outcome)}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var completedAt sql.NullTime
	err = tx.QueryRowContext(ctx, `SELECT completed_at FROM sessions WHERE id = ?`, sessionID).Scan(&completedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", sessionID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if completedAt.Valid {
		return nil, &types.PreconditionError{Op: "complete_session", Reason: "session is already completed"}
	}

	now := time.Now()
	meta := map[string]string{"outcome": string(outcome)}
	if errorMessage != "" {
		meta["error_message"] = errorMessage
	}
	entry := types.StateEntry{State: types.StateDone, Timestamp: now, Metadata: meta}
	if err := insertHistoryEntry(ctx, tx, sessionID, entry); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE sessions SET current_state = ?, outcome = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`, types.StateDone, outcome, nullString(errorMessage), now, sessionID); err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetSession(ctx, sessionID)
}

func insertHistoryEntry(ctx context.Context, tx *sql.Tx, sessionID string, entry types.StateEntry) error {
	var metadata interface{}
	if len(entry.Metadata) > 0 {
		data, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = string(data)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO session_history (session_id, state, metadata, created_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, entry.State, metadata, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) loadHistory(ctx context.Context, session *types.Session) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state, metadata, created_at FROM session_history
		WHERE session_id = ? ORDER BY id
	`, session.ID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	session.History = nil
	for rows.Next() {
		var entry types.StateEntry
		var metadata sql.NullString
		if err := rows.Scan(&entry.State, &metadata, &entry.Timestamp); err != nil {
			return fmt.Errorf("failed to scan history entry: %w", err)
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &entry.Metadata); err != nil {
				return fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		session.History = append(session.History, entry)
	}
	return rows.Err()
}

func scanSession(row rowScanner) (*types.Session, error) {
	var session types.Session
	var outcome, errorMessage sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&session.ID, &session.TicketID, &session.ProjectID,
		&session.CurrentState, &outcome, &errorMessage, &session.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	session.Outcome = types.Outcome(outcome.String)
	session.ErrorMessage = errorMessage.String
	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}
	return &session, nil
}
