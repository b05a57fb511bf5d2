// Package session manages agent session records and keeps the filesystem
// mirror in sync for out-of-process enforcement hooks.
package session

import (
	"context"
	"fmt"

	"github.com/ralphkit/ralphkit/internal/statefile"
	"github.com/ralphkit/ralphkit/internal/storage"
	"github.com/ralphkit/ralphkit/internal/types"
)

// Manager owns session lifecycle. The database record is canonical; the
// mirror file is a best-effort projection whose failures are reported but
// never roll back the record.
type Manager struct {
	store   storage.Storage
	channel statefile.Channel
}

// NewManager creates a session manager. channel may be nil when no project
// directory is known; mirror writes are then skipped.
func NewManager(store storage.Storage, channel statefile.Channel) *Manager {
	return &Manager{store: store, channel: channel}
}

// Result reports a session mutation plus mirror health
type Result struct {
	Session *types.Session `json:"session"`
	// Reused is true when Create returned an existing active session
	Reused        bool     `json:"reused,omitempty"`
	MirrorWritten bool     `json:"mirror_written"`
	Warnings      []string `json:"warnings,omitempty"`
}

// Create starts a session for a ticket, or returns the existing active one.
// At most one uncompleted session exists per ticket.
func (m *Manager) Create(ctx context.Context, ticketID string) (*Result, error) {
	ticket, err := m.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	existing, err := m.store.GetActiveSessionForTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		result := &Result{Session: existing, Reused: true}
		m.mirror(result)
		return result, nil
	}

	session := &types.Session{TicketID: ticketID, ProjectID: ticket.ProjectID}
	if err := m.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	result := &Result{Session: session}
	m.mirror(result)
	return result, nil
}

// UpdateState appends a state entry to the session history. Only membership
// in the state set is checked; any valid state may follow any other.
func (m *Manager) UpdateState(ctx context.Context, sessionID string, state types.SessionState, metadata map[string]string) (*Result, error) {
	if !state.IsValid() {
		return nil, &types.ValidationError{Field: "state", Reason: fmt.Sprintf("invalid session state: %s", state)}
	}

	session, err := m.store.AppendSessionState(ctx, sessionID, types.StateEntry{
		State:    state,
		Metadata: metadata,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Session: session}
	m.mirror(result)
	return result, nil
}

// Complete finishes a session with an outcome and clears the mirror so
// hooks stop governing the workspace.
func (m *Manager) Complete(ctx context.Context, sessionID string, outcome types.Outcome, errorMessage string) (*Result, error) {
	session, err := m.store.CompleteSession(ctx, sessionID, outcome, errorMessage)
	if err != nil {
		return nil, err
	}

	result := &Result{Session: session, MirrorWritten: true}
	if m.channel != nil {
		if err := m.channel.Clear(); err != nil {
			result.MirrorWritten = false
			result.Warnings = append(result.Warnings, fmt.Sprintf("mirror clear failed: %v", err))
		}
	}
	return result, nil
}

// Get returns a session with its full state history
func (m *Manager) Get(ctx context.Context, sessionID string) (*types.Session, error) {
	return m.store.GetSession(ctx, sessionID)
}

// mirror rewrites the state file from the session record
func (m *Manager) mirror(result *Result) {
	if m.channel == nil {
		return
	}
	if err := m.channel.Write(statefile.FromSession(result.Session)); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("mirror write failed: %v", err))
		return
	}
	result.MirrorWritten = true
}
