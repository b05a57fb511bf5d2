// Package statefile implements the filesystem channel that shares session
// state and review markers with out-of-process enforcement hooks.
package statefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ralphkit/ralphkit/internal/types"
)

// MirrorFileName is the per-project session state artifact
const MirrorFileName = "session-state.json"

// MirrorState is the JSON shape consumed by the write-gate hook. The state
// history is flattened to bare state names; full metadata lives only in the
// canonical session record.
type MirrorState struct {
	SessionID    string    `json:"sessionId"`
	TicketID     string    `json:"ticketId"`
	CurrentState string    `json:"currentState"`
	StateHistory []string  `json:"stateHistory"`
	StartedAt    time.Time `json:"startedAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FromSession builds the mirror projection of a session
func FromSession(session *types.Session) *MirrorState {
	history := make([]string, 0, len(session.History))
	for _, entry := range session.History {
		history = append(history, string(entry.State))
	}
	return &MirrorState{
		SessionID:    session.ID,
		TicketID:     session.TicketID,
		CurrentState: string(session.CurrentState),
		StateHistory: history,
		StartedAt:    session.StartedAt,
		UpdatedAt:    time.Now(),
	}
}

// ReadStatus classifies the result of reading the channel
type ReadStatus int

const (
	// ReadOK means a well-formed state was read
	ReadOK ReadStatus = iota
	// ReadAbsent means no state file exists (no governed session active)
	ReadAbsent
	// ReadCorrupt means the file exists but is unreadable, unparsable, or
	// missing required fields
	ReadCorrupt
)

// ReadResult carries the channel read outcome. State is non-nil only for
// ReadOK; Err describes the corruption for ReadCorrupt.
type ReadResult struct {
	Status ReadStatus
	State  *MirrorState
	Err    error
}

// Channel is the narrow read/write/clear contract between the session state
// owner and the enforcement hook reading it from another process.
type Channel interface {
	Write(state *MirrorState) error
	Read() ReadResult
	Clear() error
}

// FileChannel implements Channel over a single JSON file
type FileChannel struct {
	path string
}

// NewFileChannel creates a channel backed by the given file path
func NewFileChannel(path string) *FileChannel {
	return &FileChannel{path: path}
}

// DefaultChannel returns the channel at the project's standard mirror path
// (<dir>/.ralphkit/session-state.json).
func DefaultChannel(projectDir string) *FileChannel {
	return NewFileChannel(filepath.Join(projectDir, ".ralphkit", MirrorFileName))
}

// Path returns the backing file path
func (c *FileChannel) Path() string {
	return c.path
}

// Write replaces the state file. The write goes through a temp file and
// rename so hook readers never observe a half-written mirror.
func (c *FileChannel) Write(state *MirrorState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, MirrorFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Read classifies the file as absent, corrupt, or well-formed. Partial or
// concurrently-written content maps to ReadCorrupt, never a panic.
func (c *FileChannel) Read() ReadResult {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return ReadResult{Status: ReadAbsent}
	}
	if err != nil {
		return ReadResult{Status: ReadCorrupt, Err: fmt.Errorf("failed to read state file: %w", err)}
	}

	var state MirrorState
	if err := json.Unmarshal(data, &state); err != nil {
		return ReadResult{Status: ReadCorrupt, Err: fmt.Errorf("failed to parse state file: %w", err)}
	}
	if state.CurrentState == "" || state.SessionID == "" {
		return ReadResult{Status: ReadCorrupt, Err: fmt.Errorf("state file missing required fields")}
	}

	return ReadResult{Status: ReadOK, State: &state}
}

// Clear removes the state file. A missing file is not an error.
func (c *FileChannel) Clear() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}
