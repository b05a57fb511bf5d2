// Package hooks implements the out-of-process enforcement gates: the
// write gate consulted before code-mutating tool calls and the push gate
// consulted before git pushes.
package hooks

import (
	"fmt"

	"github.com/ralphkit/ralphkit/internal/statefile"
	"github.com/ralphkit/ralphkit/internal/types"
)

// Decision is the gate verdict returned to the hook caller
type Decision struct {
	Allowed     bool   `json:"allowed"`
	Gate        string `json:"gate"`
	Reason      string `json:"reason,omitempty"`
	Remediation string `json:"remediation,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	State       string `json:"state,omitempty"`
}

// Deny converts a blocking decision into a DenialError; nil when allowed
func (d *Decision) Deny() error {
	if d.Allowed {
		return nil
	}
	return &types.DenialError{Gate: d.Gate, Reason: d.Reason, Remediation: d.Remediation}
}

// WriteGate decides whether code-mutating tool calls may proceed, based
// only on the session state mirror. It never touches the database: hooks
// fire on every tool call and must stay cheap.
type WriteGate struct {
	channel statefile.Channel
}

// NewWriteGate creates a write gate over the given channel
func NewWriteGate(channel statefile.Channel) *WriteGate {
	return &WriteGate{channel: channel}
}

// Check evaluates the gate. An absent mirror means no governed session is
// active and the gate stands down. A corrupt mirror denies: a session may
// be active, so guessing open would defeat the gate.
func (g *WriteGate) Check() *Decision {
	read := g.channel.Read()

	switch read.Status {
	case statefile.ReadAbsent:
		return &Decision{Allowed: true, Gate: "write-gate", Reason: "no active session"}

	case statefile.ReadCorrupt:
		return &Decision{
			Allowed:     false,
			Gate:        "write-gate",
			Reason:      fmt.Sprintf("session state file is unreadable: %v", read.Err),
			Remediation: "delete the session state file and restart the session: rm .ralphkit/" + statefile.MirrorFileName,
		}
	}

	state := types.SessionState(read.State.CurrentState)
	if state.AllowsWrites() {
		return &Decision{
			Allowed:   true,
			Gate:      "write-gate",
			SessionID: read.State.SessionID,
			State:     read.State.CurrentState,
		}
	}

	return &Decision{
		Allowed:   false,
		Gate:      "write-gate",
		SessionID: read.State.SessionID,
		State:     read.State.CurrentState,
		Reason: fmt.Sprintf("session %s is in state %q, writes are only allowed in implementing, testing, or committing",
			read.State.SessionID, read.State.CurrentState),
		Remediation: fmt.Sprintf("declare intent first: rk session update %s --state implementing", read.State.SessionID),
	}
}
