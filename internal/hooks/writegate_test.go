package hooks

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ralphkit/ralphkit/internal/statefile"
	"github.com/ralphkit/ralphkit/internal/types"
)

func mirrorWith(t *testing.T, state string) *statefile.FileChannel {
	t.Helper()
	channel := statefile.DefaultChannel(t.TempDir())
	if state != "" {
		err := channel.Write(&statefile.MirrorState{
			SessionID:    "sess-1",
			TicketID:     "rk-1",
			CurrentState: state,
			StateHistory: []string{"idle", state},
			StartedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return channel
}

func TestWriteGateStates(t *testing.T) {
	tests := []struct {
		state string
		allow bool
	}{
		{"idle", false},
		{"analyzing", false},
		{"implementing", true},
		{"testing", true},
		{"committing", true},
		{"reviewing", false},
		{"done", false},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			gate := NewWriteGate(mirrorWith(t, tt.state))
			decision := gate.Check()
			if decision.Allowed != tt.allow {
				t.Errorf("state %s: allowed = %v, want %v", tt.state, decision.Allowed, tt.allow)
			}
			if decision.SessionID != "sess-1" {
				t.Errorf("decision should carry the session id, got %q", decision.SessionID)
			}
		})
	}
}

func TestWriteGateAbsentMirrorAllows(t *testing.T) {
	gate := NewWriteGate(mirrorWith(t, ""))
	decision := gate.Check()
	if !decision.Allowed {
		t.Errorf("absent mirror must allow: %s", decision.Reason)
	}
	if decision.Deny() != nil {
		t.Error("allowed decision must not produce an error")
	}
}

func TestWriteGateDenialNamesRemediation(t *testing.T) {
	gate := NewWriteGate(mirrorWith(t, "analyzing"))
	decision := gate.Check()
	if decision.Allowed {
		t.Fatal("analyzing must deny writes")
	}

	err := decision.Deny()
	var denial *types.DenialError
	if !errors.As(err, &denial) {
		t.Fatalf("got %T, want DenialError", err)
	}
	if denial.Remediation != "declare intent first: rk session update sess-1 --state implementing" {
		t.Errorf("remediation = %q", denial.Remediation)
	}
}

func TestWriteGateCorruptMirrorDenies(t *testing.T) {
	dir := t.TempDir()
	channel := statefile.DefaultChannel(dir)
	path := channel.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	decision := NewWriteGate(channel).Check()
	if decision.Allowed {
		t.Error("corrupt mirror must deny")
	}
	if decision.Remediation == "" {
		t.Error("corrupt-mirror denial must tell the caller how to recover")
	}
}
