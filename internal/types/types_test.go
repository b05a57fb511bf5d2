package types

import (
	"strings"
	"testing"
	"time"
)

func TestTicketValidate(t *testing.T) {
	tests := []struct {
		name    string
		ticket  Ticket
		wantErr bool
	}{
		{
			name:    "valid ticket",
			ticket:  Ticket{Title: "Fix login", Status: StatusBacklog, Priority: PriorityHigh},
			wantErr: false,
		},
		{
			name:    "valid with no priority",
			ticket:  Ticket{Title: "Fix login", Status: StatusReady},
			wantErr: false,
		},
		{
			name:    "missing title",
			ticket:  Ticket{Status: StatusBacklog},
			wantErr: true,
		},
		{
			name:    "title too long",
			ticket:  Ticket{Title: strings.Repeat("x", 501), Status: StatusBacklog},
			wantErr: true,
		},
		{
			name:    "invalid status",
			ticket:  Ticket{Title: "Fix login", Status: "archived"},
			wantErr: true,
		},
		{
			name:    "invalid priority",
			ticket:  Ticket{Title: "Fix login", Status: StatusBacklog, Priority: "urgent"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ticket.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatusIsTerminalForWork(t *testing.T) {
	terminal := []Status{StatusDone, StatusAIReview, StatusHumanReview}
	for _, s := range terminal {
		if !s.IsTerminalForWork() {
			t.Errorf("%s should be terminal for work completion", s)
		}
	}
	active := []Status{StatusBacklog, StatusReady, StatusInProgress}
	for _, s := range active {
		if s.IsTerminalForWork() {
			t.Errorf("%s should not be terminal for work completion", s)
		}
	}
}

func TestPriorityRank(t *testing.T) {
	tests := []struct {
		priority Priority
		want     int
	}{
		{PriorityHigh, 0},
		{PriorityMedium, 1},
		{PriorityNone, 1},
		{PriorityLow, 2},
	}
	for _, tt := range tests {
		if got := tt.priority.Rank(); got != tt.want {
			t.Errorf("Rank(%q) = %d, want %d", tt.priority, got, tt.want)
		}
	}
}

func TestSeverityBlocking(t *testing.T) {
	if !SeverityCritical.Blocking() {
		t.Error("critical should block")
	}
	if !SeverityMajor.Blocking() {
		t.Error("major should block")
	}
	if SeverityMinor.Blocking() {
		t.Error("minor should never block")
	}
}

func TestSessionStateValidity(t *testing.T) {
	valid := []SessionState{
		StateIdle, StateAnalyzing, StateImplementing, StateTesting,
		StateCommitting, StateReviewing, StateDone,
	}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("%s should be a valid session state", s)
		}
	}
	if SessionState("paused").IsValid() {
		t.Error("paused should not be a valid session state")
	}
}

func TestSessionStateAllowsWrites(t *testing.T) {
	allowed := []SessionState{StateImplementing, StateTesting, StateCommitting}
	for _, s := range allowed {
		if !s.AllowsWrites() {
			t.Errorf("%s should allow writes", s)
		}
	}
	denied := []SessionState{StateIdle, StateAnalyzing, StateReviewing, StateDone}
	for _, s := range denied {
		if s.AllowsWrites() {
			t.Errorf("%s should not allow writes", s)
		}
	}
}

func TestSessionCompleted(t *testing.T) {
	s := Session{ID: "s1", TicketID: "rk-1", CurrentState: StateIdle}
	if s.Completed() {
		t.Error("session without completed_at should not be completed")
	}
	now := time.Now()
	s.CompletedAt = &now
	if !s.Completed() {
		t.Error("session with completed_at should be completed")
	}
}

func TestFindingValidate(t *testing.T) {
	f := Finding{TicketID: "rk-1", Severity: SeverityMajor, Description: "off by one"}
	if err := f.Validate(); err != nil {
		t.Errorf("valid finding rejected: %v", err)
	}

	f = Finding{TicketID: "rk-1", Severity: "cosmetic", Description: "x"}
	if err := f.Validate(); err == nil {
		t.Error("invalid severity should be rejected")
	}

	f = Finding{TicketID: "rk-1", Severity: SeverityMinor}
	if err := f.Validate(); err == nil {
		t.Error("missing description should be rejected")
	}
}
