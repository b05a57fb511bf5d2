package utils

import (
	"context"
	"testing"

	"github.com/ralphkit/ralphkit/internal/storage/sqlite"
	"github.com/ralphkit/ralphkit/internal/types"
)

func TestParseTicketID(t *testing.T) {
	tests := []struct {
		input  string
		prefix string
		want   string
	}{
		{"rk-7", "", "rk-7"},
		{"7", "", "rk-7"},
		{"qa-12", "qa", "qa-12"},
		{"12", "qa", "qa-12"},
		{"rk-7", "qa", "qa-rk-7"},
	}
	for _, tt := range tests {
		if got := ParseTicketID(tt.input, tt.prefix); got != tt.want {
			t.Errorf("ParseTicketID(%q, %q) = %q, want %q", tt.input, tt.prefix, got, tt.want)
		}
	}
}

func TestExtractTicketParts(t *testing.T) {
	if got := ExtractTicketPrefix("rk-12"); got != "rk" {
		t.Errorf("ExtractTicketPrefix = %q, want rk", got)
	}
	if got := ExtractTicketPrefix("nodash"); got != "" {
		t.Errorf("ExtractTicketPrefix = %q, want empty", got)
	}
	if got := ExtractTicketNumber("rk-12"); got != 12 {
		t.Errorf("ExtractTicketNumber = %d, want 12", got)
	}
	if got := ExtractTicketNumber("rk-"); got != 0 {
		t.Errorf("ExtractTicketNumber = %d, want 0", got)
	}
}

func TestResolveTicketID(t *testing.T) {
	store, err := sqlite.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	ticket := &types.Ticket{Title: "Add rate limiter"}
	if err := store.CreateTicket(ctx, ticket); err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	got, err := ResolveTicketID(ctx, store, "1")
	if err != nil {
		t.Fatalf("ResolveTicketID failed: %v", err)
	}
	if got != ticket.ID {
		t.Errorf("got %q, want %q", got, ticket.ID)
	}

	got, err = ResolveTicketID(ctx, store, ticket.ID)
	if err != nil {
		t.Fatalf("ResolveTicketID failed: %v", err)
	}
	if got != ticket.ID {
		t.Errorf("got %q, want %q", got, ticket.ID)
	}

	if _, err := ResolveTicketID(ctx, store, "999"); err == nil {
		t.Error("expected error for unknown ticket")
	}
}
