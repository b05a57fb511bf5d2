package sqlite

import (
	"context"
	"testing"

	"github.com/ralphkit/ralphkit/internal/types"
)

func TestCreateAndFixFinding(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	ticket := createTestTicket(t, store, "finding target")

	finding := &types.Finding{
		TicketID:    ticket.ID,
		Iteration:   1,
		Severity:    types.SeverityCritical,
		Category:    "correctness",
		Description: "nil deref on empty input",
	}
	if err := store.CreateFinding(ctx, finding); err != nil {
		t.Fatalf("CreateFinding failed: %v", err)
	}
	if finding.ID == "" {
		t.Error("finding ID should be set")
	}
	if finding.Status != types.FindingOpen {
		t.Errorf("status = %s, want open", finding.Status)
	}

	fixed, err := store.MarkFindingFixed(ctx, finding.ID)
	if err != nil {
		t.Fatalf("MarkFindingFixed failed: %v", err)
	}
	if fixed.Status != types.FindingFixed {
		t.Errorf("status = %s, want fixed", fixed.Status)
	}
	if fixed.FixedAt == nil {
		t.Error("fixed_at should be set")
	}
}

func TestCountOpenBlockingFindings(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	ticket := createTestTicket(t, store, "blocking counts")

	mk := func(severity types.Severity) *types.Finding {
		f := &types.Finding{TicketID: ticket.ID, Severity: severity, Description: "x"}
		if err := store.CreateFinding(ctx, f); err != nil {
			t.Fatalf("CreateFinding(%s) failed: %v", severity, err)
		}
		return f
	}

	critical := mk(types.SeverityCritical)
	mk(types.SeverityMajor)
	mk(types.SeverityMinor)

	count, err := store.CountOpenBlockingFindings(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("CountOpenBlockingFindings failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2 (minor never blocks)", count)
	}

	if _, err := store.MarkFindingFixed(ctx, critical.ID); err != nil {
		t.Fatalf("MarkFindingFixed failed: %v", err)
	}

	count, err = store.CountOpenBlockingFindings(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("CountOpenBlockingFindings failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestWorkflowStateCounters(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	ticket := createTestTicket(t, store, "workflow counters")

	if err := store.BumpWorkflowCounter(ctx, ticket.ID, "findings_count", 1); err != nil {
		t.Fatalf("BumpWorkflowCounter failed: %v", err)
	}
	if err := store.BumpWorkflowCounter(ctx, ticket.ID, "findings_count", 1); err != nil {
		t.Fatalf("BumpWorkflowCounter failed: %v", err)
	}
	if err := store.BumpWorkflowCounter(ctx, ticket.ID, "findings_fixed", 1); err != nil {
		t.Fatalf("BumpWorkflowCounter failed: %v", err)
	}

	ws, err := store.GetWorkflowState(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetWorkflowState failed: %v", err)
	}
	if ws.FindingsCount != 2 || ws.FindingsFixed != 1 {
		t.Errorf("counters = %d/%d, want 2/1", ws.FindingsCount, ws.FindingsFixed)
	}

	if err := store.BumpWorkflowCounter(ctx, ticket.ID, "nonsense", 1); err == nil {
		t.Error("unknown column should be rejected")
	}
}

func TestUpdateWorkflowState(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	ticket := createTestTicket(t, store, "workflow updates")

	err := store.UpdateWorkflowState(ctx, ticket.ID, map[string]interface{}{
		"current_phase":  "human_review",
		"demo_generated": 1,
	})
	if err != nil {
		t.Fatalf("UpdateWorkflowState failed: %v", err)
	}

	ws, err := store.GetWorkflowState(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetWorkflowState failed: %v", err)
	}
	if ws.CurrentPhase != "human_review" {
		t.Errorf("phase = %s, want human_review", ws.CurrentPhase)
	}
	if !ws.DemoGenerated {
		t.Error("demo_generated should be true")
	}
}

func TestDemoScriptLifecycle(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	ticket := createTestTicket(t, store, "demo target")

	script := &types.DemoScript{
		TicketID: ticket.ID,
		Steps: []types.DemoStep{
			{Description: "open the page", ExpectedOutcome: "login form renders"},
			{Description: "submit valid creds", ExpectedOutcome: "dashboard loads", Type: "manual"},
		},
	}
	if err := store.CreateDemoScript(ctx, script); err != nil {
		t.Fatalf("CreateDemoScript failed: %v", err)
	}

	// At most one script per ticket
	if err := store.CreateDemoScript(ctx, script); err == nil {
		t.Error("second CreateDemoScript should fail")
	}

	got, err := store.GetDemoScript(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetDemoScript failed: %v", err)
	}
	if len(got.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(got.Steps))
	}
	if got.Steps[0].Order != 1 || got.Steps[1].Order != 2 {
		t.Errorf("step order = %d, %d", got.Steps[0].Order, got.Steps[1].Order)
	}
	if got.Passed != nil {
		t.Error("passed should be null before feedback")
	}

	if err := store.RecordDemoFeedback(ctx, ticket.ID, false, "step 2 broke"); err != nil {
		t.Fatalf("RecordDemoFeedback failed: %v", err)
	}
	got, err = store.GetDemoScript(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetDemoScript failed: %v", err)
	}
	if got.Passed == nil || *got.Passed {
		t.Error("passed should be false")
	}
	if got.CompletedAt != nil {
		t.Error("completed_at should stay unset on rejection")
	}

	if err := store.RecordDemoFeedback(ctx, ticket.ID, true, "looks good"); err != nil {
		t.Fatalf("RecordDemoFeedback failed: %v", err)
	}
	got, err = store.GetDemoScript(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetDemoScript failed: %v", err)
	}
	if got.Passed == nil || !*got.Passed {
		t.Error("passed should be true")
	}
	if got.CompletedAt == nil {
		t.Error("completed_at should be set on pass")
	}
}
