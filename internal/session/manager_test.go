package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ralphkit/ralphkit/internal/statefile"
	"github.com/ralphkit/ralphkit/internal/storage/sqlite"
	"github.com/ralphkit/ralphkit/internal/types"
)

func setupManager(t *testing.T) (*Manager, *sqlite.SQLiteStorage, *statefile.FileChannel, string) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	projectDir := t.TempDir()
	channel := statefile.DefaultChannel(projectDir)

	ticket := &types.Ticket{Title: "Session work"}
	if err := store.CreateTicket(context.Background(), ticket); err != nil {
		t.Fatal(err)
	}

	return NewManager(store, channel), store, channel, ticket.ID
}

func TestCreateSession(t *testing.T) {
	mgr, _, channel, ticketID := setupManager(t)
	ctx := context.Background()

	result, err := mgr.Create(ctx, ticketID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if result.Session.CurrentState != types.StateIdle {
		t.Errorf("initial state = %s, want idle", result.Session.CurrentState)
	}
	if result.Reused {
		t.Error("first create should not reuse")
	}
	if !result.MirrorWritten {
		t.Errorf("mirror not written: %v", result.Warnings)
	}

	read := channel.Read()
	if read.Status != statefile.ReadOK {
		t.Fatalf("mirror read status = %v, err = %v", read.Status, read.Err)
	}
	if read.State.SessionID != result.Session.ID {
		t.Errorf("mirror sessionId = %s", read.State.SessionID)
	}
	if read.State.CurrentState != "idle" {
		t.Errorf("mirror currentState = %s", read.State.CurrentState)
	}
}

func TestCreateSessionCarriesProjectID(t *testing.T) {
	mgr, store, _, _ := setupManager(t)
	ctx := context.Background()

	project := &types.Project{Name: "proj", Path: t.TempDir()}
	if err := store.CreateProject(ctx, project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	ticket := &types.Ticket{Title: "Project work", ProjectID: project.ID}
	if err := store.CreateTicket(ctx, ticket); err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	result, err := mgr.Create(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if result.Session.ProjectID != project.ID {
		t.Errorf("session project = %q, want %q", result.Session.ProjectID, project.ID)
	}

	stored, err := store.GetSession(ctx, result.Session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ProjectID != project.ID {
		t.Errorf("stored project = %q, want %q", stored.ProjectID, project.ID)
	}
}

func TestCreateSessionReusesActive(t *testing.T) {
	mgr, _, _, ticketID := setupManager(t)
	ctx := context.Background()

	first, err := mgr.Create(ctx, ticketID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := mgr.Create(ctx, ticketID)
	if err != nil {
		t.Fatal(err)
	}

	if !second.Reused {
		t.Error("second create should reuse the active session")
	}
	if second.Session.ID != first.Session.ID {
		t.Errorf("got different sessions: %s vs %s", first.Session.ID, second.Session.ID)
	}
}

func TestUpdateStateMirrorsHistory(t *testing.T) {
	mgr, _, channel, ticketID := setupManager(t)
	ctx := context.Background()

	created, err := mgr.Create(ctx, ticketID)
	if err != nil {
		t.Fatal(err)
	}
	id := created.Session.ID

	for _, state := range []types.SessionState{types.StateAnalyzing, types.StateImplementing} {
		if _, err := mgr.UpdateState(ctx, id, state, nil); err != nil {
			t.Fatalf("UpdateState(%s) failed: %v", state, err)
		}
	}

	session, err := mgr.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if session.CurrentState != types.StateImplementing {
		t.Errorf("current state = %s, want implementing", session.CurrentState)
	}
	if len(session.History) != 3 {
		t.Errorf("history length = %d, want 3", len(session.History))
	}

	read := channel.Read()
	if read.Status != statefile.ReadOK {
		t.Fatalf("mirror read failed: %v", read.Err)
	}
	want := []string{"idle", "analyzing", "implementing"}
	if len(read.State.StateHistory) != len(want) {
		t.Fatalf("mirror history = %v", read.State.StateHistory)
	}
	for i, s := range want {
		if read.State.StateHistory[i] != s {
			t.Errorf("mirror history[%d] = %s, want %s", i, read.State.StateHistory[i], s)
		}
	}
}

func TestUpdateStateRejectsUnknownState(t *testing.T) {
	mgr, _, _, ticketID := setupManager(t)
	ctx := context.Background()

	created, err := mgr.Create(ctx, ticketID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := mgr.UpdateState(ctx, created.Session.ID, "daydreaming", nil); !types.IsValidation(err) {
		t.Errorf("got %v, want ValidationError", err)
	}
}

func TestCompleteSessionClearsMirror(t *testing.T) {
	mgr, _, channel, ticketID := setupManager(t)
	ctx := context.Background()

	created, err := mgr.Create(ctx, ticketID)
	if err != nil {
		t.Fatal(err)
	}

	result, err := mgr.Complete(ctx, created.Session.ID, types.OutcomeSuccess, "")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if !result.Session.Completed() {
		t.Error("session should be completed")
	}
	if result.Session.Outcome != types.OutcomeSuccess {
		t.Errorf("outcome = %s", result.Session.Outcome)
	}

	if read := channel.Read(); read.Status != statefile.ReadAbsent {
		t.Errorf("mirror should be cleared, got status %v", read.Status)
	}

	// Completed sessions are frozen
	if _, err := mgr.UpdateState(ctx, created.Session.ID, types.StateIdle, nil); !types.IsPrecondition(err) {
		t.Errorf("got %v, want PreconditionError on completed session", err)
	}

	// A fresh session can now be created for the same ticket
	next, err := mgr.Create(ctx, ticketID)
	if err != nil {
		t.Fatal(err)
	}
	if next.Reused {
		t.Error("completed session must not be reused")
	}
}

func TestManagerWithoutChannel(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	ticket := &types.Ticket{Title: "No project dir"}
	if err := store.CreateTicket(ctx, ticket); err != nil {
		t.Fatal(err)
	}

	mgr := NewManager(store, nil)
	result, err := mgr.Create(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("Create without channel failed: %v", err)
	}
	if result.MirrorWritten {
		t.Error("no channel means no mirror write")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}
