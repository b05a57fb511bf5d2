package workflow

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ralphkit/ralphkit/internal/storage/sqlite"
	"github.com/ralphkit/ralphkit/internal/types"
)

// fakeWorkspace satisfies Workspace without touching git
type fakeWorkspace struct {
	validateErr error
	branches    map[string]bool
}

func (f *fakeWorkspace) Validate() error { return f.validateErr }

func (f *fakeWorkspace) CheckoutBranch(branch string) (bool, error) {
	if f.branches == nil {
		f.branches = make(map[string]bool)
	}
	if f.branches[branch] {
		return false, nil
	}
	f.branches[branch] = true
	return true, nil
}

func setupService(t *testing.T) (*Service, *sqlite.SQLiteStorage, *fakeWorkspace) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ws := &fakeWorkspace{}
	svc := NewService(store, "test-agent")
	svc.openWorkspace = func(string) Workspace { return ws }
	return svc, store, ws
}

func setupTicket(t *testing.T, store *sqlite.SQLiteStorage, title string) *types.Ticket {
	t.Helper()
	ctx := context.Background()

	project := &types.Project{Name: "proj", Path: t.TempDir()}
	if err := store.CreateProject(ctx, project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	ticket := &types.Ticket{Title: title, ProjectID: project.ID}
	if err := store.CreateTicket(ctx, ticket); err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}
	return ticket
}

func TestStartWork(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx := context.Background()
	ticket := setupTicket(t, store, "Fix login bug")

	result, err := svc.StartWork(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("StartWork failed: %v", err)
	}

	if result.BranchName != "feature/rk-1-fix-login-bug" {
		t.Errorf("branch = %s", result.BranchName)
	}
	if !result.BranchCreated {
		t.Error("branch should have been created")
	}
	if result.AlreadyStarted {
		t.Error("first call should not report already started")
	}

	got, err := store.GetTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.StatusInProgress {
		t.Errorf("status = %s, want in_progress", got.Status)
	}

	comments, err := store.GetComments(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 1 || comments[0].Type != types.CommentPlain {
		t.Errorf("expected one start comment, got %v", comments)
	}
}

func TestStartWorkIdempotent(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx := context.Background()
	ticket := setupTicket(t, store, "Fix login bug")

	first, err := svc.StartWork(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("first StartWork failed: %v", err)
	}
	second, err := svc.StartWork(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("second StartWork failed: %v", err)
	}

	if !second.AlreadyStarted {
		t.Error("second call should report already started")
	}
	if second.BranchCreated {
		t.Error("second call must report branchCreated=false")
	}
	if second.BranchName != first.BranchName {
		t.Errorf("branch names differ: %s vs %s", first.BranchName, second.BranchName)
	}

	comments, err := store.GetComments(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 1 {
		t.Errorf("got %d comments, want exactly 1", len(comments))
	}
}

func TestStartWorkRejectsDoneTicket(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx := context.Background()
	ticket := setupTicket(t, store, "Shipped already")

	if err := store.SetTicketStatus(ctx, ticket.ID, types.StatusDone, true); err != nil {
		t.Fatalf("SetTicketStatus failed: %v", err)
	}

	if _, err := svc.StartWork(ctx, ticket.ID); !types.IsPrecondition(err) {
		t.Errorf("got %v, want PreconditionError", err)
	}

	got, err := store.GetTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.StatusDone {
		t.Errorf("status = %s, want done", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at must survive a rejected restart")
	}
}

func TestStartWorkInvalidWorkspace(t *testing.T) {
	svc, store, ws := setupService(t)
	ctx := context.Background()
	ticket := setupTicket(t, store, "No repo here")
	ws.validateErr = &types.PreconditionError{Op: "validate", Reason: "not a git work tree"}

	if _, err := svc.StartWork(ctx, ticket.ID); !types.IsPrecondition(err) {
		t.Errorf("got %v, want PreconditionError", err)
	}

	got, err := store.GetTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.StatusBacklog {
		t.Errorf("failed start must not mutate status, got %s", got.Status)
	}
}

func TestCompleteWork(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx := context.Background()
	ticket := setupTicket(t, store, "Fix login bug")

	if _, err := svc.StartWork(ctx, ticket.ID); err != nil {
		t.Fatal(err)
	}

	result, err := svc.CompleteWork(ctx, ticket.ID, "implemented and tested")
	if err != nil {
		t.Fatalf("CompleteWork failed: %v", err)
	}
	if result.NoOp {
		t.Error("should not be a no-op")
	}
	if result.Status != types.StatusAIReview {
		t.Errorf("status = %s, want ai_review", result.Status)
	}

	comments, err := store.GetComments(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 2 {
		t.Fatalf("got %d comments, want 2", len(comments))
	}
	if comments[1].Type != types.CommentWorkSummary || comments[1].Content != "implemented and tested" {
		t.Errorf("summary comment wrong: %+v", comments[1])
	}

	ws, err := store.GetWorkflowState(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ws.ReviewIteration != 1 {
		t.Errorf("review_iteration = %d, want 1", ws.ReviewIteration)
	}
	if ws.FindingsCount != 0 {
		t.Errorf("findings_count = %d, want 0", ws.FindingsCount)
	}
}

func TestCompleteWorkNoOpInReview(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx := context.Background()
	ticket := setupTicket(t, store, "Fix login bug")

	if _, err := svc.StartWork(ctx, ticket.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CompleteWork(ctx, ticket.ID, "summary one"); err != nil {
		t.Fatal(err)
	}

	// Retry while in ai_review: no status change, no extra summary
	result, err := svc.CompleteWork(ctx, ticket.ID, "summary two")
	if err != nil {
		t.Fatalf("retry CompleteWork failed: %v", err)
	}
	if !result.NoOp {
		t.Error("retry should be a no-op")
	}

	comments, err := store.GetComments(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 2 {
		t.Errorf("got %d comments, want 2 (no duplicate summary)", len(comments))
	}
}

func TestCompleteWorkSuggestsNextTicket(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx := context.Background()
	ticket := setupTicket(t, store, "Current work")

	other := &types.Ticket{Title: "Next up", ProjectID: ticket.ProjectID, Priority: types.PriorityHigh}
	if err := store.CreateTicket(ctx, other); err != nil {
		t.Fatal(err)
	}
	reviewed := &types.Ticket{Title: "Already reviewing", ProjectID: ticket.ProjectID, Status: types.StatusAIReview}
	if err := store.CreateTicket(ctx, reviewed); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.StartWork(ctx, ticket.ID); err != nil {
		t.Fatal(err)
	}
	result, err := svc.CompleteWork(ctx, ticket.ID, "done")
	if err != nil {
		t.Fatal(err)
	}

	if result.NextTicket == nil {
		t.Fatal("expected a next ticket suggestion")
	}
	if result.NextTicket.ID != other.ID {
		t.Errorf("next = %s, want %s", result.NextTicket.ID, other.ID)
	}
}

func TestLinkCommitPrefixDedup(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx := context.Background()
	ticket := setupTicket(t, store, "Commit linking")

	added, err := svc.LinkCommit(ctx, ticket.ID, "abcdef1234567890", "fix")
	if err != nil {
		t.Fatalf("LinkCommit failed: %v", err)
	}
	if !added {
		t.Error("first link should add")
	}

	// Shorter prefix of an existing hash is a duplicate
	added, err = svc.LinkCommit(ctx, ticket.ID, "abcdef12", "fix again")
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("prefix of linked hash should be skipped")
	}

	// Longer extension of an existing hash is a duplicate too
	added, err = svc.LinkCommit(ctx, ticket.ID, "abcdef1234567890ff", "fix again")
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("extension of linked hash should be skipped")
	}

	added, err = svc.LinkCommit(ctx, ticket.ID, "123456", "unrelated")
	if err != nil {
		t.Fatal(err)
	}
	if !added {
		t.Error("unrelated hash should be added")
	}

	commits, err := store.ListCommits(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 2 {
		t.Errorf("got %d commits, want 2", len(commits))
	}
}
