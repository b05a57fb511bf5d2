package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ralphkit/ralphkit/internal/types"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func createTestTicket(t *testing.T, store *SQLiteStorage, title string) *types.Ticket {
	t.Helper()

	ticket := &types.Ticket{Title: title, Status: types.StatusBacklog}
	if err := store.CreateTicket(context.Background(), ticket); err != nil {
		t.Fatalf("failed to create ticket: %v", err)
	}
	return ticket
}
