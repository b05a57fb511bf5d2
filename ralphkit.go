// Package ralphkit provides a minimal public API for extending rk with
// custom orchestration.
//
// Most extensions should use direct SQL queries against rk's database.
// This package exports only the essential types and functions needed for
// Go-based extensions that want to use rk's storage layer programmatically.
package ralphkit

import (
	"os"
	"path/filepath"

	"github.com/ralphkit/ralphkit/internal/storage"
	"github.com/ralphkit/ralphkit/internal/storage/sqlite"
	"github.com/ralphkit/ralphkit/internal/types"
)

// Core types for working with tickets and sessions
type (
	Ticket       = types.Ticket
	Status       = types.Status
	Priority     = types.Priority
	Session      = types.Session
	SessionState = types.SessionState
	Finding      = types.Finding
	DemoScript   = types.DemoScript
)

// Status constants
const (
	StatusBacklog     = types.StatusBacklog
	StatusReady       = types.StatusReady
	StatusInProgress  = types.StatusInProgress
	StatusAIReview    = types.StatusAIReview
	StatusHumanReview = types.StatusHumanReview
	StatusDone        = types.StatusDone
)

// Session state constants
const (
	StateIdle         = types.StateIdle
	StateAnalyzing    = types.StateAnalyzing
	StateImplementing = types.StateImplementing
	StateTesting      = types.StateTesting
	StateCommitting   = types.StateCommitting
	StateReviewing    = types.StateReviewing
	StateDone         = types.StateDone
)

// Storage provides the minimal interface for extension orchestration
type Storage = storage.Storage

// NewSQLiteStorage opens an rk SQLite database for programmatic access.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return sqlite.New(dbPath)
}

// FindDatabasePath discovers the rk database path using the standard
// search order:
//  1. $RK_DB environment variable
//  2. .ralphkit/*.db in current directory or ancestors
//  3. ~/.ralphkit/default.db (fallback)
//
// Returns empty string if no database is found at (1) or (2) and (3)
// doesn't exist.
func FindDatabasePath() string {
	if envDB := os.Getenv("RK_DB"); envDB != "" {
		return envDB
	}

	if foundDB := findDatabaseInTree(); foundDB != "" {
		return foundDB
	}

	if home, err := os.UserHomeDir(); err == nil {
		defaultDB := filepath.Join(home, ".ralphkit", "default.db")
		if _, err := os.Stat(defaultDB); err == nil {
			return defaultDB
		}
	}

	return ""
}

// findDatabaseInTree walks up the directory tree looking for .ralphkit/*.db
func findDatabaseInTree() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		rkDir := filepath.Join(dir, ".ralphkit")
		if info, err := os.Stat(rkDir); err == nil && info.IsDir() {
			matches, err := filepath.Glob(filepath.Join(rkDir, "*.db"))
			if err == nil && len(matches) > 0 {
				return matches[0]
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
