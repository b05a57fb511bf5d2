package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if got := HolderPID(path); got != os.Getpid() {
		t.Errorf("HolderPID = %d, want %d", got, os.Getpid())
	}

	if err := lock.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("lock file should be removed on Close")
	}
}

func TestAcquireConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if _, err := Acquire(path); !errors.Is(err, ErrLocked) {
		t.Errorf("second Acquire err = %v, want ErrLocked", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	_ = second.Close()
}

func TestHolderPIDMissingFile(t *testing.T) {
	if got := HolderPID(filepath.Join(t.TempDir(), "absent.lock")); got != 0 {
		t.Errorf("HolderPID = %d, want 0", got)
	}
}

func TestProcessAlive(t *testing.T) {
	if !ProcessAlive(os.Getpid()) {
		t.Error("current process should be reported alive")
	}
	if ProcessAlive(1 << 30) {
		t.Error("nonexistent PID should not be reported alive")
	}
}
