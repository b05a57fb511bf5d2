// Package lockfile guards single-instance resources with an exclusive
// file lock. The daemon holds one per database so two daemons never
// serve the same socket.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrLocked is returned when another live process holds the lock.
var ErrLocked = errors.New("lock already held by another process")

// Lock is a held exclusive lock. Release it with Close.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive non-blocking lock on path and records the
// holder's PID in it. Returns ErrLocked when another process holds it.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644) // #nosec G304 - lock file next to db
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := flockExclusive(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)
	}
	return &Lock{file: f, path: path}, nil
}

// Close releases the lock and removes the lock file.
func (l *Lock) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	_ = os.Remove(l.path)
	return err
}

// HolderPID reads the PID recorded in a lock file.
// Returns 0 when the file is missing or unreadable.
func HolderPID(path string) int {
	data, err := os.ReadFile(path) // #nosec G304 - lock file next to db
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

// ProcessAlive reports whether a process with the given PID is running.
func ProcessAlive(pid int) bool {
	return isProcessRunning(pid)
}
