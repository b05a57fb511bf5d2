//go:build js && wasm

package lockfile

// isProcessRunning checks if a process with the given PID is running.
// WASM has no process management, so nothing is ever running.
func isProcessRunning(pid int) bool {
	return false
}
