//go:build windows

package lockfile

import (
	"golang.org/x/sys/windows"
)

// GetExitCodeProcess reports this for processes that have not exited
const stillActive = 259

// isProcessRunning checks if a process with the given PID is running.
// Windows has no signal-0 probe, so we open the process and ask for its
// exit code instead.
func isProcessRunning(pid int) bool {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(handle)

	var code uint32
	if err := windows.GetExitCodeProcess(handle, &code); err != nil {
		return false
	}

	return code == stillActive
}
