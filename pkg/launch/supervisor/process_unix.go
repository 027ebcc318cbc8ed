//go:build !windows

package supervisor

import (
	"os"
	"syscall"
)

// IsProcessRunning checks if a process with given PID is still running
func IsProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal(0) checks if process exists without actually sending a signal
	return process.Signal(syscall.Signal(0)) == nil
}
