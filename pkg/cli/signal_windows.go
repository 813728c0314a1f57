//go:build windows

package cli

import (
	"os"
)

// Signals for Windows. There is no SIGTERM; both paths kill.
var (
	signalTerm = os.Kill
	signalKill = os.Kill
)

// signalTermName returns the name of the graceful shutdown signal.
func signalTermName() string {
	return "Kill"
}

// signalKillName returns the name of the force kill signal.
func signalKillName() string {
	return "Kill"
}

// checkProcessRunning checks if a process is running.
func checkProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// FindProcess on Windows fails for dead processes, so reaching here
	// means the process exists.
	_ = process
	return true
}
