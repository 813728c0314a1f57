//go:build !windows

package supervisor

import "syscall"

// signalTerm is the graceful shutdown signal sent before a forced kill.
var signalTerm = syscall.SIGTERM
