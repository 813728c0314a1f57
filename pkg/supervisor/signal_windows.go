//go:build windows

package supervisor

import "os"

// Windows has no SIGTERM; the graceful path degrades to Kill.
var signalTerm = os.Kill
