// Package ports provides port availability checking.
package ports

import (
	"fmt"
	"net"
)

// IsAvailable checks if a port is available for binding.
// Returns true if the port is available, false otherwise.
func IsAvailable(port int) bool {
	return Check(port) == nil
}

// Check checks if a port is available and returns an error if not.
func Check(port int) error {
	addr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	_ = ln.Close()
	return nil
}

// Free asks the kernel for a free TCP port.
// Useful when the caller wants an ephemeral port instead of a fixed one.
func Free() (int, error) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, err
	}
	defer func() { _ = ln.Close() }()
	return ln.Addr().(*net.TCPAddr).Port, nil
}
