package ports

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFree(t *testing.T) {
	port, err := Free()
	require.NoError(t, err)
	assert.Greater(t, port, 0)
	assert.LessOrEqual(t, port, 65535)
}

func TestCheck_BusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	assert.Error(t, Check(port))
	assert.False(t, IsAvailable(port))
}

func TestCheck_FreePort(t *testing.T) {
	port, err := Free()
	require.NoError(t, err)

	// The port was just released by Free, so it should still be bindable.
	assert.NoError(t, Check(port))
	assert.True(t, IsAvailable(port))
}
