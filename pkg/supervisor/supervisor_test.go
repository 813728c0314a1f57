//go:build !windows

package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig launches /bin/sh with a script so tests need no fixture
// binaries. The script receives {specPath, port, host} like a real engine.
func testConfig(t *testing.T, script string) Config {
	t.Helper()
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "engine.sh")
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0o755))
	return Config{
		Command:      "sh",
		Script:       scriptPath,
		WorkDir:      dir,
		LogPath:      filepath.Join(dir, "engine.log"),
		GraceTimeout: 2 * time.Second,
	}
}

func writeSpecFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("openapi: 3.0.0\n"), 0o644))
	return path
}

func TestStartStop(t *testing.T) {
	s := New(testConfig(t, "#!/bin/sh\nexec sleep 30\n"))
	spec := writeSpecFile(t)

	require.NoError(t, s.Start(context.Background(), spec, 18080, "localhost"))
	t.Cleanup(func() { _ = s.Stop() })

	assert.True(t, s.Running())
	assert.Greater(t, s.PID(), 0)

	require.NoError(t, s.Stop())
	assert.False(t, s.Running())
	assert.Equal(t, 0, s.PID())
}

func TestStop_Idempotent(t *testing.T) {
	s := New(testConfig(t, "#!/bin/sh\nexec sleep 30\n"))
	spec := writeSpecFile(t)

	// Stop before any start is a no-op.
	require.NoError(t, s.Stop())

	require.NoError(t, s.Start(context.Background(), spec, 18080, "localhost"))
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	assert.False(t, s.Running())
}

func TestStop_AfterChildExited(t *testing.T) {
	s := New(testConfig(t, "#!/bin/sh\nexit 0\n"))
	spec := writeSpecFile(t)

	require.NoError(t, s.Start(context.Background(), spec, 18080, "localhost"))

	// Wait for the child to exit on its own, observed lazily via Running.
	require.Eventually(t, func() bool { return !s.Running() }, 3*time.Second, 20*time.Millisecond)

	assert.NoError(t, s.Stop())
}

func TestStart_ReplacesPreviousChild(t *testing.T) {
	s := New(testConfig(t, "#!/bin/sh\nexec sleep 30\n"))
	spec := writeSpecFile(t)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx, spec, 18080, "localhost"))
	firstPID := s.PID()
	require.Greater(t, firstPID, 0)

	require.NoError(t, s.Start(ctx, spec, 18081, "localhost"))
	t.Cleanup(func() { _ = s.Stop() })

	secondPID := s.PID()
	assert.NotEqual(t, firstPID, secondPID)
	assert.True(t, s.Running())

	// Exactly one child remains: the first process must be gone.
	require.Eventually(t, func() bool {
		return !processAlive(firstPID)
	}, 3*time.Second, 20*time.Millisecond)
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func TestStart_DependencyMissing(t *testing.T) {
	cfg := testConfig(t, "#!/bin/sh\n")
	cfg.Command = "definitely-not-installed-binary"
	s := New(cfg)

	err := s.Start(context.Background(), writeSpecFile(t), 18080, "localhost")
	assert.ErrorIs(t, err, ErrDependencyMissing)
	assert.Contains(t, err.Error(), "definitely-not-installed-binary")
	assert.False(t, s.Running())
}

func TestStart_ScriptNotFound(t *testing.T) {
	cfg := testConfig(t, "#!/bin/sh\n")
	cfg.Script = filepath.Join(t.TempDir(), "missing.js")
	s := New(cfg)

	err := s.Start(context.Background(), writeSpecFile(t), 18080, "localhost")
	assert.ErrorIs(t, err, ErrScriptNotFound)
}

func TestStart_SpecMissing(t *testing.T) {
	s := New(testConfig(t, "#!/bin/sh\n"))

	err := s.Start(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"), 18080, "localhost")
	assert.Error(t, err)
	assert.False(t, s.Running())
}

func TestStart_ArgsAndEnvReachChild(t *testing.T) {
	// The script echoes its argv and env so the launch contract is observable.
	s := New(testConfig(t, "#!/bin/sh\necho \"args: $1 $2 $3\"\necho \"env: $PORT $HOST\"\n"))
	spec := writeSpecFile(t)

	require.NoError(t, s.Start(context.Background(), spec, 18080, "localhost"))
	require.Eventually(t, func() bool { return !s.Running() }, 3*time.Second, 20*time.Millisecond)

	data, err := os.ReadFile(s.LogPath())
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "args: "+spec+" 18080 localhost")
	assert.Contains(t, out, "env: 18080 localhost")

	assert.Contains(t, s.RecentOutput(), "env: 18080 localhost")
}

func TestStart_TruncatesLog(t *testing.T) {
	cfg := testConfig(t, "#!/bin/sh\necho fresh\n")
	require.NoError(t, os.WriteFile(cfg.LogPath, []byte("stale content\n"), 0o644))
	s := New(cfg)

	require.NoError(t, s.Start(context.Background(), writeSpecFile(t), 18080, "localhost"))
	require.Eventually(t, func() bool { return !s.Running() }, 3*time.Second, 20*time.Millisecond)

	data, err := os.ReadFile(cfg.LogPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.Contains(t, string(data), "fresh")
}

func TestStop_ForceKillsStubbornChild(t *testing.T) {
	// The child traps TERM and refuses to die; Stop must escalate to KILL
	// within the grace window plus a bounded margin.
	cfg := testConfig(t, "#!/bin/sh\ntrap '' TERM\nwhile true; do sleep 1; done\n")
	cfg.GraceTimeout = 300 * time.Millisecond
	s := New(cfg)

	require.NoError(t, s.Start(context.Background(), writeSpecFile(t), 18080, "localhost"))

	start := time.Now()
	require.NoError(t, s.Stop())
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.False(t, s.Running())
}

func TestInstallDeps_RunsBeforeLaunch(t *testing.T) {
	cfg := testConfig(t, "#!/bin/sh\necho launched\n")
	cfg.InstallDeps = []string{"sh", "-c", "echo installing deps"}
	s := New(cfg)

	require.NoError(t, s.Start(context.Background(), writeSpecFile(t), 18080, "localhost"))
	require.Eventually(t, func() bool { return !s.Running() }, 3*time.Second, 20*time.Millisecond)

	data, err := os.ReadFile(cfg.LogPath)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "installing deps")
	assert.Contains(t, out, "launched")
	assert.Less(t, strings.Index(out, "installing deps"), strings.Index(out, "launched"))
}

func TestInstallDeps_FailureAbortsStart(t *testing.T) {
	cfg := testConfig(t, "#!/bin/sh\necho should-not-run\n")
	cfg.InstallDeps = []string{"sh", "-c", "exit 1"}
	s := New(cfg)

	err := s.Start(context.Background(), writeSpecFile(t), 18080, "localhost")
	assert.Error(t, err)
	assert.False(t, s.Running())
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 8000, "http://localhost:8000"},
		{"", 8000, "http://localhost:8000"},
		{"::", 9000, "http://localhost:9000"},
		{"localhost", 8000, "http://localhost:8000"},
		{"192.168.1.5", 8080, "http://192.168.1.5:8080"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseURL(tt.host, tt.port))
	}
}
