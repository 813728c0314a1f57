// Package supervisor launches and supervises the external mock-engine
// process. One Supervisor owns at most one child process at a time;
// starting always stops the previous child first, so two engines can
// never fight over the same port within a session.
package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/getmockd/mockdeck/pkg/logging"
)

// Sentinel errors for launch preflight failures.
var (
	// ErrDependencyMissing means a required external binary is not installed.
	ErrDependencyMissing = errors.New("required binary not found")

	// ErrScriptNotFound means the configured launch script does not exist.
	ErrScriptNotFound = errors.New("launch script not found")
)

// DefaultGraceTimeout is how long Stop waits after the graceful signal
// before force-killing the child.
const DefaultGraceTimeout = 5 * time.Second

// outputBufferSize bounds the in-memory copy of recent child output.
const outputBufferSize = 16000

// Config describes how to launch the engine process.
type Config struct {
	// Command is the engine executable, resolved via PATH lookup.
	Command string

	// Script is an optional launch script passed to Command before the
	// spec path (e.g. a node script). Empty means Command takes the spec
	// path directly.
	Script string

	// WorkDir is the child's working directory, typically the engine
	// installation root.
	WorkDir string

	// LogPath receives the child's merged stdout and stderr. The file is
	// truncated on every Start.
	LogPath string

	// InstallDeps is an optional command run synchronously before launch
	// (e.g. {"npm", "ci", "--omit=dev"}), with output appended to the log.
	InstallDeps []string

	// GraceTimeout bounds the wait between the graceful signal and the
	// forced kill. Zero means DefaultGraceTimeout.
	GraceTimeout time.Duration
}

// Supervisor owns the lifecycle of a single engine child process.
type Supervisor struct {
	cfg Config
	log *slog.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{} // closed once Wait returns

	out *outputBuffer
}

// New creates a Supervisor. The child is not started until Start is called.
func New(cfg Config) *Supervisor {
	return &Supervisor{
		cfg: cfg,
		log: logging.Nop(),
		out: newOutputBuffer(outputBufferSize),
	}
}

// SetLogger sets the operational logger.
func (s *Supervisor) SetLogger(log *slog.Logger) {
	if log != nil {
		s.log = log
	} else {
		s.log = logging.Nop()
	}
}

// Start launches the engine for the given spec, port, and host. Any
// previously tracked child is fully stopped first. The child is invoked as
//
//	<command> [script] <specPath> <port> <host>
//
// with PORT and HOST also set in its environment and merged output
// streamed to the configured log file.
func (s *Supervisor) Start(ctx context.Context, specPath string, port int, host string) error {
	// At most one child per supervisor: unconditionally stop the old one.
	if err := s.Stop(); err != nil {
		return fmt.Errorf("stop previous engine: %w", err)
	}

	exePath, err := exec.LookPath(s.cfg.Command)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDependencyMissing, s.cfg.Command)
	}

	if s.cfg.Script != "" {
		if _, err := os.Stat(s.cfg.Script); err != nil {
			return fmt.Errorf("%w: %s", ErrScriptNotFound, s.cfg.Script)
		}
	}
	if _, err := os.Stat(specPath); err != nil {
		return fmt.Errorf("spec file %s: %w", specPath, err)
	}

	logFile, err := os.Create(s.cfg.LogPath)
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}

	if err := s.installDeps(ctx, logFile); err != nil {
		_ = logFile.Close()
		return err
	}

	args := make([]string, 0, 4)
	if s.cfg.Script != "" {
		args = append(args, s.cfg.Script)
	}
	args = append(args, specPath, strconv.Itoa(port), host)

	cmd := exec.Command(exePath, args...)
	cmd.Dir = s.cfg.WorkDir
	cmd.Env = append(os.Environ(),
		"PORT="+strconv.Itoa(port),
		"HOST="+host,
	)

	// Merge stdout and stderr into one pipe; a copier goroutine drains it
	// continuously into the log file and the bounded in-memory buffer, so
	// a chatty child never blocks on a full pipe.
	pr, pw, err := os.Pipe()
	if err != nil {
		_ = logFile.Close()
		return fmt.Errorf("create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		_ = pr.Close()
		_ = logFile.Close()
		return fmt.Errorf("start engine: %w", err)
	}
	// The child holds the write end now.
	_ = pw.Close()

	s.out.Reset()
	go func() {
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			_, _ = logFile.Write(line)
			_, _ = logFile.Write([]byte{'\n'})
			s.out.WriteLine(line)
		}
		_ = pr.Close()
		_ = logFile.Close()
	}()

	done := make(chan struct{})
	go func() {
		err := cmd.Wait()
		close(done)
		if err != nil {
			s.log.Debug("engine exited", "error", err)
		}
	}()

	s.mu.Lock()
	s.cmd = cmd
	s.done = done
	s.mu.Unlock()

	s.log.Info("engine started", "pid", cmd.Process.Pid, "spec", specPath, "port", port, "host", host)
	return nil
}

// installDeps runs the optional dependency install command, appending its
// output to the engine log. A missing installer binary is a dependency
// error; a non-zero exit fails the start.
func (s *Supervisor) installDeps(ctx context.Context, logFile *os.File) error {
	if len(s.cfg.InstallDeps) == 0 {
		return nil
	}

	installer, err := exec.LookPath(s.cfg.InstallDeps[0])
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDependencyMissing, s.cfg.InstallDeps[0])
	}

	fmt.Fprintf(logFile, "installing engine dependencies: %v\n", s.cfg.InstallDeps)
	cmd := exec.CommandContext(ctx, installer, s.cfg.InstallDeps[1:]...)
	cmd.Dir = s.cfg.WorkDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("dependency install failed (see engine log): %w", err)
	}
	return nil
}

// Stop terminates the tracked child: graceful signal first, forced kill
// after the grace timeout. Idempotent: stopping when nothing is tracked,
// or when the child already exited, is a no-op.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	cmd, done := s.cmd, s.done
	s.cmd, s.done = nil, nil
	s.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}

	select {
	case <-done:
		// Already exited; nothing to signal.
		return nil
	default:
	}

	s.log.Info("stopping engine", "pid", cmd.Process.Pid)
	_ = cmd.Process.Signal(signalTerm)

	grace := s.cfg.GraceTimeout
	if grace <= 0 {
		grace = DefaultGraceTimeout
	}

	select {
	case <-done:
	case <-time.After(grace):
		s.log.Warn("engine ignored graceful signal, killing", "pid", cmd.Process.Pid)
		_ = cmd.Process.Kill()
		<-done
	}
	return nil
}

// Running reports whether a tracked child is still alive. An unexpected
// exit is observed here lazily, on the next status check.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// PID returns the tracked child's process ID, or 0 when none is tracked.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// LogPath returns the engine log file path.
func (s *Supervisor) LogPath() string {
	return s.cfg.LogPath
}

// RecentOutput returns the bounded in-memory tail of the child's output.
func (s *Supervisor) RecentOutput() string {
	return s.out.String()
}

// BaseURL builds the client-facing base URL for an engine bound to host
// and port. Wildcard binds are reachable via localhost.
func BaseURL(host string, port int) string {
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}
