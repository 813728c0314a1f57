// Package console provides the HTTP control API for operating an
// external OpenAPI mock engine: spec upload, process start/stop,
// readiness, and log access.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/getmockd/mockdeck/pkg/history"
	"github.com/getmockd/mockdeck/pkg/logging"
	"github.com/getmockd/mockdeck/pkg/probe"
	"github.com/getmockd/mockdeck/pkg/supervisor"
)

// SessionHeader carries the caller's session ID. Requests without it use
// the shared default session.
const SessionHeader = "X-Mockdeck-Session"

// EngineConfig describes how sessions launch their engine child.
type EngineConfig struct {
	// Command is the engine executable, resolved via PATH.
	Command string

	// Script is an optional launch script passed before the spec path.
	Script string

	// WorkDir is the child's working directory.
	WorkDir string

	// InstallDeps is an optional install command run before every launch.
	InstallDeps []string

	// GraceTimeout bounds graceful shutdown of the child.
	GraceTimeout time.Duration
}

// Config holds the console server configuration.
type Config struct {
	Port   int
	Host   string
	Engine EngineConfig

	// DataDir holds per-session engine logs and the history database.
	DataDir string

	// ProbeInterval and ProbeWindow tune the readiness poll after launch.
	ProbeInterval time.Duration
	ProbeWindow   time.Duration
}

// Console is the HTTP control API server. One Console owns a registry of
// sessions, each supervising at most one engine child.
type Console struct {
	cfg        Config
	httpServer *http.Server
	handler    http.Handler
	sessions   *sessionRegistry
	prober     *probe.Prober
	history    *history.Store
	version    string
	startTime  time.Time
	log        *slog.Logger
}

// Option configures a Console.
type Option func(*Console)

// WithVersion sets the version string reported by /status.
func WithVersion(v string) Option {
	return func(c *Console) {
		c.version = v
	}
}

// WithHistory attaches a run-history store. Without one the console still
// works; /history reports unavailable.
func WithHistory(h *history.Store) Option {
	return func(c *Console) {
		c.history = h
	}
}

// New creates a Console. The server does not listen until Start is called.
func New(cfg Config, opts ...Option) *Console {
	c := &Console{
		cfg: cfg,
		log: logging.Nop(),
	}

	prober := probe.New()
	if cfg.ProbeInterval > 0 {
		prober.Interval = cfg.ProbeInterval
	}
	if cfg.ProbeWindow > 0 {
		prober.Window = cfg.ProbeWindow
	}
	c.prober = prober

	logDir := filepath.Join(cfg.DataDir, "logs")
	c.sessions = newSessionRegistry(func(id string) *supervisor.Supervisor {
		return supervisor.New(supervisor.Config{
			Command:      cfg.Engine.Command,
			Script:       cfg.Engine.Script,
			WorkDir:      cfg.Engine.WorkDir,
			LogPath:      filepath.Join(logDir, id+".log"),
			InstallDeps:  cfg.Engine.InstallDeps,
			GraceTimeout: cfg.Engine.GraceTimeout,
		})
	})

	for _, opt := range opts {
		opt(c)
	}

	mux := http.NewServeMux()
	c.registerRoutes(mux)
	c.handler = c.withMiddleware(mux)

	c.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      c.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return c
}

// SetLogger sets the operational logger.
func (c *Console) SetLogger(log *slog.Logger) {
	if log != nil {
		c.log = log
	} else {
		c.log = logging.Nop()
	}
}

// Handler returns the fully wrapped HTTP handler. Exposed for tests and
// for embedding the console under another mux.
func (c *Console) Handler() http.Handler {
	return c.handler
}

// Start begins serving the console API. It does not block.
func (c *Console) Start() error {
	c.startTime = time.Now()

	if err := os.MkdirAll(filepath.Join(c.cfg.DataDir, "logs"), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	c.log.Info("starting console", "addr", c.httpServer.Addr)
	go func() {
		if err := c.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.log.Error("console server error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the console down: every session's engine child is stopped
// first, then the HTTP server drains gracefully.
func (c *Console) Stop() error {
	for _, sess := range c.sessions.All() {
		outcome := c.stopOutcome(sess)
		if err := sess.sup.Stop(); err != nil {
			c.log.Warn("error stopping engine", "session", sess.ID, "error", err)
		}
		c.recordStop(sess, outcome)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.httpServer.Shutdown(ctx)
}

// Uptime returns the console uptime in seconds.
func (c *Console) Uptime() int {
	return int(time.Since(c.startTime).Seconds())
}

// stopOutcome classifies how the session's current run is ending. Must
// be called before the child is stopped: a child that is already gone
// exited on its own, one that never passed the health gate is recorded
// as such, everything else is an explicit stop.
func (c *Console) stopOutcome(sess *Session) string {
	if !sess.sup.Running() {
		return history.OutcomeExited
	}
	if _, _, ready := sess.run(); !ready {
		return history.OutcomeNotReady
	}
	return history.OutcomeStopped
}

// recordStop closes out the session's current run in history, if any.
func (c *Console) recordStop(sess *Session, outcome string) {
	runID := sess.takeRunID()
	if runID == "" || c.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.history.RecordStop(ctx, runID, outcome, time.Now()); err != nil {
		c.log.Warn("failed to record run stop", "run", runID, "error", err)
	}
}
