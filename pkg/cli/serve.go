package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockdeck/internal/ports"
	"github.com/getmockd/mockdeck/pkg/cliconfig"
	"github.com/getmockd/mockdeck/pkg/config"
	"github.com/getmockd/mockdeck/pkg/console"
	"github.com/getmockd/mockdeck/pkg/history"
	"github.com/getmockd/mockdeck/pkg/logging"
)

// childEnv marks the re-executed background process so it does not
// daemonize again.
const childEnv = "MOCKDECK_CHILD"

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

type serveFlags struct {
	port          int
	host          string
	configFile    string
	engineCmd     string
	engineScript  string
	engineWorkdir string
	installDeps   string
	dataDir       string
	graceTimeout  time.Duration
	pollInterval  time.Duration
	pollTimeout   time.Duration
	logLevel      string
	logFormat     string
	detach        bool
	pidFile       string
}

// serveCmd runs the console server in the foreground (or detached).
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mockdeck console",
	Long: `Start the console server. The console serves the upload/start/stop API
and the web page; the mock engine itself runs as a child process once a
spec is uploaded and started.`,
	Example: `  # Start with defaults (console on :4380)
  mockdeck serve

  # Point at a specific engine script
  mockdeck serve --engine-cmd node --engine-script /opt/engine/server.js --engine-workdir /opt/engine

  # Install engine dependencies before each launch
  mockdeck serve --install-deps "npm ci --omit=dev"

  # Run in the background
  mockdeck serve -d`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServeWithFlags(cmd, &serveFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := &serveFlagVals
	serveCmd.Flags().IntVarP(&f.port, "port", "p", config.DefaultConsolePort, "Console API port")
	serveCmd.Flags().StringVar(&f.host, "host", config.DefaultConsoleHost, "Console bind host")
	serveCmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Config file path (default: ~/.mockdeck/config.yaml)")
	serveCmd.Flags().StringVar(&f.engineCmd, "engine-cmd", "", "Engine executable (resolved via PATH)")
	serveCmd.Flags().StringVar(&f.engineScript, "engine-script", "", "Engine launch script passed before the spec path")
	serveCmd.Flags().StringVar(&f.engineWorkdir, "engine-workdir", "", "Working directory for the engine process")
	serveCmd.Flags().StringVar(&f.installDeps, "install-deps", "", "Command run before each engine launch (e.g. \"npm ci --omit=dev\")")
	serveCmd.Flags().StringVar(&f.dataDir, "data-dir", "", "Data directory for logs and history (default: ~/.mockdeck)")
	serveCmd.Flags().DurationVar(&f.graceTimeout, "grace-timeout", 0, "Wait before force-killing the engine on stop")
	serveCmd.Flags().DurationVar(&f.pollInterval, "poll-interval", 0, "Readiness poll interval after engine launch")
	serveCmd.Flags().DurationVar(&f.pollTimeout, "poll-timeout", 0, "Readiness poll window after engine launch")
	serveCmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
	serveCmd.Flags().BoolVarP(&f.detach, "detach", "d", false, "Run in the background")
	serveCmd.Flags().StringVar(&f.pidFile, "pid-file", "", "PID file path (default: ~/.mockdeck/mockdeck.pid)")
}

func runServeWithFlags(cmd *cobra.Command, flags *serveFlags) error {
	// Detach mode: re-exec as a background child and exit.
	if flags.detach && os.Getenv(childEnv) == "" {
		return daemonize(flags)
	}

	cfg, err := buildConfig(cmd, flags)
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
	})

	if err := ports.Check(cfg.Port); err != nil {
		suggestion := ""
		if free, ferr := ports.Free(); ferr == nil {
			suggestion = fmt.Sprintf(" (try --port %d)", free)
		}
		return fmt.Errorf("console port %d is already in use%s", cfg.Port, suggestion)
	}

	var store *history.Store
	if store, err = history.Open(cfg.DataDir); err != nil {
		log.Warn("run history unavailable", "error", err)
		store = nil
	} else {
		defer func() { _ = store.Close() }()
	}

	opts := []console.Option{console.WithVersion(Version)}
	if store != nil {
		opts = append(opts, console.WithHistory(store))
	}

	c := console.New(console.Config{
		Port: cfg.Port,
		Host: cfg.Host,
		Engine: console.EngineConfig{
			Command:      cfg.Engine.Command,
			Script:       cfg.Engine.Script,
			WorkDir:      cfg.Engine.WorkDir,
			InstallDeps:  cfg.Engine.InstallDeps,
			GraceTimeout: cfg.Engine.GraceTimeout.Std(),
		},
		DataDir:       cfg.DataDir,
		ProbeInterval: cfg.Probe.Interval.Std(),
		ProbeWindow:   cfg.Probe.Window.Std(),
	}, opts...)
	c.SetLogger(log)

	if err := c.Start(); err != nil {
		return fmt.Errorf("failed to start console: %w", err)
	}

	pidPath := flags.pidFile
	if pidPath == "" {
		pidPath = DefaultPIDPath()
	}
	err = WritePIDFile(pidPath, &PIDFile{
		PID:       os.Getpid(),
		StartTime: time.Now(),
		Version:   Version,
		Console:   ConsoleInfo{Port: cfg.Port, Host: cfg.Host},
	})
	if err != nil {
		log.Warn("failed to write PID file", "path", pidPath, "error", err)
	}

	log.Info("mockdeck running", "console", fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port), "pid", os.Getpid())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", "signal", sig.String())

	if err := c.Stop(); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	_ = RemovePIDFile(pidPath)
	return nil
}

// buildConfig loads the layered configuration and applies any flags the
// user set explicitly on top.
func buildConfig(cmd *cobra.Command, flags *serveFlags) (*config.Config, error) {
	cfg, err := config.Load(cliconfig.ResolveConfigPath(flags.configFile))
	if err != nil {
		return nil, err
	}

	set := cmd.Flags().Changed
	if set("port") {
		cfg.Port = flags.port
	}
	if set("host") {
		cfg.Host = flags.host
	}
	if set("engine-cmd") {
		cfg.Engine.Command = flags.engineCmd
	}
	if set("engine-script") {
		cfg.Engine.Script = flags.engineScript
	}
	if set("engine-workdir") {
		cfg.Engine.WorkDir = flags.engineWorkdir
	}
	if set("install-deps") {
		cfg.Engine.InstallDeps = strings.Fields(flags.installDeps)
	}
	if set("data-dir") {
		cfg.DataDir = flags.dataDir
	}
	if set("grace-timeout") {
		cfg.Engine.GraceTimeout = config.Duration(flags.graceTimeout)
	}
	if set("poll-interval") {
		cfg.Probe.Interval = config.Duration(flags.pollInterval)
	}
	if set("poll-timeout") {
		cfg.Probe.Window = config.Duration(flags.pollTimeout)
	}
	if set("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if set("log-format") {
		cfg.Log.Format = flags.logFormat
	}
	return cfg, nil
}

// daemonize re-executes the current process as a background daemon.
func daemonize(flags *serveFlags) error {
	cmd := exec.Command(os.Args[0], os.Args[1:]...)
	cmd.Env = append(os.Environ(), childEnv+"=1")

	// Detach from terminal
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Wait briefly for the child to start and write its PID file.
	time.Sleep(500 * time.Millisecond)

	pidPath := flags.pidFile
	if pidPath == "" {
		pidPath = DefaultPIDPath()
	}
	pidInfo, err := ReadPIDFile(pidPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: daemon may have failed to start (could not read PID file: %v)\n", err)
		return nil
	}
	if !pidInfo.IsRunning() {
		return errors.New("daemon process exited immediately")
	}

	fmt.Printf("mockdeck started in background (PID %d)\n", pidInfo.PID)
	fmt.Printf("Console: %s\n", pidInfo.ConsoleURL())
	return nil
}
