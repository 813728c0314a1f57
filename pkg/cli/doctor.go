package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockdeck/internal/ports"
	"github.com/getmockd/mockdeck/pkg/cli/internal/output"
	"github.com/getmockd/mockdeck/pkg/cliconfig"
	"github.com/getmockd/mockdeck/pkg/config"
)

var doctorConfigFile string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common setup issues",
	Long: `Check that the engine executable and launch script are in place, that
the configured ports are usable, and that the data directory exists.`,
	Example: `  # Run all checks with defaults
  mockdeck doctor

  # Validate a specific config file
  mockdeck doctor --config ~/.mockdeck/config.yaml`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().StringVarP(&doctorConfigFile, "config", "c", "", "Config file path to validate")
}

// doctorCheck holds the result of a single doctor check.
type doctorCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "fail", "info"
	Detail string `json:"detail"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	allPassed := true
	var checks []doctorCheck

	add := func(name, status, detail string) {
		checks = append(checks, doctorCheck{Name: name, Status: status, Detail: detail})
		if status == "fail" {
			allPassed = false
		}
	}

	cfg, err := config.Load(cliconfig.ResolveConfigPath(doctorConfigFile))
	if err != nil {
		add("config", "fail", err.Error())
		cfg = config.Default()
	} else {
		add("config", "ok", "loaded")
	}

	// Engine executable on PATH.
	if path, err := exec.LookPath(cfg.Engine.Command); err == nil {
		add("engine_command", "ok", path)
	} else {
		add("engine_command", "fail", fmt.Sprintf("%q not found on PATH", cfg.Engine.Command))
	}

	// Launch script, when one is configured.
	if cfg.Engine.Script != "" {
		if _, err := os.Stat(cfg.Engine.Script); err == nil {
			add("engine_script", "ok", cfg.Engine.Script)
		} else {
			add("engine_script", "fail", fmt.Sprintf("%s not found", cfg.Engine.Script))
		}
	} else {
		add("engine_script", "info", "not configured")
	}

	// Console port: either the console is already answering there, or
	// the port must be free for a future serve.
	if consoleResponding(cfg.Port) {
		add("console", "ok", fmt.Sprintf("responding on :%d", cfg.Port))
	} else if ports.IsAvailable(cfg.Port) {
		add("console", "info", fmt.Sprintf("not running, port %d available", cfg.Port))
	} else {
		add("console", "fail", fmt.Sprintf("port %d in use by another process", cfg.Port))
	}

	// PID file.
	if info, err := ReadPIDFile(DefaultPIDPath()); err == nil {
		if info.IsRunning() {
			add("pid_file", "ok", fmt.Sprintf("PID %d, running", info.PID))
		} else {
			add("pid_file", "info", fmt.Sprintf("PID %d, stale", info.PID))
		}
	} else {
		add("pid_file", "info", "not found")
	}

	// Data directory.
	if info, err := os.Stat(cfg.DataDir); err == nil && info.IsDir() {
		add("data_directory", "ok", cfg.DataDir)
	} else {
		add("data_directory", "info", fmt.Sprintf("not found (will be created at %s)", cfg.DataDir))
	}

	if jsonOutput {
		return output.JSON(map[string]any{"checks": checks, "allPassed": allPassed})
	}

	fmt.Println("mockdeck doctor")
	fmt.Println("===============")
	fmt.Println()
	for _, c := range checks {
		switch c.Status {
		case "ok":
			fmt.Printf("  ✓ %s: %s\n", c.Name, c.Detail)
		case "fail":
			fmt.Printf("  ✗ %s: %s\n", c.Name, c.Detail)
		default:
			fmt.Printf("  • %s: %s\n", c.Name, c.Detail)
		}
	}
	fmt.Println()
	if allPassed {
		fmt.Println("All checks passed!")
	} else {
		fmt.Println("Some checks failed. See above for details.")
	}
	return nil
}

// consoleResponding checks whether a console answers on the given port.
func consoleResponding(port int) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := newConsoleClient(fmt.Sprintf("http://localhost:%d", port)).Health(ctx)
	return err == nil
}
