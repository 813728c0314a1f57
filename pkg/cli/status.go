package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockdeck/pkg/cli/internal/output"
	"github.com/getmockd/mockdeck/pkg/cliconfig"
)

var statusPIDFile string

// statusOutput is the JSON shape of the status command.
type statusOutput struct {
	Running bool         `json:"running"`
	PID     int          `json:"pid,omitempty"`
	Uptime  string       `json:"uptime,omitempty"`
	Version string       `json:"version,omitempty"`
	Console string       `json:"console,omitempty"`
	Engine  *EngineState `json:"engine,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of the running console and its engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusPIDFile, "pid-file", "", "PID file path (default: ~/.mockdeck/mockdeck.pid)")
}

func runStatus() error {
	pidPath := statusPIDFile
	if pidPath == "" {
		pidPath = DefaultPIDPath()
	}

	out := statusOutput{}
	info, err := ReadPIDFile(pidPath)
	if err == nil && info.IsRunning() {
		out.Running = true
		out.PID = info.PID
		out.Uptime = info.FormatUptime()
		out.Version = info.Version
		out.Console = info.ConsoleURL()
	} else if err == nil {
		// Stale PID file.
		_ = RemovePIDFile(pidPath)
	}

	// Ask the live console about the engine. The PID file location wins
	// over the flag default so status works without --console-url.
	if out.Running {
		url := out.Console
		if consoleURL != "" {
			url = cliconfig.ResolveConsoleURL(consoleURL)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if status, err := newConsoleClient(url).Status(ctx); err == nil {
			out.Engine = &status.Engine
		}
	}

	if jsonOutput {
		return output.JSON(out)
	}

	if !out.Running {
		fmt.Println("mockdeck is not running")
		return nil
	}

	w := output.Table()
	fmt.Fprintf(w, "Console:\t%s\n", out.Console)
	fmt.Fprintf(w, "PID:\t%d\n", out.PID)
	fmt.Fprintf(w, "Uptime:\t%s\n", out.Uptime)
	fmt.Fprintf(w, "Version:\t%s\n", out.Version)
	if e := out.Engine; e != nil {
		if e.Running {
			readiness := "ready"
			if !e.Ready {
				readiness = "not ready"
			}
			fmt.Fprintf(w, "Engine:\trunning (PID %d, %s, %s)\n", e.PID, e.BaseURL, readiness)
		} else {
			fmt.Fprintf(w, "Engine:\tstopped\n")
		}
		if e.SpecPath != "" {
			fmt.Fprintf(w, "Spec:\t%s\n", e.SpecPath)
		}
	}
	return w.Flush()
}
