package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type stopFlags struct {
	pidFile string
	force   bool
	timeout int
}

var stopFlagVals stopFlags

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running mockdeck console",
	Long: `Stop the running console process. The console stops any engine child
it supervises before exiting.`,
	Example: `  # Graceful stop
  mockdeck stop

  # Force stop
  mockdeck stop --force

  # Stop with a longer shutdown window
  mockdeck stop --timeout 30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStop(&stopFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
	stopCmd.Flags().StringVar(&stopFlagVals.pidFile, "pid-file", "", "PID file path (default: ~/.mockdeck/mockdeck.pid)")
	stopCmd.Flags().BoolVarP(&stopFlagVals.force, "force", "f", false, "Send "+signalKillName()+" instead of "+signalTermName())
	stopCmd.Flags().IntVar(&stopFlagVals.timeout, "timeout", 10, "Seconds to wait for graceful shutdown")
}

func runStop(flags *stopFlags) error {
	pidPath := flags.pidFile
	if pidPath == "" {
		pidPath = DefaultPIDPath()
	}

	info, err := ReadPIDFile(pidPath)
	if err != nil {
		return fmt.Errorf("mockdeck is not running (no PID file found at %s)", pidPath)
	}

	if !info.IsRunning() {
		// Stale PID file, clean it up.
		_ = RemovePIDFile(pidPath)
		return errors.New("mockdeck is not running (stale PID file removed)")
	}

	process, err := os.FindProcess(info.PID)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", info.PID, err)
	}

	sig := signalTerm
	sigName := signalTermName()
	if flags.force {
		sig = signalKill
		sigName = signalKillName()
	}

	fmt.Printf("Stopping mockdeck (PID %d) with %s... ", info.PID, sigName)

	if err := process.Signal(sig); err != nil {
		fmt.Println("failed")
		return fmt.Errorf("failed to send signal: %w", err)
	}

	if flags.force {
		fmt.Println("done")
		time.Sleep(100 * time.Millisecond)
		_ = RemovePIDFile(pidPath)
		return nil
	}

	deadline := time.Now().Add(time.Duration(flags.timeout) * time.Second)
	for time.Now().Before(deadline) {
		if !checkProcessRunning(info.PID) {
			fmt.Println("done")
			_ = RemovePIDFile(pidPath)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Println("timeout")
	fmt.Printf("\nProcess did not stop within %d seconds.\n", flags.timeout)
	fmt.Println("Try: mockdeck stop --force")
	return errors.New("timeout waiting for process to stop")
}
