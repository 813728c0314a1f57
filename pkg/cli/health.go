package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockdeck/pkg/cli/internal/output"
	"github.com/getmockd/mockdeck/pkg/cliconfig"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the console API is reachable and healthy",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHealth()
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth() error {
	url := cliconfig.ResolveConsoleURL(consoleURL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := newConsoleClient(url).Health(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(health)
	}
	fmt.Printf("Console at %s is %s (up %ds)\n", url, health.Status, health.Uptime)
	return nil
}
