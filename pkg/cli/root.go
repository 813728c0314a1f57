package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands
	consoleURL string
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mockdeck",
	Short: "mockdeck runs and supervises an OpenAPI mock server",
	Long: `mockdeck is a control console for an external OpenAPI mock engine.
Upload an OpenAPI document, and mockdeck launches the engine process,
waits for it to become healthy, and gives you its logs and endpoints.

Configuration can be provided via flags, environment variables, or a
configuration file at ~/.mockdeck/config.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&consoleURL, "console-url", "", "Console API base URL (default: http://localhost:4380)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}
