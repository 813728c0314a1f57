package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockdeck/pkg/cli/internal/output"
	"github.com/getmockd/mockdeck/pkg/cliconfig"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent engine runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to list")
}

func runHistory() error {
	url := cliconfig.ResolveConsoleURL(consoleURL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runs, err := newConsoleClient(url).History(ctx, historyLimit)
	if err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet")
		return nil
	}

	w := output.Table()
	fmt.Fprintln(w, "STARTED\tPORT\tHOST\tOUTCOME\tSPEC")
	for _, run := range runs {
		outcome := run.Outcome
		if outcome == "" {
			outcome = "running"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Port, run.Host, outcome, run.SpecPath)
	}
	return w.Flush()
}
