package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Harvest configured projects into JSONL training data",
	Long: `Fetch issues for every configured project, transform them into
training records, and append one JSON line per issue to the project's
output file.

Each project resumes from its persisted offset. Interrupting the run
(Ctrl-C) stops cleanly; everything up to the last completed page stays
persisted and the next run resumes from there.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Pipeline == nil {
			return fmt.Errorf("pipeline not initialized")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Projects: %v\n", Config.Projects)

		report, err := Pipeline.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("harvest run: %w", err)
		}

		if errors.Is(err, context.Canceled) {
			fmt.Println("\nInterrupted. State up to the last completed page is saved; rerun to resume.")
		}

		fmt.Println()
		for _, pr := range report.Projects {
			line := fmt.Sprintf("  %-12s %d written, %d failed", pr.Project, pr.Written, pr.Failed)
			if pr.FetchError != "" {
				line += " (stopped early)"
			}
			fmt.Println(line)
		}
		fmt.Printf("\nTotal: %d issue(s) written, %d failed\n", report.TotalWritten, report.TotalFailed)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
