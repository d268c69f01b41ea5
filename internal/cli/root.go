package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "jh",
	Short: "jira-harvest - resumable Jira issue harvester for LLM training data",
	Long: `jira-harvest (jh) fetches issue-tracker data from a paginated REST API,
transforms each issue into a structured record, and emits derived
training examples (summarization, classification, question answering)
as newline-delimited JSON for downstream fine-tuning.

Pagination is resumable: the offset reached for each project is
persisted after every page, so an interrupted run picks up where it
left off.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jh %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
