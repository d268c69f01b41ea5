package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var failuresJSON bool

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List issues that failed to transform",
	Long: `List every issue recorded in the failure log with its error message.

The failure log is append-only from the pipeline's point of view; clear
it manually once the listed issues have been retried or triaged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Failures == nil {
			return fmt.Errorf("failure log not initialized")
		}

		failures, err := Failures.List()
		if err != nil {
			return fmt.Errorf("reading failure log: %w", err)
		}

		if failuresJSON {
			data, err := json.MarshalIndent(failures, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting failures as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(failures) == 0 {
			fmt.Println("No failures recorded.")
			return nil
		}

		for _, f := range failures {
			fmt.Printf("  %-16s %s\n", f.Issue, f.Error)
		}
		fmt.Printf("\nTotal: %d failure(s)\n", len(failures))

		return nil
	},
}

func init() {
	failuresCmd.Flags().BoolVar(&failuresJSON, "json", false, "Output failures as JSON")
	rootCmd.AddCommand(failuresCmd)
}
