package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display resume offsets and output files per project",
	Long: `Display the persisted resume offset for every configured project
together with its output file and the number of records already written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if StateMgr == nil || Dataset == nil {
			return fmt.Errorf("stores not initialized")
		}

		fmt.Printf("  %-12s %-8s %-8s %s\n", "PROJECT", "OFFSET", "RECORDS", "OUTPUT")
		fmt.Printf("  %-12s %-8s %-8s %s\n", "-------", "------", "-------", "------")
		for _, project := range Config.Projects {
			path := Dataset.Path(project)
			records, ok := countLines(path)
			recordsCol := "-"
			if ok {
				recordsCol = fmt.Sprintf("%d", records)
			}
			fmt.Printf("  %-12s %-8d %-8s %s\n", project, StateMgr.Offset(project), recordsCol, path)
		}

		return nil
	},
}

// countLines counts the JSONL records in an output file. Returns false
// when the file does not exist yet.
func countLines(path string) (int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer func() { _ = f.Close() }()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	return count, true
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
