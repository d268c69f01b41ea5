package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/jira-harvest/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio",
	Long: `Run a Model Context Protocol server over stdio, exposing harvest
progress, failures, and metrics as tools for AI coding assistants.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if StateMgr == nil || Failures == nil {
			return fmt.Errorf("stores not initialized")
		}

		server := mcp.NewServer(StateMgr, Failures, MetricsCalc, appVersion)
		return server.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
