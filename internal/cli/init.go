package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/jira-harvest/internal/core"
	"gopkg.in/yaml.v3"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Scaffold a .harvestconfig in the given directory",
	Long: `Write a starter .harvestconfig with the default projects, output
directory, and retry policy into the given directory (default: current
directory). Refuses to overwrite an existing file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		path := filepath.Join(absDir, ".harvestconfig")
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists; delete it first to re-init", path)
		}

		cfg := core.DefaultConfig()
		// Durations are written as strings ("30s") so the scaffold stays
		// human-editable; Viper parses both forms.
		scaffold := map[string]any{
			"projects":   cfg.Projects,
			"output_dir": cfg.OutputDir,
			"jira": map[string]any{
				"base_url":               cfg.Jira.BaseURL,
				"page_size":              cfg.Jira.PageSize,
				"request_timeout":        cfg.Jira.RequestTimeout.String(),
				"page_delay":             cfg.Jira.PageDelay.String(),
				"retry_after_default":    cfg.Jira.RetryAfterDefault.String(),
				"server_error_delay":     cfg.Jira.ServerErrorDelay.String(),
				"max_rate_limit_retries": cfg.Jira.MaxRateLimitRetries,
			},
		}

		data, err := yaml.Marshal(scaffold)
		if err != nil {
			return fmt.Errorf("marshalling default config: %w", err)
		}

		if err := os.MkdirAll(absDir, 0o755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
