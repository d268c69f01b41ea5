package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/jira-harvest/pkg/models"
)

// validProjectPattern matches uppercase alphanumeric project keys
// between 1 and 10 characters, starting with a letter.
var validProjectPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,9}$`)

// ConfigurationManager defines the interface for loading and validating
// configuration from the .harvestconfig file.
type ConfigurationManager interface {
	LoadConfig() (*models.Config, error)
	ValidateConfig(cfg *models.Config) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	// basePath is the directory where .harvestconfig resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// configuration relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns a Config populated with sensible defaults:
// a single Apache project, a relative output directory, and the retry
// policy the fetch loop was tuned for.
func DefaultConfig() *models.Config {
	return &models.Config{
		Projects:  []string{"SPARK"},
		OutputDir: "output",
		Jira: models.JiraConfig{
			BaseURL:             "https://issues.apache.org/jira",
			PageSize:            50,
			RequestTimeout:      30 * time.Second,
			PageDelay:           100 * time.Millisecond,
			RetryAfterDefault:   5 * time.Second,
			ServerErrorDelay:    time.Second,
			MaxRateLimitRetries: 5,
		},
	}
}

// LoadConfig reads the .harvestconfig file from the base path using
// Viper. If the file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadConfig() (*models.Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(".harvestconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("projects", cfg.Projects)
	v.SetDefault("output_dir", cfg.OutputDir)
	v.SetDefault("jira.base_url", cfg.Jira.BaseURL)
	v.SetDefault("jira.page_size", cfg.Jira.PageSize)
	v.SetDefault("jira.request_timeout", cfg.Jira.RequestTimeout)
	v.SetDefault("jira.page_delay", cfg.Jira.PageDelay)
	v.SetDefault("jira.retry_after_default", cfg.Jira.RetryAfterDefault)
	v.SetDefault("jira.server_error_delay", cfg.Jira.ServerErrorDelay)
	v.SetDefault("jira.max_rate_limit_retries", cfg.Jira.MaxRateLimitRetries)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file found - return defaults.
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .harvestconfig: %w", err)
	}

	cfg.Projects = v.GetStringSlice("projects")
	cfg.OutputDir = v.GetString("output_dir")
	cfg.Jira.BaseURL = v.GetString("jira.base_url")
	cfg.Jira.PageSize = v.GetInt("jira.page_size")
	cfg.Jira.RequestTimeout = v.GetDuration("jira.request_timeout")
	cfg.Jira.PageDelay = v.GetDuration("jira.page_delay")
	cfg.Jira.RetryAfterDefault = v.GetDuration("jira.retry_after_default")
	cfg.Jira.ServerErrorDelay = v.GetDuration("jira.server_error_delay")
	cfg.Jira.MaxRateLimitRetries = v.GetInt("jira.max_rate_limit_retries")

	return cfg, nil
}

// ValidateConfig checks the provided configuration for invalid values
// and returns a clear error message identifying each problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if len(cfg.Projects) == 0 {
		errs = append(errs, "projects must list at least one project key")
	}
	for _, p := range cfg.Projects {
		if !validProjectPattern.MatchString(p) {
			errs = append(errs, fmt.Sprintf(
				"project key %q is invalid, must match [A-Z][A-Z0-9]{0,9}", p))
		}
	}

	if cfg.OutputDir == "" {
		errs = append(errs, "output_dir must not be empty")
	}

	if cfg.Jira.BaseURL == "" {
		errs = append(errs, "jira.base_url must not be empty")
	}

	if cfg.Jira.PageSize < 1 || cfg.Jira.PageSize > 100 {
		errs = append(errs, fmt.Sprintf(
			"jira.page_size %d is invalid, must be between 1 and 100", cfg.Jira.PageSize))
	}

	if cfg.Jira.RequestTimeout <= 0 {
		errs = append(errs, "jira.request_timeout must be positive")
	}

	if cfg.Jira.PageDelay < 0 {
		errs = append(errs, "jira.page_delay must not be negative")
	}

	if cfg.Jira.MaxRateLimitRetries < 0 {
		errs = append(errs, fmt.Sprintf(
			"jira.max_rate_limit_retries must be non-negative, got %d", cfg.Jira.MaxRateLimitRetries))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
