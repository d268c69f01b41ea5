package models

import "time"

// JiraConfig holds settings for the tracker API client and fetch loop.
type JiraConfig struct {
	BaseURL             string        `yaml:"base_url" mapstructure:"base_url"`
	PageSize            int           `yaml:"page_size" mapstructure:"page_size"`
	RequestTimeout      time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	PageDelay           time.Duration `yaml:"page_delay" mapstructure:"page_delay"`
	RetryAfterDefault   time.Duration `yaml:"retry_after_default" mapstructure:"retry_after_default"`
	ServerErrorDelay    time.Duration `yaml:"server_error_delay" mapstructure:"server_error_delay"`
	MaxRateLimitRetries int           `yaml:"max_rate_limit_retries" mapstructure:"max_rate_limit_retries"`
}

// Config holds system-wide settings read from .harvestconfig via Viper.
type Config struct {
	Projects  []string   `yaml:"projects" mapstructure:"projects"`
	OutputDir string     `yaml:"output_dir" mapstructure:"output_dir"`
	Jira      JiraConfig `yaml:"jira" mapstructure:"jira"`
}
