// Package internal provides the App struct that wires all components of
// the jira-harvest system together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/jira-harvest/internal/cli"
	"github.com/valter-silva-au/jira-harvest/internal/core"
	"github.com/valter-silva-au/jira-harvest/internal/jira"
	"github.com/valter-silva-au/jira-harvest/internal/observability"
	"github.com/valter-silva-au/jira-harvest/internal/storage"
	"github.com/valter-silva-au/jira-harvest/pkg/models"
)

// eventLogFileName is the append-only run event log in the base directory.
const eventLogFileName = ".harvest_events.jsonl"

// App holds all service dependencies for the jira-harvest system.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.Config

	// Storage layer
	StateMgr storage.StateManager
	Failures storage.FailureLog
	Dataset  storage.DatasetWriter

	// Fetch layer
	Client  *jira.Client
	Fetcher *jira.Fetcher

	// Pipeline
	Pipeline *core.Pipeline

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components of the jira-harvest system.
// basePath is the directory holding .harvestconfig, state.json,
// failed.json, and the event log.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, eventLogFileName)
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if the log can't be created.
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}

	// --- Storage layer ---
	app.StateMgr = storage.NewStateManager(basePath)
	_ = app.StateMgr.Load() // Missing or corrupt state starts from empty.
	app.Failures = storage.NewFailureLog(basePath)

	outputDir := cfg.OutputDir
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(basePath, outputDir)
	}
	app.Dataset = storage.NewDatasetWriter(outputDir)

	// --- Fetch layer ---
	app.Client = jira.NewClient(jira.ClientConfig{
		BaseURL:             cfg.Jira.BaseURL,
		Timeout:             cfg.Jira.RequestTimeout,
		RetryAfterDefault:   cfg.Jira.RetryAfterDefault,
		ServerErrorDelay:    cfg.Jira.ServerErrorDelay,
		MaxRateLimitRetries: cfg.Jira.MaxRateLimitRetries,
	})
	app.Fetcher = jira.NewFetcher(app.Client, app.StateMgr, app.EventLog, cfg.Jira.PageSize, cfg.Jira.PageDelay)

	// --- Pipeline ---
	app.Pipeline = core.NewPipeline(cfg.Projects, app.Fetcher, app.Dataset, app.Failures, app.EventLog, os.Stdout)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = app.Config
	cli.Pipeline = app.Pipeline
	cli.StateMgr = app.StateMgr
	cli.Failures = app.Failures
	cli.Dataset = app.Dataset
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// ResolveBasePath determines the workspace root: the JH_HOME environment
// variable when set, otherwise the nearest ancestor directory containing
// a .harvestconfig, otherwise the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("JH_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	// Walk up to find a directory containing .harvestconfig.
	for {
		if _, err := os.Stat(filepath.Join(dir, ".harvestconfig")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	// Fall back to cwd.
	cwd, _ := os.Getwd()
	return cwd
}
