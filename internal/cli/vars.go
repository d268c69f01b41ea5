package cli

import (
	"github.com/valter-silva-au/jira-harvest/internal/core"
	"github.com/valter-silva-au/jira-harvest/internal/observability"
	"github.com/valter-silva-au/jira-harvest/internal/storage"
	"github.com/valter-silva-au/jira-harvest/pkg/models"
)

// Service instances used by the commands, set during app initialization
// in internal/app.go.
var (
	// BasePath is the workspace root where state, failure log, and
	// events live.
	BasePath string

	// Config is the loaded harvest configuration.
	Config *models.Config

	// Pipeline runs the fetch -> transform -> write loop.
	Pipeline *core.Pipeline

	// StateMgr holds the per-project resume offsets.
	StateMgr storage.StateManager

	// Failures is the transform failure log.
	Failures storage.FailureLog

	// Dataset locates per-project output files.
	Dataset storage.DatasetWriter

	// EventLog and MetricsCalc may be nil when observability is disabled.
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
)
