// Package mcp provides an MCP (Model Context Protocol) server that
// exposes harvest state as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/jira-harvest/internal/observability"
	"github.com/valter-silva-au/jira-harvest/internal/storage"
)

// Server wraps harvest stores and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	state       storage.StateManager
	failures    storage.FailureLog
	metricsCalc observability.MetricsCalculator
}

// NewServer creates a new MCP server over the given stores. metricsCalc
// may be nil if observability is disabled.
func NewServer(state storage.StateManager, failures storage.FailureLog, metricsCalc observability.MetricsCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		state:       state,
		failures:    failures,
		metricsCalc: metricsCalc,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "jira-harvest", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type getProgressInput struct{}

type projectProgress struct {
	Project string `json:"project"`
	Offset  int    `json:"offset"`
}

type getProgressOutput struct {
	Projects []projectProgress `json:"projects"`
}

type getFailuresInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of failures to return, newest last (0 = all)"`
}

type failureOutput struct {
	Issue string `json:"issue"`
	Error string `json:"error"`
}

type getFailuresOutput struct {
	Failures []failureOutput `json:"failures"`
	Count    int             `json:"count"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	RunsStarted     int            `json:"runs_started"`
	RunsCompleted   int            `json:"runs_completed"`
	PagesFetched    int            `json:"pages_fetched"`
	IssuesFetched   int            `json:"issues_fetched"`
	IssuesFailed    int            `json:"issues_failed"`
	FetchFailures   int            `json:"fetch_failures"`
	RateLimitHits   int            `json:"ratelimit_hits"`
	IssuesByProject map[string]int `json:"issues_by_project"`
	EventCount      int            `json:"event_count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_progress",
		Description: "Get the resume offset for every project seen so far. The offset is the count of issues already harvested.",
	}, s.handleGetProgress)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_failures",
		Description: "List issues that failed to transform, with their error messages.",
	}, s.handleGetFailures)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log: pages fetched, issues written and failed, rate-limit hits.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleGetProgress(_ context.Context, _ *gomcp.CallToolRequest, _ getProgressInput) (*gomcp.CallToolResult, getProgressOutput, error) {
	offsets := s.state.Offsets()

	out := getProgressOutput{Projects: make([]projectProgress, 0, len(offsets))}
	for project, offset := range offsets {
		out.Projects = append(out.Projects, projectProgress{Project: project, Offset: offset})
	}
	sort.Slice(out.Projects, func(i, j int) bool {
		return out.Projects[i].Project < out.Projects[j].Project
	})

	return nil, out, nil
}

func (s *Server) handleGetFailures(_ context.Context, _ *gomcp.CallToolRequest, input getFailuresInput) (*gomcp.CallToolResult, getFailuresOutput, error) {
	failures, err := s.failures.List()
	if err != nil {
		return errorResult(fmt.Sprintf("listing failures: %s", err)), getFailuresOutput{}, nil
	}

	if input.Limit > 0 && len(failures) > input.Limit {
		failures = failures[len(failures)-input.Limit:]
	}

	out := getFailuresOutput{
		Failures: make([]failureOutput, len(failures)),
		Count:    len(failures),
	}
	for i, f := range failures {
		out.Failures[i] = failureOutput{Issue: f.Issue, Error: f.Error}
	}

	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	// The SDK validates the output against its schema even on error
	// results; a nil map serializes as null, which the schema rejects.
	emptyOut := metricsOutput{IssuesByProject: map[string]int{}}

	if s.metricsCalc == nil {
		return errorResult("metrics unavailable: observability is disabled"), emptyOut, nil
	}

	since, err := parseSince(input.Since)
	if err != nil {
		return errorResult(err.Error()), emptyOut, nil
	}

	m, err := s.metricsCalc.Calculate(since)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyOut, nil
	}

	out := metricsOutput{
		RunsStarted:     m.RunsStarted,
		RunsCompleted:   m.RunsCompleted,
		PagesFetched:    m.PagesFetched,
		IssuesFetched:   m.IssuesFetched,
		IssuesFailed:    m.IssuesFailed,
		FetchFailures:   m.FetchFailures,
		RateLimitHits:   m.RateLimitHits,
		IssuesByProject: m.IssuesByProject,
		EventCount:      m.EventCount,
	}

	return nil, out, nil
}

// parseSince parses a window like "7d", "30d", or "24h" into a time in
// the past. Empty defaults to 7 days.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}
	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}
	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

// errorResult wraps a message as a failed tool call result.
func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		IsError: true,
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
	}
}
