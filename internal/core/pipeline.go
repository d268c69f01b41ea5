package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/valter-silva-au/jira-harvest/internal/jira"
	"github.com/valter-silva-au/jira-harvest/internal/observability"
	"github.com/valter-silva-au/jira-harvest/internal/storage"
)

// ProjectReport holds the per-project outcome of a run.
type ProjectReport struct {
	Project    string `json:"project"`
	Written    int    `json:"written"`
	Failed     int    `json:"failed"`
	FetchError string `json:"fetch_error,omitempty"`
}

// RunReport summarizes a full harvest run.
type RunReport struct {
	Projects     []ProjectReport `json:"projects"`
	TotalWritten int             `json:"total_written"`
	TotalFailed  int             `json:"total_failed"`
}

// ProjectFetcher is the page-streaming capability the pipeline drives.
// Implemented by jira.Fetcher.
type ProjectFetcher interface {
	FetchProject(ctx context.Context, project string, fn jira.PageFunc) (int, error)
}

// Pipeline orchestrates a harvest run: for each configured project, in
// order, stream pages from the fetcher, transform each issue, and write
// one JSONL record per issue. Each page is fully transformed and
// written before its offset is persisted, so nothing is held in memory
// beyond a single page.
type Pipeline struct {
	projects []string
	fetcher  ProjectFetcher
	dataset  storage.DatasetWriter
	failures storage.FailureLog
	events   observability.EventLog
	// progress receives per-page progress lines; nil discards them.
	progress io.Writer
}

// NewPipeline creates a Pipeline over the given collaborators.
func NewPipeline(projects []string, fetcher ProjectFetcher, dataset storage.DatasetWriter, failures storage.FailureLog, events observability.EventLog, progress io.Writer) *Pipeline {
	return &Pipeline{
		projects: projects,
		fetcher:  fetcher,
		dataset:  dataset,
		failures: failures,
		events:   events,
		progress: progress,
	}
}

// Run processes every configured project sequentially. A fetch failure
// ends that project early but the run continues with the next one; a
// cancelled context stops the run and is returned to the caller. The
// report always reflects whatever was written before any early stop.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{}

	observability.Record(p.events, observability.LevelInfo, observability.EventRunStarted,
		fmt.Sprintf("harvesting %d project(s)", len(p.projects)),
		map[string]any{"projects": p.projects})

	for _, project := range p.projects {
		pr, err := p.runProject(ctx, project)
		report.Projects = append(report.Projects, pr)
		report.TotalWritten += pr.Written
		report.TotalFailed += pr.Failed
		if err != nil {
			return report, err
		}
	}

	observability.Record(p.events, observability.LevelInfo, observability.EventRunCompleted,
		fmt.Sprintf("completed: %d issue(s) written, %d failed", report.TotalWritten, report.TotalFailed),
		map[string]any{"written": report.TotalWritten, "failed": report.TotalFailed})

	return report, nil
}

// runProject streams one project. The returned error is non-nil only
// for context cancellation; fetch failures are recorded in the report.
func (p *Pipeline) runProject(ctx context.Context, project string) (ProjectReport, error) {
	pr := ProjectReport{Project: project}

	writer, err := p.dataset.Open(project)
	if err != nil {
		// Without an output destination nothing can be harvested for
		// this project; record and move on.
		pr.FetchError = err.Error()
		observability.Record(p.events, observability.LevelError, observability.EventFetchFailed,
			err.Error(), map[string]any{"project": project})
		return pr, nil
	}
	defer func() { _ = writer.Close() }()

	_, err = p.fetcher.FetchProject(ctx, project, func(page jira.Page) error {
		for _, raw := range page.Issues {
			record, terr := Transform(raw)
			if terr != nil {
				p.recordFailure(project, issueKey(raw.Key), terr)
				pr.Failed++
				continue
			}
			if werr := writer.Write(record); werr != nil {
				// Output write errors count against the issue being
				// written, never the project loop.
				p.recordFailure(project, issueKey(record.IssueKey), werr)
				pr.Failed++
				continue
			}
			pr.Written++
		}
		p.printf("%s: %d/%d issues\n", project, page.StartAt+len(page.Issues), page.Total)
		return nil
	})

	if err != nil {
		var fetchErr *jira.FetchError
		if errors.As(err, &fetchErr) {
			// Remaining pages are skipped this run; persisted state lets
			// the next run resume from the right offset.
			pr.FetchError = fetchErr.Error()
			p.printf("%s: fetch stopped early: %v\n", project, fetchErr.Err)
			err = nil
		}
	}

	observability.Record(p.events, observability.LevelInfo, observability.EventProjectCompleted,
		fmt.Sprintf("%s: %d written, %d failed", project, pr.Written, pr.Failed),
		map[string]any{"project": project, "written": pr.Written, "failed": pr.Failed})

	return pr, err
}

// recordFailure appends to the failure log and emits an event. Failure
// log write errors are surfaced as warnings, never raised.
func (p *Pipeline) recordFailure(project, key string, cause error) {
	observability.Record(p.events, observability.LevelError, observability.EventIssueFailed,
		cause.Error(), map[string]any{"project": project, "issue": key})

	if err := p.failures.Append(key, cause.Error()); err != nil {
		observability.Record(p.events, observability.LevelWarn, observability.EventStateSaveFailed,
			fmt.Sprintf("failure log write failed: %v", err), map[string]any{"project": project, "issue": key})
	}
}

func (p *Pipeline) printf(format string, args ...any) {
	if p.progress != nil {
		fmt.Fprintf(p.progress, format, args...)
	}
}

// issueKey normalizes a possibly-empty key for failure reporting.
func issueKey(key string) string {
	if key == "" {
		return "Unknown"
	}
	return key
}
