package jira

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valter-silva-au/jira-harvest/internal/observability"
	"github.com/valter-silva-au/jira-harvest/pkg/models"
)

// StateStore is the resume-state capability the fetcher needs. It is
// implemented by storage.StateManager and injected rather than reached
// for as ambient state.
type StateStore interface {
	Offset(project string) int
	SetOffset(project string, offset int)
	Save() error
}

// Page is one fetched batch of issues handed to the page callback.
type Page struct {
	Issues  []models.RawIssue
	StartAt int
	Total   int
}

// PageFunc processes one fetched page. Returning an error aborts the
// fetch for the project before its offset advances past this page.
type PageFunc func(page Page) error

// FetchError reports that pagination for a project stopped early
// because a page request ultimately failed. State persisted for
// earlier pages is unaffected, so the next run resumes correctly.
type FetchError struct {
	Project string
	StartAt int
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: page at offset %d failed: %v", e.Project, e.StartAt, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher drives the resumable page loop for one project at a time.
type Fetcher struct {
	client    *Client
	state     StateStore
	events    observability.EventLog
	pageSize  int
	pageDelay time.Duration
}

// NewFetcher creates a Fetcher. events may be nil to disable
// observability.
func NewFetcher(client *Client, state StateStore, events observability.EventLog, pageSize int, pageDelay time.Duration) *Fetcher {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Fetcher{
		client:    client,
		state:     state,
		events:    events,
		pageSize:  pageSize,
		pageDelay: pageDelay,
	}
}

// FetchProject streams pages of issues for a project, starting from the
// persisted resume offset. For every non-empty page, fn is invoked
// first; only after it returns nil does the offset advance and get
// persisted, so a crash never skips a page that was not fully
// processed.
//
// The loop ends when a page comes back empty, when the offset reaches
// the reported total, when fn returns an error, or when a page request
// ultimately fails (returned as *FetchError; state persisted so far is
// preserved). The count of issues fetched this run is always returned.
func (f *Fetcher) FetchProject(ctx context.Context, project string, fn PageFunc) (int, error) {
	startAt := f.state.Offset(project)
	fetched := 0

	observability.Record(f.events, observability.LevelInfo, observability.EventProjectStarted,
		fmt.Sprintf("starting %s from offset %d", project, startAt),
		map[string]any{"project": project, "offset": startAt})

	for {
		if err := ctx.Err(); err != nil {
			return fetched, err
		}

		page, err := f.client.SearchPage(ctx, project, startAt, f.pageSize, func(wait time.Duration) {
			observability.Record(f.events, observability.LevelWarn, observability.EventRateLimitHit,
				fmt.Sprintf("rate limited, waiting %s", wait),
				map[string]any{"project": project, "wait": wait.String()})
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return fetched, err
			}
			observability.Record(f.events, observability.LevelError, observability.EventFetchFailed,
				err.Error(), map[string]any{"project": project, "offset": startAt})
			return fetched, &FetchError{Project: project, StartAt: startAt, Err: err}
		}

		if len(page.Issues) == 0 {
			break
		}

		if err := fn(Page{Issues: page.Issues, StartAt: startAt, Total: page.Total}); err != nil {
			return fetched, err
		}

		startAt += len(page.Issues)
		fetched += len(page.Issues)
		f.state.SetOffset(project, startAt)
		if err := f.state.Save(); err != nil {
			// A failed save risks re-processing on the next run but must
			// never crash the current one.
			observability.Record(f.events, observability.LevelWarn, observability.EventStateSaveFailed,
				err.Error(), map[string]any{"project": project, "offset": startAt})
		}

		observability.Record(f.events, observability.LevelInfo, observability.EventPageFetched,
			fmt.Sprintf("%s: %d/%d issues", project, startAt, page.Total),
			map[string]any{"project": project, "offset": startAt, "total": page.Total, "count": len(page.Issues)})

		if startAt >= page.Total {
			break
		}

		if err := sleep(ctx, f.pageDelay); err != nil {
			return fetched, err
		}
	}

	return fetched, nil
}
