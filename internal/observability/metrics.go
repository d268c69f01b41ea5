package observability

import (
	"fmt"
	"time"
)

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	RunsStarted      int            `json:"runs_started"`
	RunsCompleted    int            `json:"runs_completed"`
	PagesFetched     int            `json:"pages_fetched"`
	IssuesFetched    int            `json:"issues_fetched"`
	IssuesFailed     int            `json:"issues_failed"`
	FetchFailures    int            `json:"fetch_failures"`
	RateLimitHits    int            `json:"ratelimit_hits"`
	StateSaveFailed  int            `json:"state_save_failures"`
	IssuesByProject  map[string]int `json:"issues_by_project"`
	FailedByProject  map[string]int `json:"failed_by_project"`
	EventCount       int            `json:"event_count"`
	OldestEvent      *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent      *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		IssuesByProject: make(map[string]int),
		FailedByProject: make(map[string]int),
	}

	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		project, _ := event.Data["project"].(string)

		switch event.Type {
		case EventRunStarted:
			m.RunsStarted++
		case EventRunCompleted:
			m.RunsCompleted++
		case EventPageFetched:
			m.PagesFetched++
			if count, ok := eventInt(event, "count"); ok {
				m.IssuesFetched += count
				if project != "" {
					m.IssuesByProject[project] += count
				}
			}
		case EventIssueFailed:
			m.IssuesFailed++
			if project != "" {
				m.FailedByProject[project]++
			}
		case EventFetchFailed:
			m.FetchFailures++
		case EventRateLimitHit:
			m.RateLimitHits++
		case EventStateSaveFailed:
			m.StateSaveFailed++
		}
	}

	return m, nil
}

// eventInt reads an integer out of an event's data bag. JSON decoding
// turns numbers into float64, so both forms are accepted.
func eventInt(event Event, key string) (int, bool) {
	switch v := event.Data[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}
