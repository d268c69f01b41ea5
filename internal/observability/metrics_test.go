package observability

import (
	"path/filepath"
	"testing"
	"time"
)

func seedEventLog(t *testing.T) EventLog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestMetricsCalculator_Aggregates(t *testing.T) {
	log := seedEventLog(t)

	Record(log, LevelInfo, EventRunStarted, "run started", nil)
	Record(log, LevelInfo, EventPageFetched, "SPARK: 50/120 issues", map[string]any{"project": "SPARK", "count": 50})
	Record(log, LevelInfo, EventPageFetched, "SPARK: 100/120 issues", map[string]any{"project": "SPARK", "count": 50})
	Record(log, LevelInfo, EventPageFetched, "HDFS: 10/10 issues", map[string]any{"project": "HDFS", "count": 10})
	Record(log, LevelError, EventIssueFailed, "bad issue", map[string]any{"project": "SPARK", "issue": "SPARK-7"})
	Record(log, LevelWarn, EventStateSaveFailed, "saving state: disk full", map[string]any{"project": "SPARK"})
	Record(log, LevelWarn, EventRateLimitHit, "rate limited, waiting 5s", map[string]any{"project": "HDFS"})
	Record(log, LevelError, EventFetchFailed, "fetch failed", map[string]any{"project": "HDFS"})
	Record(log, LevelInfo, EventRunCompleted, "run completed", nil)

	calc := NewMetricsCalculator(log)
	m, err := calc.Calculate(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}

	if m.RunsStarted != 1 || m.RunsCompleted != 1 {
		t.Errorf("runs: started=%d completed=%d, want 1/1", m.RunsStarted, m.RunsCompleted)
	}
	if m.PagesFetched != 3 {
		t.Errorf("pages fetched = %d, want 3", m.PagesFetched)
	}
	if m.IssuesFetched != 110 {
		t.Errorf("issues fetched = %d, want 110", m.IssuesFetched)
	}
	if m.IssuesFailed != 1 {
		t.Errorf("issues failed = %d, want 1", m.IssuesFailed)
	}
	if m.FetchFailures != 1 {
		t.Errorf("fetch failures = %d, want 1", m.FetchFailures)
	}
	if m.RateLimitHits != 1 {
		t.Errorf("rate limit hits = %d, want 1", m.RateLimitHits)
	}
	if m.StateSaveFailed != 1 {
		t.Errorf("state save failures = %d, want 1", m.StateSaveFailed)
	}
	if m.IssuesByProject["SPARK"] != 100 || m.IssuesByProject["HDFS"] != 10 {
		t.Errorf("issues by project = %v", m.IssuesByProject)
	}
	if m.FailedByProject["SPARK"] != 1 {
		t.Errorf("failed by project = %v", m.FailedByProject)
	}
	if m.EventCount != 9 {
		t.Errorf("event count = %d, want 9", m.EventCount)
	}
	if m.OldestEvent == nil || m.NewestEvent == nil {
		t.Fatal("expected oldest and newest event timestamps")
	}
	if m.NewestEvent.Before(*m.OldestEvent) {
		t.Error("newest event is before oldest event")
	}
}

func TestMetricsCalculator_SinceExcludesOldEvents(t *testing.T) {
	log := seedEventLog(t)

	old := Event{
		Time:  time.Now().UTC().Add(-48 * time.Hour),
		Level: LevelInfo,
		Type:  EventRunStarted,
	}
	if err := log.Write(old); err != nil {
		t.Fatalf("writing old event: %v", err)
	}
	Record(log, LevelInfo, EventRunStarted, "recent run", nil)

	calc := NewMetricsCalculator(log)
	m, err := calc.Calculate(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if m.RunsStarted != 1 {
		t.Errorf("runs started = %d, want 1 (old event excluded)", m.RunsStarted)
	}
}

func TestMetricsCalculator_EmptyLog(t *testing.T) {
	log := seedEventLog(t)

	calc := NewMetricsCalculator(log)
	m, err := calc.Calculate(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if m.EventCount != 0 {
		t.Errorf("event count = %d, want 0", m.EventCount)
	}
	if m.OldestEvent != nil || m.NewestEvent != nil {
		t.Error("expected nil timestamps for empty log")
	}
	if m.IssuesByProject == nil || m.FailedByProject == nil {
		t.Error("per-project maps must be initialized")
	}
}
