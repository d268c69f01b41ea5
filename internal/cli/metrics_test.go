package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/valter-silva-au/jira-harvest/internal/observability"
)

func TestParseSinceDuration(t *testing.T) {
	cases := []struct {
		in      string
		wantAgo time.Duration
		wantErr bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"", 7 * 24 * time.Hour, false},
		{" 2d ", 2 * 24 * time.Hour, false},
		{"yesterday", 0, true},
		{"5m", 0, true},
		{"xd", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseSinceDuration(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseSinceDuration(%q): expected error", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSinceDuration(%q): %v", tc.in, err)
			}
			want := time.Now().UTC().Add(-tc.wantAgo)
			if diff := want.Sub(got); diff < -time.Minute || diff > time.Minute {
				t.Errorf("parseSinceDuration(%q) = %s, want about %s", tc.in, got, want)
			}
		})
	}
}

func TestMetricsCommand_NilCalculator(t *testing.T) {
	origCalc := MetricsCalc
	defer func() { MetricsCalc = origCalc }()
	MetricsCalc = nil

	if err := metricsCmd.RunE(metricsCmd, []string{}); err == nil {
		t.Fatal("expected error when metrics calculator is nil")
	}
}

func TestMetricsCommand_Success(t *testing.T) {
	origCalc := MetricsCalc
	defer func() { MetricsCalc = origCalc }()

	events, err := observability.NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer func() { _ = events.Close() }()
	observability.Record(events, observability.LevelInfo, observability.EventPageFetched, "SPARK: 50/50 issues",
		map[string]any{"project": "SPARK", "count": 50})

	MetricsCalc = observability.NewMetricsCalculator(events)

	origSince := metricsSince
	defer func() { metricsSince = origSince }()
	metricsSince = "7d"

	if err := metricsCmd.RunE(metricsCmd, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMetricsCommand_BadSince(t *testing.T) {
	origCalc := MetricsCalc
	defer func() { MetricsCalc = origCalc }()

	events, err := observability.NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer func() { _ = events.Close() }()
	MetricsCalc = observability.NewMetricsCalculator(events)

	origSince := metricsSince
	defer func() { metricsSince = origSince }()
	metricsSince = "fortnight"

	if err := metricsCmd.RunE(metricsCmd, []string{}); err == nil {
		t.Fatal("expected error for unsupported --since format")
	}
}
