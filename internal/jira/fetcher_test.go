package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

// fakeState is an in-memory StateStore that can simulate save failures.
type fakeState struct {
	offsets map[string]int
	saves   int
	saveErr error
	saved   map[string]int // snapshot at last successful save
}

func newFakeState() *fakeState {
	return &fakeState{offsets: make(map[string]int), saved: make(map[string]int)}
}

func (s *fakeState) Offset(project string) int { return s.offsets[project] }

func (s *fakeState) SetOffset(project string, offset int) {
	if offset < s.offsets[project] {
		return
	}
	s.offsets[project] = offset
}

func (s *fakeState) Save() error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	for k, v := range s.offsets {
		s.saved[k] = v
	}
	return nil
}

// pagedServer serves a project with the given total, pageSize issues at
// a time, and optionally fails requests at a given offset.
func pagedServer(t *testing.T, project string, total int, failAtOffset int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		maxResults, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))

		if failAtOffset >= 0 && startAt >= failAtOffset {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		n := total - startAt
		if n < 0 {
			n = 0
		}
		if n > maxResults {
			n = maxResults
		}
		_, _ = w.Write(pageBody(t, project, startAt, n, total))
	}))
}

func newTestFetcher(baseURL string, state StateStore, pageSize int) *Fetcher {
	client := NewClient(ClientConfig{
		BaseURL:          baseURL,
		Timeout:          5 * time.Second,
		ServerErrorDelay: time.Millisecond,
	})
	return NewFetcher(client, state, nil, pageSize, 0)
}

func TestFetcher_FetchesAllPagesInOrder(t *testing.T) {
	server := pagedServer(t, "SPARK", 120, -1)
	defer server.Close()

	state := newFakeState()
	fetcher := newTestFetcher(server.URL, state, 50)

	var keys []string
	fetched, err := fetcher.FetchProject(context.Background(), "SPARK", func(page Page) error {
		for _, issue := range page.Issues {
			keys = append(keys, issue.Key)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fetched != 120 {
		t.Errorf("expected 120 issues fetched, got %d", fetched)
	}
	for i, key := range keys {
		want := fmt.Sprintf("SPARK-%d", i+1)
		if key != want {
			t.Fatalf("issue %d out of order: got %s, want %s", i, key, want)
		}
	}
	if state.Offset("SPARK") != 120 {
		t.Errorf("final offset = %d, want 120", state.Offset("SPARK"))
	}
}

func TestFetcher_ResumeAtTotalTerminatesImmediately(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		if startAt != 50 {
			t.Errorf("expected resume request at offset 50, got %d", startAt)
		}
		_, _ = w.Write(pageBody(t, "SPARK", startAt, 0, 50))
	}))
	defer server.Close()

	state := newFakeState()
	state.offsets["SPARK"] = 50
	fetcher := newTestFetcher(server.URL, state, 50)

	pages := 0
	fetched, err := fetcher.FetchProject(context.Background(), "SPARK", func(page Page) error {
		pages++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched != 0 || pages != 0 {
		t.Errorf("expected zero issues and zero pages, got %d/%d", fetched, pages)
	}
	if requests != 1 {
		t.Errorf("expected a single empty-page request, got %d", requests)
	}
	if state.Offset("SPARK") != 50 {
		t.Errorf("offset must not move, got %d", state.Offset("SPARK"))
	}
}

func TestFetcher_OffsetPersistedBeforeNextPageFails(t *testing.T) {
	// Page 1 (offset 0) succeeds, page 2 (offset 50) fails.
	server := pagedServer(t, "SPARK", 80, 50)
	defer server.Close()

	state := newFakeState()
	fetcher := newTestFetcher(server.URL, state, 50)

	fetched, err := fetcher.FetchProject(context.Background(), "SPARK", func(page Page) error {
		return nil
	})

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.Project != "SPARK" || fetchErr.StartAt != 50 {
		t.Errorf("fetch error should identify the failing page: %+v", fetchErr)
	}
	if fetched != 50 {
		t.Errorf("expected 50 issues from page 1, got %d", fetched)
	}
	if state.saved["SPARK"] != 50 {
		t.Errorf("offset 50 must be durably saved despite page 2 failing, got %d", state.saved["SPARK"])
	}
}

func TestFetcher_PageCallbackErrorStopsBeforeAdvance(t *testing.T) {
	server := pagedServer(t, "SPARK", 80, -1)
	defer server.Close()

	state := newFakeState()
	fetcher := newTestFetcher(server.URL, state, 50)

	wantErr := errors.New("disk full")
	_, err := fetcher.FetchProject(context.Background(), "SPARK", func(page Page) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if state.Offset("SPARK") != 0 {
		t.Errorf("offset must not advance past an unprocessed page, got %d", state.Offset("SPARK"))
	}
	if state.saves != 0 {
		t.Errorf("state must not be saved for a failed page, got %d saves", state.saves)
	}
}

func TestFetcher_SaveFailureDoesNotAbort(t *testing.T) {
	server := pagedServer(t, "SPARK", 60, -1)
	defer server.Close()

	state := newFakeState()
	state.saveErr = errors.New("read-only filesystem")
	fetcher := newTestFetcher(server.URL, state, 50)

	fetched, err := fetcher.FetchProject(context.Background(), "SPARK", func(page Page) error {
		return nil
	})
	if err != nil {
		t.Fatalf("save failures must not abort the fetch: %v", err)
	}
	if fetched != 60 {
		t.Errorf("expected all 60 issues, got %d", fetched)
	}
}

func TestFetcher_ContextCancelled(t *testing.T) {
	server := pagedServer(t, "SPARK", 500, -1)
	defer server.Close()

	state := newFakeState()
	fetcher := newTestFetcher(server.URL, state, 50)

	ctx, cancel := context.WithCancel(context.Background())
	pages := 0
	_, err := fetcher.FetchProject(ctx, "SPARK", func(page Page) error {
		pages++
		if pages == 2 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// Offset for the completed pages is already persisted.
	if state.saved["SPARK"] != 100 {
		t.Errorf("expected offset 100 saved before cancellation, got %d", state.saved["SPARK"])
	}
}
