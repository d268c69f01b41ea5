// Package jira implements the tracker API client and the resumable
// paginated fetch loop.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/valter-silva-au/jira-harvest/pkg/models"
)

// searchFields is the fixed field selection requested on every search.
const searchFields = "summary,description,status,priority,assignee,reporter,created,updated,labels,comment"

// ClientConfig holds the knobs for a Client. Zero values fall back to
// the defaults the fetch loop was tuned for.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// RetryAfterDefault is the wait applied to a 429 response that
	// carries no Retry-After header.
	RetryAfterDefault time.Duration
	// ServerErrorDelay is the wait before the single retry of a 5xx
	// response.
	ServerErrorDelay time.Duration
	// MaxRateLimitRetries bounds consecutive 429 retries for one
	// request. The request fails once the bound is exceeded.
	MaxRateLimitRetries int
}

// Client issues search requests against the tracker's REST API.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewClient creates a Client for the given configuration.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryAfterDefault <= 0 {
		cfg.RetryAfterDefault = 5 * time.Second
	}
	if cfg.ServerErrorDelay <= 0 {
		cfg.ServerErrorDelay = time.Second
	}
	if cfg.MaxRateLimitRetries <= 0 {
		cfg.MaxRateLimitRetries = 5
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// SearchPage is one bounded batch of issues plus the reported total.
type SearchPage struct {
	Issues []models.RawIssue `json:"issues"`
	Total  int               `json:"total"`
}

// RateLimitFunc is invoked each time a request is delayed by a 429
// response, with the wait about to be applied. May be nil.
type RateLimitFunc func(wait time.Duration)

// SearchPage fetches one page of issues for a project. Retry policy,
// applied iteratively to the same request:
//
//   - 429: wait for the Retry-After header (RetryAfterDefault when
//     absent) and retry, bounded by MaxRateLimitRetries.
//   - >=500: wait ServerErrorDelay and retry exactly once.
//   - any other failure (transport error, non-2xx status, bad JSON):
//     the request fails immediately.
func (c *Client) SearchPage(ctx context.Context, project string, startAt, maxResults int, onRateLimit RateLimitFunc) (*SearchPage, error) {
	reqURL, err := c.searchURL(project, startAt, maxResults)
	if err != nil {
		return nil, err
	}

	rateLimitRetries := 0
	retriedServerError := false

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("building search request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("searching %s at offset %d: %w", project, startAt, err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp, c.cfg.RetryAfterDefault)
			drain(resp)
			rateLimitRetries++
			if rateLimitRetries > c.cfg.MaxRateLimitRetries {
				return nil, fmt.Errorf("searching %s at offset %d: rate limited after %d retries",
					project, startAt, c.cfg.MaxRateLimitRetries)
			}
			if onRateLimit != nil {
				onRateLimit(wait)
			}
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue

		case resp.StatusCode >= http.StatusInternalServerError:
			drain(resp)
			if retriedServerError {
				return nil, fmt.Errorf("searching %s at offset %d: HTTP %d", project, startAt, resp.StatusCode)
			}
			retriedServerError = true
			if err := sleep(ctx, c.cfg.ServerErrorDelay); err != nil {
				return nil, err
			}
			continue

		case resp.StatusCode < 200 || resp.StatusCode >= 400:
			drain(resp)
			return nil, fmt.Errorf("searching %s at offset %d: HTTP %d", project, startAt, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading search response: %w", err)
		}

		var page SearchPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parsing search response: %w", err)
		}
		return &page, nil
	}
}

// searchURL builds the search endpoint URL with the fixed query shape:
// jql project filter, startAt cursor, maxResults bound, field selection.
func (c *Client) searchURL(project string, startAt, maxResults int) (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	u = u.JoinPath("rest", "api", "2", "search")

	q := u.Query()
	q.Set("jql", fmt.Sprintf("project = %s", project))
	q.Set("startAt", strconv.Itoa(startAt))
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("fields", searchFields)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// retryAfter reads the Retry-After header in seconds, falling back to
// the given default when the header is absent or malformed.
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// sleep waits for the given duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
