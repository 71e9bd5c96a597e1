package observation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultTimeout bounds a single fetch.
	DefaultTimeout = 10 * time.Second
	// maxBodyBytes caps a response body; a search page is a few KB.
	maxBodyBytes = 1 << 20
)

// Client fetches the latest observation from the caching proxy. It never
// fails outward: errors are logged and the last good (or default) snapshot
// is returned instead.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.Mutex
	last    Snapshot
	hasLast bool
}

// NewClient creates a Client for the proxy endpoint at url.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "observation"),
	}
}

// FetchLatest returns the newest observation, or a fallback when the fetch
// fails.
func (c *Client) FetchLatest(ctx context.Context) Snapshot {
	s, err := c.fetch(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		fallback := Default()
		if c.hasLast {
			fallback = c.last
		}
		c.logger.Warn("fetching observation failed, using fallback",
			"error", err,
			"fallback", fallback.TargetName,
			"last_good", c.hasLast,
		)
		return fallback
	}
	c.last, c.hasLast = s, true
	return s
}

// LastGood returns the most recent successfully fetched snapshot.
func (c *Client) LastGood() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.hasLast
}

func (c *Client) fetch(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	body, err := do(c.httpClient, req)
	if err != nil {
		return Snapshot{}, err
	}
	return ParseLatest(body)
}

// Searcher issues the fixed latest-observations query against the upstream
// search API and returns the raw response body.
type Searcher struct {
	url        string
	httpClient *http.Client
}

func NewSearcher(url string, timeout time.Duration) *Searcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Searcher{url: url, httpClient: &http.Client{Timeout: timeout}}
}

// URL returns the upstream endpoint.
func (s *Searcher) URL() string { return s.url }

// Search POSTs the query. The body is returned only if it decodes to at
// least one observation, so callers can cache it as is.
func (s *Searcher) Search(ctx context.Context) ([]byte, error) {
	payload, err := json.Marshal(LatestQuery())
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	body, err := do(s.httpClient, req)
	if err != nil {
		return nil, err
	}
	if _, err := ParseLatest(body); err != nil {
		return nil, err
	}
	return body, nil
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, req.URL.Redacted())
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("response body exceeds %d byte limit", maxBodyBytes)
	}
	return body, nil
}
