package proxy

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cbegin/skydrone-go/internal/metrics"
	"github.com/cbegin/skydrone-go/internal/observation"
)

// Result is the X-Cache diagnostic value of a response.
type Result string

const (
	Hit      Result = "HIT"
	Miss     Result = "MISS"
	Stale    Result = "STALE"
	Fallback Result = "FALLBACK"
)

// DefaultTTL is how long an upstream response is served without refetching.
const DefaultTTL = 5 * time.Minute

// Upstream returns a raw search response body.
type Upstream interface {
	Search(ctx context.Context) ([]byte, error)
}

// Cache holds the last good upstream body. Concurrent misses share a single
// upstream request.
type Cache struct {
	upstream Upstream
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	body      []byte
	fetchedAt time.Time

	group singleflight.Group
}

func NewCache(upstream Upstream, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{
		upstream: upstream,
		ttl:      ttl,
		logger:   logger.With("component", "proxy"),
		now:      time.Now,
	}
}

// Get returns the body to serve and how it was obtained. It never fails:
// without a fresh or stale body it returns the built-in fallback payload.
func (c *Cache) Get(ctx context.Context) ([]byte, Result) {
	c.mu.RLock()
	body, fetchedAt := c.body, c.fetchedAt
	c.mu.RUnlock()
	if body != nil && c.now().Sub(fetchedAt) < c.ttl {
		return body, Hit
	}

	// The shared fetch must outlive any single caller's request.
	v, err, _ := c.group.Do("latest", func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})
	if err == nil {
		return v.([]byte), Miss
	}

	c.mu.RLock()
	body = c.body
	c.mu.RUnlock()
	if body != nil {
		return body, Stale
	}
	return observation.FallbackBody(), Fallback
}

func (c *Cache) refresh(ctx context.Context) ([]byte, error) {
	start := time.Now()
	body, err := c.upstream.Search(ctx)
	metrics.ObserveUpstream(time.Since(start), err)
	if err != nil {
		c.logger.Warn("upstream search failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	c.mu.Lock()
	c.body = body
	c.fetchedAt = c.now()
	c.mu.Unlock()
	c.logger.Debug("upstream search refreshed", "bytes", len(body), "duration_ms", time.Since(start).Milliseconds())
	return body, nil
}
