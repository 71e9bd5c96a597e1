package evolve

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPeriod is the evolution tick interval.
const DefaultPeriod = 7 * time.Second

// Scheduler runs one function on a fixed period. Start and Stop are
// idempotent; after Stop returns the function is never called again until
// the next Start.
type Scheduler struct {
	period time.Duration
	logger *slog.Logger
	ticks  atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(period time.Duration, logger *slog.Logger) *Scheduler {
	if period <= 0 {
		period = DefaultPeriod
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{period: period, logger: logger}
}

// Start arms the ticker. It reports false, and does nothing, if the
// scheduler is already running.
func (s *Scheduler) Start(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go s.run(ctx, done, fn)
	s.logger.Debug("evolution scheduler started", "period", s.period)
	return true
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}, fn func()) {
	defer close(done)
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A tick racing with Stop loses.
			if ctx.Err() != nil {
				return
			}
			fn()
			s.ticks.Add(1)
		}
	}
}

// Stop cancels the ticker and waits for any in-flight tick to finish.
// Callers must not hold a lock that fn acquires.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Debug("evolution scheduler stopped", "ticks", s.ticks.Load())
}

// Running reports whether the ticker is armed.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Ticks is the number of completed ticks since construction.
func (s *Scheduler) Ticks() int64 { return s.ticks.Load() }
