package observation

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// DefaultPollInterval is how often the live observation is refreshed.
const DefaultPollInterval = 60 * time.Second

// Fetcher returns the latest observation. Implementations substitute a
// fallback rather than fail.
type Fetcher interface {
	FetchLatest(ctx context.Context) Snapshot
}

// Poller fetches on a fixed interval and hands changed snapshots to a sink.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	sink     func(Snapshot)
	logger   *slog.Logger
}

func NewPoller(f Fetcher, interval time.Duration, sink func(Snapshot), logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Poller{
		fetcher:  f,
		interval: interval,
		sink:     sink,
		logger:   logger.With("component", "observation"),
	}
}

// Run fetches once immediately and then every interval until ctx is
// cancelled. The sink sees the first snapshot and every one that differs
// from its predecessor.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var prev Snapshot
	first := true
	poll := func() {
		s := p.fetcher.FetchLatest(ctx)
		if ctx.Err() != nil {
			return
		}
		if !first && s.Equal(prev) {
			p.logger.Debug("observation unchanged", "target", s.TargetName)
			return
		}
		first = false
		prev = s
		p.logger.Info("new observation",
			"target", s.TargetName,
			"instrument", s.Instrument,
			"filter", s.Filter,
			"captured_at", s.CapturedAt,
		)
		p.sink(s)
	}

	poll()
	for {
		select {
		case <-ticker.C:
			poll()
		case <-ctx.Done():
			return
		}
	}
}
