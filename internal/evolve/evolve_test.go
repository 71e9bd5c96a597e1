package evolve

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func TestWalkStaysInBounds(t *testing.T) {
	w := NewWalker(11, 6)
	for i := 0; i < 5000; i++ {
		s := w.Step(1)
		if s.Unfold < MinUnfold || s.Unfold > MaxUnfold {
			t.Fatalf("step %d: unfold %v", i, s.Unfold)
		}
		if s.CutoffRatio < MinCutoffRatio || s.CutoffRatio > MaxCutoffRatio {
			t.Fatalf("step %d: cutoff ratio %v", i, s.CutoffRatio)
		}
		if s.QOffset < MinQOffset || s.QOffset > MaxQOffset {
			t.Fatalf("step %d: q offset %v", i, s.QOffset)
		}
		if s.WetOffset < -MaxWetOffset || s.WetOffset > MaxWetOffset {
			t.Fatalf("step %d: wet offset %v", i, s.WetOffset)
		}
		if s.DriftCents < MinDriftCents || s.DriftCents > MaxDriftCents {
			t.Fatalf("step %d: drift %v", i, s.DriftCents)
		}
		for j := range s.LineFeedback {
			if s.LineFeedback[j] < -MaxLineFeedback || s.LineFeedback[j] > MaxLineFeedback {
				t.Fatalf("step %d line %d: feedback offset %v", i, j, s.LineFeedback[j])
			}
			if s.LineRate[j] < MinLineRate || s.LineRate[j] > MaxLineRate {
				t.Fatalf("step %d line %d: rate %v", i, j, s.LineRate[j])
			}
		}
	}
}

func TestPulseScalesStepSize(t *testing.T) {
	travel := func(pulse float64) float64 {
		w := NewWalker(5, 6)
		prev := w.Current().QOffset
		var sum float64
		for i := 0; i < 200; i++ {
			s := w.Step(pulse)
			d := s.QOffset - prev
			if d < 0 {
				d = -d
			}
			sum += d
			prev = s.QOffset
		}
		return sum
	}
	if calm, lively := travel(0), travel(1); lively <= calm {
		t.Fatalf("expected larger steps at high pulse: calm %v lively %v", calm, lively)
	}
	if Scale(0) != 0.4 || Scale(1) != 2 || Scale(9) != 2 {
		t.Fatal("unexpected Scale endpoints")
	}
}

func TestWalkDeterministicPerSeed(t *testing.T) {
	a, b := NewWalker(3, 6), NewWalker(3, 6)
	for i := 0; i < 50; i++ {
		sa, sb := a.Step(0.5), b.Step(0.5)
		if sa.Unfold != sb.Unfold || sa.LineRate[2] != sb.LineRate[2] {
			t.Fatalf("step %d diverged", i)
		}
	}
}

func TestCurrentIsACopy(t *testing.T) {
	w := NewWalker(1, 2)
	c := w.Current()
	c.LineRate[0] = 99
	if w.Current().LineRate[0] == 99 {
		t.Fatal("Current leaked internal state")
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	const period = 5 * time.Millisecond
	s := NewScheduler(period, quietLogger())
	var calls atomic.Int64
	fn := func() { calls.Add(1) }
	start := time.Now()
	if !s.Start(fn) {
		t.Fatal("first Start should arm the scheduler")
	}
	if s.Start(fn) {
		t.Fatal("second Start should be refused")
	}
	time.Sleep(60 * time.Millisecond)
	s.Stop()
	elapsed := time.Since(start)
	// A single ticker can fire at most once per period.
	if limit := int64(elapsed/period) + 1; calls.Load() > limit {
		t.Fatalf("fn called %d times in %v; more than one timer armed", calls.Load(), elapsed)
	}
}

func TestSchedulerStopHaltsTicks(t *testing.T) {
	s := NewScheduler(2*time.Millisecond, quietLogger())
	s.Start(func() {})
	deadline := time.Now().Add(2 * time.Second)
	for s.Ticks() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("scheduler never ticked")
		}
		time.Sleep(time.Millisecond)
	}
	s.Stop()
	if s.Running() {
		t.Fatal("expected scheduler stopped")
	}
	after := s.Ticks()
	time.Sleep(20 * time.Millisecond)
	if s.Ticks() != after {
		t.Fatalf("ticks kept increasing after Stop: %d -> %d", after, s.Ticks())
	}
	s.Stop()
}

func TestSchedulerRestart(t *testing.T) {
	s := NewScheduler(time.Hour, quietLogger())
	s.Stop()
	if !s.Start(func() {}) {
		t.Fatal("Start after idle Stop failed")
	}
	s.Stop()
	if !s.Start(func() {}) {
		t.Fatal("Start after Stop failed")
	}
	s.Stop()
}
