package param

import (
	"math"
	"sync/atomic"
)

// Clock is the audio clock. Only the render path advances it; every other
// goroutine reads it to schedule parameter changes relative to "now".
type Clock struct {
	sampleRate float64
	frames     atomic.Int64
}

func NewClock(sampleRate int) *Clock {
	return &Clock{sampleRate: float64(sampleRate)}
}

// Advance moves the clock forward by n rendered frames.
func (c *Clock) Advance(n int) {
	c.frames.Add(int64(n))
}

func (c *Clock) Frames() int64 { return c.frames.Load() }

func (c *Clock) SampleRate() float64 { return c.sampleRate }

// Now returns the current audio time in seconds.
func (c *Clock) Now() float64 {
	return c.TimeAt(c.frames.Load())
}

// TimeAt converts a frame index to seconds.
func (c *Clock) TimeAt(frame int64) float64 {
	if c.sampleRate <= 0 {
		return 0
	}
	return float64(frame) / c.sampleRate
}

type kind int

const (
	kindHold kind = iota
	kindLinear
	kindTarget
)

// segment is one immutable automation curve. A Param always has exactly one.
type segment struct {
	kind  kind
	from  float64
	to    float64
	start float64
	dur   float64 // ramp length for kindLinear, time constant for kindTarget
}

func (s *segment) at(t float64) float64 {
	switch s.kind {
	case kindLinear:
		if t <= s.start {
			return s.from
		}
		if s.dur <= 0 || t >= s.start+s.dur {
			return s.to
		}
		return s.from + (s.to-s.from)*(t-s.start)/s.dur
	case kindTarget:
		if t <= s.start {
			return s.from
		}
		if s.dur <= 0 {
			return s.to
		}
		return s.to + (s.from-s.to)*math.Exp(-(t-s.start)/s.dur)
	default:
		return s.to
	}
}

// Param is an automatable audio parameter. Writers schedule a new curve that
// starts from whatever value the current curve yields at the write time; the
// remainder of the previous curve is discarded.
//
// Reads and writes are lock-free so the audio thread never waits on a writer.
type Param struct {
	seg      atomic.Pointer[segment]
	min, max float64
}

// New returns a Param holding v, bounded to [min, max].
func New(v, min, max float64) *Param {
	p := &Param{min: min, max: max}
	p.seg.Store(&segment{kind: kindHold, from: p.clamp(v), to: p.clamp(v)})
	return p
}

func (p *Param) clamp(v float64) float64 {
	if v < p.min {
		return p.min
	}
	if v > p.max {
		return p.max
	}
	return v
}

// ValueAt evaluates the parameter at audio time t.
func (p *Param) ValueAt(t float64) float64 {
	return p.seg.Load().at(t)
}

// Target returns the value the current curve is heading to.
func (p *Param) Target() float64 {
	return p.seg.Load().to
}

// Span returns the value at t0 and the per-sample increment that reaches the
// value at t1 after n samples. Used for control-rate interpolation.
func (p *Param) Span(t0, t1 float64, n int) (float64, float64) {
	s := p.seg.Load()
	v0 := s.at(t0)
	if n <= 0 {
		return v0, 0
	}
	return v0, (s.at(t1) - v0) / float64(n)
}

// SetValue jumps to v at time now.
func (p *Param) SetValue(v, now float64) {
	if math.IsNaN(v) {
		return
	}
	v = p.clamp(v)
	p.seg.Store(&segment{kind: kindHold, from: v, to: v, start: now})
}

// LinearRampTo moves linearly from the current value to v over dur seconds.
// A non-positive dur is an immediate SetValue.
func (p *Param) LinearRampTo(v, now, dur float64) {
	if math.IsNaN(v) {
		return
	}
	if !(dur > 0) {
		p.SetValue(v, now)
		return
	}
	cur := p.seg.Load().at(now)
	p.seg.Store(&segment{kind: kindLinear, from: cur, to: p.clamp(v), start: now, dur: dur})
}

// SetTargetAt approaches v exponentially with time constant tau. A
// non-positive tau is an immediate SetValue.
func (p *Param) SetTargetAt(v, now, tau float64) {
	if math.IsNaN(v) {
		return
	}
	if !(tau > 0) {
		p.SetValue(v, now)
		return
	}
	cur := p.seg.Load().at(now)
	p.seg.Store(&segment{kind: kindTarget, from: cur, to: p.clamp(v), start: now, dur: tau})
}

// Hold freezes the parameter at its value at time now.
func (p *Param) Hold(now float64) {
	cur := p.seg.Load().at(now)
	p.seg.Store(&segment{kind: kindHold, from: cur, to: cur, start: now})
}
