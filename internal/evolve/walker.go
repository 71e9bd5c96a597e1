// Package evolve keeps a static scene from freezing: a seeded bounded
// random walk over secondary parameters, stepped by a slow ticker.
package evolve

import (
	"math"
	"math/rand/v2"
)

// Walk bounds. Offsets are applied around the live data/macro baselines.
const (
	MinUnfold = 0.2
	MaxUnfold = 1.0

	MinCutoffRatio = 0.8
	MaxCutoffRatio = 1.25

	MinQOffset = -0.5
	MaxQOffset = 1.5

	MaxWetOffset = 0.12

	MinLineRate = 0.5
	MaxLineRate = 2.0

	MinLineDepth = 0.5
	MaxLineDepth = 1.6

	MaxLineFeedback = 0.1

	MinDriftCents = 1.0
	MaxDriftCents = 14.0
)

// Step is the walk position after one tick. Line slices have one entry per
// grain line.
type Step struct {
	Unfold       float64
	CutoffRatio  float64
	QOffset      float64
	WetOffset    float64
	LineRate     []float64 // multiplier on the data-driven wobble rate
	LineDepth    []float64 // multiplier on the Scatter wobble depth
	LineFeedback []float64 // added to the combined feedback
	DriftCents   float64
}

// Walker holds the walk state. It is not safe for concurrent use.
type Walker struct {
	rng *rand.Rand
	cur Step
}

// NewWalker starts every dimension at its neutral point.
func NewWalker(seed uint64, lines int) *Walker {
	w := &Walker{
		rng: rand.New(rand.NewPCG(seed, 0xe70)),
		cur: Step{
			Unfold:       0.6,
			CutoffRatio:  1,
			LineRate:     make([]float64, lines),
			LineDepth:    make([]float64, lines),
			LineFeedback: make([]float64, lines),
			DriftCents:   4,
		},
	}
	for i := range lines {
		w.cur.LineRate[i] = 1
		w.cur.LineDepth[i] = 1
	}
	return w
}

// Scale is the step multiplier for a Pulse value: livelier pulse, bigger
// steps.
func Scale(pulse float64) float64 {
	if !(pulse >= 0) {
		pulse = 0
	}
	return 0.4 + 1.6*min(pulse, 1)
}

// Current returns a copy of the walk position.
func (w *Walker) Current() Step { return w.cur.clone() }

// Step advances every dimension by one bounded random step and returns the
// new position.
func (w *Walker) Step(pulse float64) Step {
	s := Scale(pulse)
	c := &w.cur
	c.Unfold = bound(c.Unfold+w.delta(0.08*s), MinUnfold, MaxUnfold)
	c.CutoffRatio = bound(c.CutoffRatio*math.Exp(w.delta(0.04*s)), MinCutoffRatio, MaxCutoffRatio)
	c.QOffset = bound(c.QOffset+w.delta(0.15*s), MinQOffset, MaxQOffset)
	c.WetOffset = bound(c.WetOffset+w.delta(0.02*s), -MaxWetOffset, MaxWetOffset)
	for i := range c.LineRate {
		c.LineRate[i] = bound(c.LineRate[i]+w.delta(0.1*s), MinLineRate, MaxLineRate)
		c.LineDepth[i] = bound(c.LineDepth[i]+w.delta(0.1*s), MinLineDepth, MaxLineDepth)
		c.LineFeedback[i] = bound(c.LineFeedback[i]+w.delta(0.015*s), -MaxLineFeedback, MaxLineFeedback)
	}
	c.DriftCents = bound(c.DriftCents+w.delta(1*s), MinDriftCents, MaxDriftCents)
	return c.clone()
}

// delta is uniform in [-size, size].
func (w *Walker) delta(size float64) float64 {
	return (w.rng.Float64()*2 - 1) * size
}

func (s Step) clone() Step {
	s.LineRate = append([]float64(nil), s.LineRate...)
	s.LineDepth = append([]float64(nil), s.LineDepth...)
	s.LineFeedback = append([]float64(nil), s.LineFeedback...)
	return s
}

func bound(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
