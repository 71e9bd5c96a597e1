// Package macro maps the user-facing macro knobs to concrete synthesis
// targets. Everything here is pure: the engine decides when and how fast
// each target is applied.
package macro

import (
	"math"

	"github.com/cbegin/skydrone-go/internal/grain"
	"github.com/cbegin/skydrone-go/internal/space"
	"github.com/cbegin/skydrone-go/internal/voice"
)

// VolumeTau is the smoothing time constant for the Volume macro.
const VolumeTau = 0.15

// Tau is the smoothing time constant for the other macros.
const Tau = 0.3

// Values is the full macro state. Chord is a root offset plus mode.
type Values struct {
	Volume  float64
	Space   float64
	Colour  float64
	Scatter float64
	Pulse   float64
	Zoom    float64
	Root    int
	Mode    string
}

// Defaults returns the resting position of every knob.
func Defaults() Values {
	return Values{
		Volume:  0.7,
		Space:   0.5,
		Colour:  0.5,
		Scatter: 0.35,
		Pulse:   0.3,
		Zoom:    0.6,
		Mode:    voice.DefaultMode,
	}
}

// Clamped returns v with every knob in [0, 1], the root within range and
// the mode resolved.
func (v Values) Clamped() Values {
	return Values{
		Volume:  Clamp(v.Volume),
		Space:   Clamp(v.Space),
		Colour:  Clamp(v.Colour),
		Scatter: Clamp(v.Scatter),
		Pulse:   Clamp(v.Pulse),
		Zoom:    Clamp(v.Zoom),
		Root:    voice.ClampRoot(v.Root),
		Mode:    voice.NormalizeMode(v.Mode),
	}
}

// Clamp limits a knob to [0, 1]; NaN becomes 0.
func Clamp(v float64) float64 {
	if !(v >= 0) {
		return 0
	}
	return min(v, 1)
}

// Volume is the master gain for knob v.
func Volume(v float64) float64 { return Clamp(v) }

type SpaceTargets struct {
	Wet           float64
	Dry           float64
	GrainOut      float64
	GrainFeedback float64
}

// Space trades dry for wet: low is present and dry, high is vast.
func Space(v float64) SpaceTargets {
	v = Clamp(v)
	return SpaceTargets{
		Wet:           0.12 + 0.78*v,
		Dry:           0.95 - 0.6*v,
		GrainOut:      0.08 + 0.42*v,
		GrainFeedback: 0.3 + 0.4*v,
	}
}

type ColourTargets struct {
	Cutoff float64
	Q      float64
}

const (
	colourMinHz = 180.0
	colourMaxHz = 9000.0
)

// Colour maps v exponentially to cutoff and quadratically to resonance.
func Colour(v float64) ColourTargets {
	v = Clamp(v)
	return ColourTargets{
		Cutoff: colourMinHz * math.Pow(colourMaxHz/colourMinHz, v),
		Q:      0.7 + 11.3*v*v,
	}
}

type ScatterTargets struct {
	GrainFeedback float64
	GrainFeed     float64
	ModDepthMs    float64
}

// Scatter takes the drone from clean to a smeared, pitch-scattered cloud.
func Scatter(v float64) ScatterTargets {
	v = Clamp(v)
	return ScatterTargets{
		GrainFeedback: 0.2 + 0.65*v,
		GrainFeed:     0.05 + 0.75*v,
		ModDepthMs:    0.5 + 7.5*v,
	}
}

type PulseTargets struct {
	Rate  float64
	Depth float64
}

// Pulse maps v to breathing rate (quadratic) and depth. Depth stays well
// under space.MaxBreathDepth.
func Pulse(v float64) PulseTargets {
	v = Clamp(v)
	return PulseTargets{
		Rate:  0.03 + 1.97*v*v,
		Depth: 0.02 + 0.5*v,
	}
}

// ZoomTargets are the non-voice effects of zooming in: more texture, a
// little more feedback, deeper breathing and a sharper filter.
type ZoomTargets struct {
	Zoom          float64
	GrainOutScale float64
	FeedbackTrim  float64
	LFODepthScale float64
	QBoost        float64
}

func Zoom(v float64) ZoomTargets {
	v = Clamp(v)
	return ZoomTargets{
		Zoom:          v,
		GrainOutScale: 0.6 + 0.6*v,
		FeedbackTrim:  -0.06 + 0.08*v,
		LFODepthScale: 0.7 + 0.3*v,
		QBoost:        1 + 0.4*v,
	}
}

// CombinedFeedback is the only source of grain feedback. Space and Scatter
// contribute equally; the evolution offset and zoom trim ride on top. The
// result never exceeds grain.MaxFeedback.
func CombinedFeedback(space, scatter, evolve, zoomTrim float64) float64 {
	v := 0.5*space + 0.5*scatter + evolve + zoomTrim
	if !(v >= 0) {
		return 0
	}
	return min(v, grain.MaxFeedback)
}

// colourNeutral is the cutoff the Colour knob yields at its midpoint, where
// it leaves the data-driven cutoff untouched.
var colourNeutral = Colour(0.5).Cutoff

// CombinedCutoff scales the data-driven cutoff by the Colour knob and the
// evolution ratio.
func CombinedCutoff(dataHz, colour, evolveRatio float64) float64 {
	if !(dataHz > 0) {
		dataHz = colourNeutral
	}
	if !(evolveRatio > 0) {
		evolveRatio = 1
	}
	hz := dataHz * Colour(colour).Cutoff / colourNeutral * evolveRatio
	return max(space.MinCutoff, min(hz, 18000))
}

// CombinedResonance applies the zoom boost and evolution offset to the
// Colour resonance.
func CombinedResonance(colour, zoom, evolveOffset float64) float64 {
	q := Colour(colour).Q*Zoom(zoom).QBoost + evolveOffset
	return max(space.MinQ, min(q, space.MaxQ))
}

// CombinedWet shifts the Space wetness by the data wetness (0.5 is
// neutral) and the evolution offset.
func CombinedWet(spaceKnob, dataWet, evolveOffset float64) float64 {
	if dataWet != dataWet {
		dataWet = 0.5
	}
	return Clamp(Space(spaceKnob).Wet + 0.5*(dataWet-0.5) + evolveOffset)
}

// CombinedDry applies the opposite evolution offset to the Space dry level
// so the wash moves as one gesture.
func CombinedDry(spaceKnob, evolveOffset float64) float64 {
	return Clamp(Space(spaceKnob).Dry - 0.5*evolveOffset)
}

// CombinedGrainOut scales the Space grain level by zoom.
func CombinedGrainOut(spaceKnob, zoom float64) float64 {
	return Clamp(Space(spaceKnob).GrainOut * Zoom(zoom).GrainOutScale)
}

// CombinedBreathDepth scales the Pulse depth by zoom.
func CombinedBreathDepth(pulse, zoom float64) float64 {
	return min(Pulse(pulse).Depth*Zoom(zoom).LFODepthScale, space.MaxBreathDepth)
}
