// Package grain implements the grain cloud: a bank of short, independently
// modulated feedback delay lines that smear any input into a diffuse
// shimmer of micro-echoes.
package grain

import (
	"math"
	"math/rand/v2"

	"github.com/cbegin/skydrone-go/internal/lfo"
	"github.com/cbegin/skydrone-go/internal/param"
)

const (
	// Lines is the number of delay lines in a cloud.
	Lines = 6
	// MaxFeedback is the ceiling for any line's feedback gain.
	MaxFeedback = 0.9

	MinDelayMs = 35.0
	MaxDelayMs = 180.0

	// MaxDepthMs bounds the delay-time wobble.
	MaxDepthMs = 12.0
	// MaxRateHz bounds the wobble rate.
	MaxRateHz = 4.0
)

// Line is one delay + feedback + modulator unit. Its baseline offsets are
// drawn once at construction and applied on top of every uniform setting.
type Line struct {
	buf     []float32
	pos     int
	delay   float64 // base delay in samples
	gainL   float32
	gainR   float32
	wobble  lfo.LFO
	fbAdd   float64 // additive feedback offset
	feedMul float64
	outMul  float64
	depMul  float64
	rateMul float64

	feedback *param.Param
	feed     *param.Param
	out      *param.Param
	depthMs  *param.Param
	rateHz   *param.Param
}

// DelayMs returns the line's base delay.
func (l *Line) DelayMs(sampleRate int) float64 {
	return l.delay * 1000 / float64(sampleRate)
}

// Feedback returns the feedback gain the line is heading to.
func (l *Line) Feedback() float64 { return l.feedback.Target() }

// InputFeed returns the input gain the line is heading to.
func (l *Line) InputFeed() float64 { return l.feed.Target() }

// OutputLevel returns the output gain the line is heading to.
func (l *Line) OutputLevel() float64 { return l.out.Target() }

// ModulationDepth returns the wobble depth target in milliseconds.
func (l *Line) ModulationDepth() float64 { return l.depthMs.Target() }

// ModulationRate returns the wobble rate target in Hz.
func (l *Line) ModulationRate() float64 { return l.rateHz.Target() }

// Cloud shares one mono input and one stereo output across all lines.
type Cloud struct {
	sampleRate float64
	lines      []*Line
}

// New builds a cloud. The seed fixes every per-line baseline so two clouds
// built with the same seed are identical.
func New(sampleRate int, seed uint64) *Cloud {
	rng := rand.New(rand.NewPCG(seed, 0x67a1))
	sr := float64(sampleRate)
	c := &Cloud{sampleRate: sr, lines: make([]*Line, Lines)}

	// Spread base delays across the range in shuffled strata so lines never
	// collide even for unlucky draws.
	strata := rng.Perm(Lines)
	span := (MaxDelayMs - MinDelayMs) / Lines
	for i := range c.lines {
		delayMs := MinDelayMs + span*(float64(strata[i])+rng.Float64())
		delay := delayMs * sr / 1000
		size := int(delay+MaxDepthMs*1.5*sr/1000) + 4

		pan := 0.25 + 0.55*rng.Float64()
		if i%2 == 0 {
			pan = -pan
		}
		l := &Line{
			buf:     make([]float32, size),
			delay:   delay,
			gainL:   float32(math.Sqrt((1 - pan) / 2)),
			gainR:   float32(math.Sqrt((1 + pan) / 2)),
			fbAdd:   (rng.Float64()*2 - 1) * 0.06,
			feedMul: 0.8 + 0.4*rng.Float64(),
			outMul:  0.8 + 0.4*rng.Float64(),
			depMul:  0.7 + 0.6*rng.Float64(),
			rateMul: 0.6 + 0.8*rng.Float64(),
		}
		l.feedback = param.New(clampFeedback(0.35+l.fbAdd), 0, MaxFeedback)
		l.feed = param.New(0.3*l.feedMul, 0, 1)
		l.out = param.New(0.25*l.outMul, 0, 1)
		l.depthMs = param.New(2*l.depMul, 0, MaxDepthMs)
		l.rateHz = param.New(0.15*l.rateMul, 0, MaxRateHz)
		l.wobble.Set(1, l.rateHz.Target(), lfo.WaveSine)
		l.wobble.SetPhase(rng.Float64())
		c.lines[i] = l
	}
	return c
}

// Lines returns the cloud's lines.
func (c *Cloud) Lines() []*Line { return c.lines }

// SetFeedback moves every line toward amount plus its own offset, clamped
// to [0, MaxFeedback].
func (c *Cloud) SetFeedback(amount, now, tau float64) {
	for _, l := range c.lines {
		l.feedback.SetTargetAt(clampFeedback(amount+l.fbAdd), now, tau)
	}
}

// SetLineFeedback moves line i toward amount plus its own offset, still
// clamped. The evolution walk uses it to give each line its own drift.
func (c *Cloud) SetLineFeedback(i int, amount, now, tau float64) {
	if i < 0 || i >= len(c.lines) {
		return
	}
	l := c.lines[i]
	l.feedback.SetTargetAt(clampFeedback(amount+l.fbAdd), now, tau)
}

// SetLineModulation sets line i's wobble depth (ms) and rate (Hz), scaled by
// the line's own multipliers.
func (c *Cloud) SetLineModulation(i int, depthMs, rateHz, now, tau float64) {
	if i < 0 || i >= len(c.lines) {
		return
	}
	l := c.lines[i]
	if depthMs >= 0 {
		l.depthMs.SetTargetAt(depthMs*l.depMul, now, tau)
	}
	if rateHz >= 0 {
		l.rateHz.SetTargetAt(rateHz*l.rateMul, now, tau)
	}
}

func (c *Cloud) SetInputFeed(amount, now, tau float64) {
	amount = clamp01(amount)
	for _, l := range c.lines {
		l.feed.SetTargetAt(amount*l.feedMul, now, tau)
	}
}

func (c *Cloud) SetOutputLevel(amount, now, tau float64) {
	amount = clamp01(amount)
	for _, l := range c.lines {
		l.out.SetTargetAt(amount*l.outMul, now, tau)
	}
}

// SetModulationDepth sets the wobble depth in milliseconds.
func (c *Cloud) SetModulationDepth(ms, now, tau float64) {
	if !(ms >= 0) {
		ms = 0
	}
	for _, l := range c.lines {
		l.depthMs.SetTargetAt(ms*l.depMul, now, tau)
	}
}

// SetModulationRate sets the wobble rate in Hz.
func (c *Cloud) SetModulationRate(hz, now, tau float64) {
	if !(hz >= 0) {
		hz = 0
	}
	for _, l := range c.lines {
		l.rateHz.SetTargetAt(hz*l.rateMul, now, tau)
	}
}

// Render processes one control quantum spanning audio times t0..t1. The
// wet output is added into outL/outR.
func (c *Cloud) Render(in, outL, outR []float32, t0, t1 float64) {
	n := len(in)
	for _, l := range c.lines {
		fb, dFb := l.feedback.Span(t0, t1, n)
		feed, dFeed := l.feed.Span(t0, t1, n)
		out, dOut := l.out.Span(t0, t1, n)
		depth, dDepth := l.depthMs.Span(t0, t1, n)
		l.wobble.SetRate(l.rateHz.ValueAt(t0))

		size := len(l.buf)
		msToSamples := c.sampleRate / 1000
		for i, x := range in {
			mod := l.wobble.Sample(c.sampleRate) * depth * msToSamples
			read := float64(l.pos) - (l.delay + mod)
			for read < 0 {
				read += float64(size)
			}
			idx := int(read)
			frac := float32(read - float64(idx))
			if idx >= size {
				idx -= size
			}
			next := idx + 1
			if next >= size {
				next = 0
			}
			delayed := l.buf[idx]*(1-frac) + l.buf[next]*frac

			l.buf[l.pos] = x*float32(feed) + delayed*float32(fb)
			l.pos++
			if l.pos >= size {
				l.pos = 0
			}

			y := delayed * float32(out)
			outL[i] += y * l.gainL
			outR[i] += y * l.gainR

			fb += dFb
			feed += dFeed
			out += dOut
			depth += dDepth
		}
	}
}

// Reset clears every delay buffer.
func (c *Cloud) Reset() {
	for _, l := range c.lines {
		clear(l.buf)
		l.pos = 0
	}
}

func clampFeedback(v float64) float64 {
	if !(v >= 0) {
		return 0
	}
	return min(v, MaxFeedback)
}

func clamp01(v float64) float64 {
	if !(v >= 0) {
		return 0
	}
	return min(v, 1)
}
