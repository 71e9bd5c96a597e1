package effects

import (
	"math"
	"sync/atomic"
)

// Compressor is a stereo-linked peak compressor. Both channels share one
// envelope so the stereo image does not wander while gain is reduced.
type Compressor struct {
	threshold float32
	ratio     float32
	attack    float32 // coefficient
	release   float32 // coefficient
	makeup    float32
	env       float32
	reduction atomic.Uint32 // float32 bits of the last gain, for metering
}

// NewCompressor creates a compressor.
// thresholdDB: threshold in dB (e.g., -18)
// ratio: compression ratio (e.g., 3 for 3:1)
// attackMs: attack time in ms
// releaseMs: release time in ms
// makeupDB: makeup gain in dB
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	sr := float64(sampleRate)
	if ratio < 1 {
		ratio = 1
	}
	c := &Compressor{
		threshold: float32(math.Pow(10, float64(thresholdDB)/20)),
		ratio:     ratio,
		attack:    float32(1.0 - math.Exp(-1.0/(math.Max(float64(attackMs), 0.01)*sr/1000.0))),
		release:   float32(1.0 - math.Exp(-1.0/(math.Max(float64(releaseMs), 0.01)*sr/1000.0))),
		makeup:    float32(math.Pow(10, float64(makeupDB)/20)),
	}
	c.reduction.Store(math.Float32bits(1))
	return c
}

func (c *Compressor) Process(l, r float32) (float32, float32) {
	level := float32(math.Max(math.Abs(float64(l)), math.Abs(float64(r))))
	if level > c.env {
		c.env += c.attack * (level - c.env)
	} else {
		c.env += c.release * (level - c.env)
	}
	g := c.computeGain(c.env)
	c.reduction.Store(math.Float32bits(g))
	g *= c.makeup
	return l * g, r * g
}

func (c *Compressor) computeGain(env float32) float32 {
	if env <= c.threshold || c.threshold <= 0 {
		return 1.0
	}
	over := env / c.threshold
	return float32(math.Pow(float64(over), float64(1.0/c.ratio-1)))
}

// GainReduction returns the most recent linear gain applied before makeup
// (1 means no reduction). Safe to call from any goroutine.
func (c *Compressor) GainReduction() float32 {
	return math.Float32frombits(c.reduction.Load())
}

func (c *Compressor) Reset() {
	c.env = 0
	c.reduction.Store(math.Float32bits(1))
}
