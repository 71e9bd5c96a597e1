// Package space is the shared tone and spatial stage: a resonant lowpass in
// front of a dry/convolution-reverb split, a breathing master bus, and the
// master chain that feeds the output device.
package space

import (
	"github.com/cbegin/skydrone-go/internal/effects"
	"github.com/cbegin/skydrone-go/internal/lfo"
	"github.com/cbegin/skydrone-go/internal/param"
)

const (
	// MaxBreathDepth keeps the breathing LFO from ever silencing the mix.
	MaxBreathDepth = 0.6
	// MaxBreathRate bounds the breathing rate in Hz.
	MaxBreathRate = 4.0

	MinCutoff = 20.0
	MaxCutoff = 20000.0
	MinQ      = 0.1
	MaxQ      = 30.0

	// LevelWindow is the number of recent samples OutputLevel averages.
	LevelWindow = 2048
)

// Config describes the static parts of the graph.
type Config struct {
	SampleRate    int
	ReverbSeconds float64
	ReverbDecay   float64
	Seed          uint64
	BlockSize     int
}

// DefaultConfig returns a 4.5 second reverb at 48 kHz.
func DefaultConfig() Config {
	return Config{
		SampleRate:    48000,
		ReverbSeconds: 4.5,
		ReverbDecay:   3.2,
		Seed:          1,
		BlockSize:     effects.DefaultBlockSize,
	}
}

// Processor owns the filter, reverb and master bus for one engine graph.
// Setters are called from the control side; Render runs on the audio
// thread. They share only params and atomics.
type Processor struct {
	sampleRate float64

	filter *effects.Lowpass
	cutoff *param.Param
	q      *param.Param

	reverb *effects.Convolver
	dry    *param.Param
	wet    *param.Param

	breath   lfo.LFO
	lfoRate  *param.Param
	lfoDepth *param.Param
	volume   *param.Param
	fade     *param.Param
	comp     *effects.Compressor
	eq       *effects.EQ5Band
	master   *effects.Chain
	analyzer *effects.Analyzer
}

// New builds the processor and its impulse response.
func New(cfg Config) *Processor {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	irL, irR := effects.SyntheticIR(cfg.SampleRate, cfg.ReverbSeconds, cfg.ReverbDecay, cfg.Seed)
	p := &Processor{
		sampleRate: float64(cfg.SampleRate),
		filter:     effects.NewLowpass(cfg.SampleRate, 2400, 0.9),
		cutoff:     param.New(2400, MinCutoff, MaxCutoff),
		q:          param.New(0.9, MinQ, MaxQ),
		reverb:     effects.NewConvolver(irL, irR, cfg.BlockSize),
		dry:        param.New(0.65, 0, 1),
		wet:        param.New(0.5, 0, 1),
		lfoRate:    param.New(0.08, 0, MaxBreathRate),
		lfoDepth:   param.New(0.1, 0, MaxBreathDepth),
		volume:     param.New(0.7, 0, 1),
		fade:       param.New(0, 0, 1),
		comp:       effects.NewCompressor(cfg.SampleRate, -14, 3, 8, 250, 2),
		eq:         effects.NewEQ5Band(cfg.SampleRate),
		analyzer:   effects.NewAnalyzer(effects.AnalyzerWindow),
	}
	p.breath.Set(1, p.lfoRate.Target(), lfo.WaveSine)
	p.master = effects.NewChain(p.comp, p.eq, effects.NewSoftClip(1, 0.98))
	return p
}

// SetFilter moves cutoff (Hz) and resonance toward new targets.
func (p *Processor) SetFilter(cutoff, q, now, tau float64) {
	p.cutoff.SetTargetAt(cutoff, now, tau)
	p.q.SetTargetAt(q, now, tau)
}

func (p *Processor) SetCutoff(hz, now, tau float64)   { p.cutoff.SetTargetAt(hz, now, tau) }
func (p *Processor) SetResonance(q, now, tau float64) { p.q.SetTargetAt(q, now, tau) }
func (p *Processor) SetWet(v, now, tau float64)       { p.wet.SetTargetAt(v, now, tau) }
func (p *Processor) SetDry(v, now, tau float64)       { p.dry.SetTargetAt(v, now, tau) }
func (p *Processor) SetVolume(v, now, tau float64)    { p.volume.SetTargetAt(v, now, tau) }

// SetBreathing sets the master-bus LFO rate (Hz) and depth. Depth is capped
// at MaxBreathDepth.
func (p *Processor) SetBreathing(rate, depth, now, tau float64) {
	p.lfoRate.SetTargetAt(rate, now, tau)
	p.lfoDepth.SetTargetAt(depth, now, tau)
}

// FadeIn ramps the master fader from silence to unity over dur seconds.
func (p *Processor) FadeIn(now, dur float64) {
	p.fade.SetValue(0, now)
	p.fade.LinearRampTo(1, now, dur)
}

// FadeOut ramps the master fader to silence over dur seconds.
func (p *Processor) FadeOut(now, dur float64) {
	p.fade.LinearRampTo(0, now, dur)
}

// Targets.
func (p *Processor) Cutoff() float64    { return p.cutoff.Target() }
func (p *Processor) Resonance() float64 { return p.q.Target() }
func (p *Processor) Wet() float64       { return p.wet.Target() }
func (p *Processor) Dry() float64       { return p.dry.Target() }
func (p *Processor) LFORate() float64   { return p.lfoRate.Target() }
func (p *Processor) LFODepth() float64  { return p.lfoDepth.Target() }
func (p *Processor) Volume() float64    { return p.volume.Target() }

// CutoffAt reports the cutoff curve at audio time t.
func (p *Processor) CutoffAt(t float64) float64 { return p.cutoff.ValueAt(t) }

// FadeAt reports the master fader at audio time t.
func (p *Processor) FadeAt(t float64) float64 { return p.fade.ValueAt(t) }

// SetEQBand sets a master EQ band gain (linear, 0..4).
func (p *Processor) SetEQBand(band int, gain float32) { p.eq.SetGain(band, gain) }

func (p *Processor) EQBand(band int) float32 { return p.eq.Gain(band) }

// GainReduction reports the master compressor's current gain.
func (p *Processor) GainReduction() float32 { return p.comp.GainReduction() }

// OutputLevel is the RMS of the most recent output.
func (p *Processor) OutputLevel() float64 { return p.analyzer.Level(LevelWindow) }

// ReverbLatency is the convolver's fixed delay in frames.
func (p *Processor) ReverbLatency() int { return p.reverb.BlockSize() }

// Render processes one control quantum. inL/inR carry the voice and grain
// mix; dst receives len(inL) interleaved stereo frames.
func (p *Processor) Render(inL, inR, dst []float32, t0, t1 float64) {
	n := len(inL)
	p.filter.Set(p.cutoff.ValueAt(t0), p.q.ValueAt(t0))
	p.breath.SetRate(p.lfoRate.ValueAt(t0))
	depth := p.lfoDepth.ValueAt(t0)

	dry, dDry := p.dry.Span(t0, t1, n)
	wet, dWet := p.wet.Span(t0, t1, n)
	vol, dVol := p.volume.Span(t0, t1, n)
	fade, dFade := p.fade.Span(t0, t1, n)

	for i := 0; i < n; i++ {
		fl, fr := p.filter.Process(inL[i], inR[i])
		wl, wr := p.reverb.Process((fl + fr) * 0.5)
		l := fl*float32(dry) + wl*float32(wet)
		r := fr*float32(dry) + wr*float32(wet)

		// Breathing swings the bus between 1-depth and 1.
		b := p.breath.Sample(p.sampleRate)
		g := float32((1 - depth/2 + b*depth/2) * vol * fade)
		dst[2*i], dst[2*i+1] = p.master.Process(l*g, r*g)

		dry += dDry
		wet += dWet
		vol += dVol
		fade += dFade
	}
	p.analyzer.Tap(dst[:2*n])
}

// Silence writes silence into dst and feeds it to the level meter, so the
// meter decays once the graph stops producing sound.
func (p *Processor) Silence(dst []float32) {
	clear(dst)
	p.analyzer.Tap(dst)
}

// Reset clears filter, reverb and master-chain state.
func (p *Processor) Reset() {
	p.filter.Reset()
	p.reverb.Reset()
	p.master.Reset()
	p.analyzer.Reset()
}
