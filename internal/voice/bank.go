// Package voice implements the drone voice bank: a fixed set of sustained
// chord tones whose gains are gated by zoom presence and shaped by data
// driven density weights.
package voice

import (
	"fmt"
	"math"
	"strings"

	"github.com/cbegin/skydrone-go/internal/lfo"
	"github.com/cbegin/skydrone-go/internal/param"
	"github.com/cbegin/skydrone-go/internal/wavetable"
)

// Variant selects the bank size.
type Variant int

const (
	// VariantCompact has four voices and no pitch drift.
	VariantCompact Variant = iota
	// VariantRich has nine voices, each with a slow pitch-drift modulator.
	VariantRich
)

func (v Variant) String() string {
	if v == VariantRich {
		return "rich"
	}
	return "compact"
}

// Voices returns the voice count for the variant.
func (v Variant) Voices() int {
	if v == VariantRich {
		return 9
	}
	return 4
}

// ParseVariant accepts "compact" or "rich" in any case.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compact":
		return VariantCompact, nil
	case "rich":
		return VariantRich, nil
	}
	return VariantCompact, fmt.Errorf("unknown variant %q (expected compact|rich)", s)
}

const (
	// GlideSeconds is the retune glide length.
	GlideSeconds = 1.8
	// PresenceWindow is the zoom span over which a voice fades in.
	PresenceWindow = 0.12
	// MaxDriftCents bounds pitch drift depth.
	MaxDriftCents = 25.0
)

// Voice is one persistent oscillator + gain pair.
type Voice struct {
	osc   *wavetable.Osc
	freq  *param.Param
	gain  *param.Param
	panL  float32
	panR  float32
	drift *lfo.LFO // nil in the compact variant
	cents *param.Param

	baseMix float64
	density float64
}

// Frequency returns the target frequency.
func (v *Voice) Frequency() float64 { return v.freq.Target() }

// Gain returns the target gain.
func (v *Voice) Gain() float64 { return v.gain.Target() }

// DriftDepth returns the target drift depth in cents.
func (v *Voice) DriftDepth() float64 { return v.cents.Target() }

// Bank owns every voice for the life of one engine graph. Control methods
// are not safe for concurrent use with each other; Render may run
// concurrently with them.
type Bank struct {
	sampleRate float64
	variant    Variant
	voices     []*Voice
	root       int
	mode       string
	unfold     float64
}

// NewBank builds the voices tuned to root/mode with every gain at zero.
func NewBank(sampleRate int, variant Variant, root int, mode string) *Bank {
	n := variant.Voices()
	b := &Bank{
		sampleRate: float64(sampleRate),
		variant:    variant,
		voices:     make([]*Voice, n),
		root:       ClampRoot(root),
		mode:       NormalizeMode(mode),
		unfold:     1,
	}
	freqs := ChordFrequencies(b.root, b.mode, n)
	for i := range b.voices {
		pan := 0.0
		if i > 0 {
			pan = 0.6 * float64(i) / float64(n-1)
			if i%2 == 1 {
				pan = -pan
			}
		}
		v := &Voice{
			osc:     wavetable.NewOsc(tableFor(i, n), float64(i)*0.137),
			freq:    param.New(freqs[i], 10, 20000),
			gain:    param.New(0, 0, 1),
			panL:    float32(math.Sqrt((1 - pan) / 2)),
			panR:    float32(math.Sqrt((1 + pan) / 2)),
			cents:   param.New(0, 0, MaxDriftCents),
			baseMix: 0.3 / (1 + 0.25*float64(i)),
			density: 1,
		}
		if variant == VariantRich {
			v.drift = &lfo.LFO{}
			v.drift.Set(1, 0.031+0.0097*float64(i), lfo.WaveSine)
			v.drift.SetPhase(float64(i) / float64(n))
			v.cents.SetValue(4, 0)
		}
		b.voices[i] = v
	}
	return b
}

// Low voices are the brightest tables; the top voices are near-sines so the
// "air" layer stays soft.
func tableFor(i, n int) wavetable.Table {
	switch {
	case i == 0:
		return wavetable.SoftSaw(8)
	case i < n/2:
		return wavetable.Hollow(7)
	case i < n-2:
		return wavetable.SoftSaw(4)
	default:
		return wavetable.Sine()
	}
}

func (b *Bank) Variant() Variant { return b.variant }
func (b *Bank) Voices() []*Voice { return b.voices }
func (b *Bank) Root() int        { return b.root }
func (b *Bank) Mode() string     { return b.mode }

// Retune glides every voice to the chord for root and mode.
func (b *Bank) Retune(root int, mode string, now float64) {
	b.root = ClampRoot(root)
	b.mode = NormalizeMode(mode)
	for i, f := range ChordFrequencies(b.root, b.mode, len(b.voices)) {
		b.voices[i].freq.LinearRampTo(f, now, GlideSeconds)
	}
}

// ApplyDensityWeights stages per-voice multipliers. They reach the voice
// gains at the next ApplyZoomPresence. Missing entries count as 1.
func (b *Bank) ApplyDensityWeights(weights []float64) {
	for i, v := range b.voices {
		w := 1.0
		if i < len(weights) {
			w = unit(weights[i])
		}
		v.density = w
	}
}

// Densities returns the staged density weights.
func (b *Bank) Densities() []float64 {
	out := make([]float64, len(b.voices))
	for i, v := range b.voices {
		out[i] = v.density
	}
	return out
}

// SetUnfold stages the bloom factor for the topmost voices.
func (b *Bank) SetUnfold(u float64) { b.unfold = unit(u) }

// unfoldVoices is how many top voices the unfold factor scales.
func (b *Bank) unfoldVoices() int {
	if b.variant == VariantRich {
		return 2
	}
	return 1
}

// ApplyZoomPresence recomputes every voice gain from zoom presence and the
// staged density, mix and unfold factors, approaching the result with time
// constant tau. It is the only writer of voice gain.
func (b *Bank) ApplyZoomPresence(zoom, now, tau float64) {
	n := len(b.voices)
	top := n - b.unfoldVoices()
	for i, v := range b.voices {
		unfold := 1.0
		if i >= top && i > 0 {
			unfold = b.unfold
		}
		g := VoiceGain(Presence(i, n, zoom), v.density, v.baseMix, unfold)
		v.gain.SetTargetAt(g, now, tau)
	}
}

// GainTargets returns the current gain target of every voice.
func (b *Bank) GainTargets() []float64 {
	out := make([]float64, len(b.voices))
	for i, v := range b.voices {
		out[i] = v.gain.Target()
	}
	return out
}

// FadeOut ramps every voice gain to zero over dur seconds.
func (b *Bank) FadeOut(now, dur float64) {
	for _, v := range b.voices {
		v.gain.LinearRampTo(0, now, dur)
	}
}

// SetDriftDepth moves every drift modulator toward cents. The compact
// variant has no drift and ignores it.
func (b *Bank) SetDriftDepth(cents, now, tau float64) {
	if b.variant != VariantRich {
		return
	}
	for i, v := range b.voices {
		// Upper voices drift a little more than the root.
		v.cents.SetTargetAt(cents*(0.6+0.4*float64(i)/float64(len(b.voices)-1)), now, tau)
	}
}

// Render adds one control quantum of the bank into outL/outR.
func (b *Bank) Render(outL, outR []float32, t0, t1 float64) {
	n := len(outL)
	for _, v := range b.voices {
		f, df := v.freq.Span(t0, t1, n)
		g, dg := v.gain.Span(t0, t1, n)
		if g == 0 && dg == 0 {
			// Keep the phase moving so a voice fading back in stays coherent.
			for range n {
				v.osc.Next(f, b.sampleRate)
				f += df
			}
			continue
		}
		ratio := 1.0
		if v.drift != nil {
			v.drift.SetDepth(v.cents.ValueAt(t0))
			ratio = math.Exp2(v.drift.Advance(n, b.sampleRate) / 1200)
		}
		for i := range n {
			s := float32(v.osc.Next(f*ratio, b.sampleRate) * g)
			outL[i] += s * v.panL
			outR[i] += s * v.panR
			f += df
			g += dg
		}
	}
}

// Presence is the zoom gate for voice i of n. Voice 0 is always present;
// voice i fades in linearly over PresenceWindow above its threshold.
func Presence(i, n int, zoom float64) float64 {
	if i <= 0 || n <= 1 {
		return 1
	}
	return unit((unit(zoom) - Threshold(i, n)) / PresenceWindow)
}

// Threshold is the zoom value at which voice i of n starts to fade in.
// Thresholds are evenly spaced so the top voice is fully present at zoom 1.
func Threshold(i, n int) float64 {
	if i <= 0 || n <= 1 {
		return 0
	}
	return float64(i) / float64(n) * (1 - PresenceWindow)
}

// VoiceGain combines the four gain factors. Every factor is clamped to
// [0, 1] first, so the result is too.
func VoiceGain(presence, density, baseMix, unfold float64) float64 {
	return unit(presence) * unit(density) * unit(baseMix) * unit(unfold)
}

func unit(v float64) float64 {
	if !(v >= 0) {
		return 0
	}
	return min(v, 1)
}
