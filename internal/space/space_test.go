package space

import (
	"math"
	"testing"
)

const quantum = 128

func testProcessor() *Processor {
	cfg := DefaultConfig()
	cfg.ReverbSeconds = 0.25
	return New(cfg)
}

// render pushes a steady tone through p for the given number of quanta and
// returns the output peak.
func render(p *Processor, startQuantum, quanta int) float32 {
	sr := p.sampleRate
	inL := make([]float32, quantum)
	inR := make([]float32, quantum)
	dst := make([]float32, 2*quantum)
	var peak float32
	for q := startQuantum; q < startQuantum+quanta; q++ {
		for i := range inL {
			frame := q*quantum + i
			v := float32(0.3 * math.Sin(2*math.Pi*220*float64(frame)/sr))
			inL[i], inR[i] = v, v
		}
		t0 := float64(q*quantum) / sr
		t1 := float64((q+1)*quantum) / sr
		p.Render(inL, inR, dst, t0, t1)
		for _, v := range dst {
			if v < 0 {
				v = -v
			}
			peak = max(peak, v)
		}
	}
	return peak
}

func TestSilentUntilFadeIn(t *testing.T) {
	p := testProcessor()
	if peak := render(p, 0, 20); peak != 0 {
		t.Fatalf("expected silence before fade in, peak %v", peak)
	}
	if p.OutputLevel() != 0 {
		t.Fatalf("expected zero level, got %v", p.OutputLevel())
	}
}

func TestFadeInReachesSignal(t *testing.T) {
	p := testProcessor()
	p.FadeIn(0, 0.1)
	if peak := render(p, 0, 100); peak < 0.05 {
		t.Fatalf("expected audible output after fade in, peak %v", peak)
	}
	if p.OutputLevel() <= 0 {
		t.Fatal("expected positive output level")
	}
}

func TestFadeOutReachesSilence(t *testing.T) {
	p := testProcessor()
	p.FadeIn(0, 0.01)
	render(p, 0, 50)
	now := float64(50*quantum) / p.sampleRate
	p.FadeOut(now, 0.35)
	if f := p.FadeAt(now + 0.35); f != 0 {
		t.Fatalf("fader at end of fade out = %v", f)
	}
}

func TestOutputStaysBounded(t *testing.T) {
	p := testProcessor()
	p.SetVolume(1, 0, 0)
	p.SetWet(1, 0, 0)
	p.SetDry(1, 0, 0)
	p.SetFilter(8000, 25, 0, 0)
	p.FadeIn(0, 0.001)
	if peak := render(p, 0, 200); peak > 0.98 {
		t.Fatalf("soft clip ceiling exceeded: %v", peak)
	}
}

func TestBreathingDepthCapped(t *testing.T) {
	p := testProcessor()
	p.SetBreathing(1, 5, 0, 0)
	if d := p.LFODepth(); d != MaxBreathDepth {
		t.Fatalf("depth = %v, want %v", d, MaxBreathDepth)
	}
	if r := p.LFORate(); r != 1 {
		t.Fatalf("rate = %v, want 1", r)
	}
}

func TestSettersSmooth(t *testing.T) {
	p := testProcessor()
	start := p.CutoffAt(0)
	p.SetCutoff(9000, 0, 0.5)
	mid := p.CutoffAt(0.5)
	if !(mid > start && mid < 9000) {
		t.Fatalf("expected smoothed cutoff, start %v mid %v", start, mid)
	}
	if p.Cutoff() != 9000 {
		t.Fatalf("target = %v", p.Cutoff())
	}
}

func TestEQPassthrough(t *testing.T) {
	p := testProcessor()
	p.SetEQBand(2, 2)
	if g := p.EQBand(2); g != 2 {
		t.Fatalf("band gain %v", g)
	}
	p.SetEQBand(9, 2)
	if g := p.EQBand(9); g != 1 {
		t.Fatalf("unknown band should read unity, got %v", g)
	}
}
