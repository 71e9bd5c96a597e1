package macro

import (
	"math"
	"testing"

	"github.com/cbegin/skydrone-go/internal/grain"
	"github.com/cbegin/skydrone-go/internal/space"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.4, 0.4},
		{1, 1},
		{7, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOutOfRangeKnobsMatchEndpoints(t *testing.T) {
	if Space(5) != Space(1) || Space(-5) != Space(0) {
		t.Fatal("Space did not clamp its input")
	}
	if Colour(2) != Colour(1) || Scatter(-1) != Scatter(0) || Pulse(9) != Pulse(1) {
		t.Fatal("macro did not clamp its input")
	}
	if Zoom(math.NaN()) != Zoom(0) {
		t.Fatal("Zoom did not clamp NaN")
	}
}

func TestSpaceMovesDryAndWetOppositely(t *testing.T) {
	prev := Space(0)
	for v := 0.05; v <= 1.0001; v += 0.05 {
		cur := Space(v)
		if !(cur.Wet > prev.Wet && cur.Dry < prev.Dry) {
			t.Fatalf("v=%.2f: wet %v->%v dry %v->%v", v, prev.Wet, cur.Wet, prev.Dry, cur.Dry)
		}
		prev = cur
	}
}

func TestColourResonanceRisesFasterThanLinear(t *testing.T) {
	lo, mid, hi := Colour(0), Colour(0.5), Colour(1)
	if mid.Q-lo.Q >= hi.Q-mid.Q {
		t.Fatalf("expected convex resonance curve, got %v %v %v", lo.Q, mid.Q, hi.Q)
	}
	if math.Abs(lo.Cutoff-180) > 1e-9 || math.Abs(hi.Cutoff-9000) > 1e-6 {
		t.Fatalf("cutoff endpoints %v %v", lo.Cutoff, hi.Cutoff)
	}
	if r := mid.Cutoff / lo.Cutoff; math.Abs(r-hi.Cutoff/mid.Cutoff) > 1e-9 {
		t.Fatal("expected exponential cutoff mapping")
	}
}

func TestPulseDepthBounded(t *testing.T) {
	for v := 0.0; v <= 1; v += 0.1 {
		for z := 0.0; z <= 1; z += 0.1 {
			if d := CombinedBreathDepth(v, z); d > space.MaxBreathDepth || d <= 0 {
				t.Fatalf("pulse %.1f zoom %.1f: depth %v", v, z, d)
			}
		}
	}
}

func TestCombinedFeedbackCeiling(t *testing.T) {
	worst := CombinedFeedback(Space(1).GrainFeedback, Scatter(1).GrainFeedback, 0.5, Zoom(1).FeedbackTrim)
	if worst > grain.MaxFeedback {
		t.Fatalf("feedback %v above ceiling", worst)
	}
	if worst != grain.MaxFeedback {
		t.Fatalf("expected saturation at ceiling, got %v", worst)
	}
	if f := CombinedFeedback(math.NaN(), 0, 0, 0); f != 0 {
		t.Fatalf("NaN should give 0, got %v", f)
	}
}

func TestNeutralColourKeepsDataCutoff(t *testing.T) {
	for _, hz := range []float64{320, 1200, 7200} {
		if got := CombinedCutoff(hz, 0.5, 1); math.Abs(got-hz) > 1e-6 {
			t.Fatalf("CombinedCutoff(%v, 0.5, 1) = %v", hz, got)
		}
	}
	if CombinedCutoff(1200, 1, 1) <= CombinedCutoff(1200, 0, 1) {
		t.Fatal("brighter colour should raise cutoff")
	}
	if got := CombinedCutoff(7200, 1, 10); got > 18000 {
		t.Fatalf("cutoff not clamped: %v", got)
	}
}

func TestCombinedWetNeutralData(t *testing.T) {
	if got, want := CombinedWet(0.3, 0.5, 0), Space(0.3).Wet; math.Abs(got-want) > 1e-12 {
		t.Fatalf("got %v want %v", got, want)
	}
	if CombinedWet(1, 1, 1) != 1 {
		t.Fatal("wet should clamp to 1")
	}
}

func TestValuesClamped(t *testing.T) {
	v := Values{Volume: 3, Space: -1, Zoom: math.NaN(), Root: 99, Mode: "weird"}.Clamped()
	if v.Volume != 1 || v.Space != 0 || v.Zoom != 0 || v.Root != 12 || v.Mode != "MAJ" {
		t.Fatalf("unexpected clamped values %+v", v)
	}
}
