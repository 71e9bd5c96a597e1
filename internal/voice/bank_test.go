package voice

import (
	"math"
	"testing"
)

const testRate = 48000

func TestVariantVoiceCounts(t *testing.T) {
	if n := VariantCompact.Voices(); n != 4 {
		t.Fatalf("compact voices = %d, want 4", n)
	}
	if n := VariantRich.Voices(); n != 9 {
		t.Fatalf("rich voices = %d, want 9", n)
	}
	if v, err := ParseVariant(" Rich "); err != nil || v != VariantRich {
		t.Fatalf("ParseVariant(rich) = %v, %v", v, err)
	}
	if v, err := ParseVariant("bogus"); err == nil || v != VariantCompact {
		t.Fatalf("ParseVariant(bogus) = %v, %v", v, err)
	}
}

func TestRootVoiceAlwaysPresent(t *testing.T) {
	for _, n := range []int{4, 9} {
		for z := 0.0; z <= 1.0; z += 0.01 {
			if p := Presence(0, n, z); p != 1 {
				t.Fatalf("n=%d zoom=%.2f: voice 0 presence %v", n, z, p)
			}
		}
	}
}

func TestPresenceRampsOverWindow(t *testing.T) {
	n := 4
	for i := 1; i < n; i++ {
		th := Threshold(i, n)
		if p := Presence(i, n, th); p != 0 {
			t.Fatalf("voice %d at threshold: presence %v, want 0", i, p)
		}
		if p := Presence(i, n, th+PresenceWindow/2); math.Abs(p-0.5) > 1e-9 {
			t.Fatalf("voice %d mid-window: presence %v, want 0.5", i, p)
		}
		if p := Presence(i, n, th+PresenceWindow); math.Abs(p-1) > 1e-9 {
			t.Fatalf("voice %d past window: presence %v, want 1", i, p)
		}
	}
	if p := Presence(n-1, n, 1); p != 1 {
		t.Fatalf("top voice at zoom 1: presence %v", p)
	}
	if p := Presence(2, n, 7); p != 1 {
		t.Fatalf("zoom above 1 should clamp, got presence %v", p)
	}
}

func TestVoiceGainClampsFactors(t *testing.T) {
	if g := VoiceGain(2, 2, 2, 2); g != 1 {
		t.Fatalf("expected clamped product 1, got %v", g)
	}
	if g := VoiceGain(math.NaN(), 1, 1, 1); g != 0 {
		t.Fatalf("expected NaN factor to zero the gain, got %v", g)
	}
	if g := VoiceGain(0.5, 0.5, 0.4, 1); math.Abs(g-0.1) > 1e-12 {
		t.Fatalf("expected 0.1, got %v", g)
	}
}

func TestApplyZoomPresenceIsIdempotent(t *testing.T) {
	b := NewBank(testRate, VariantRich, 0, "MAJ")
	b.ApplyDensityWeights([]float64{1, 0.8, 0.6, 0.9, 0.7, 0.5, 0.4, 0.3, 0.2})
	b.ApplyZoomPresence(0.63, 0, 0.2)
	first := b.GainTargets()
	b.ApplyZoomPresence(0.63, 0.01, 0.2)
	second := b.GainTargets()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("voice %d: %v then %v", i, first[i], second[i])
		}
	}
}

func TestDensityWeightsAreStagedOnly(t *testing.T) {
	b := NewBank(testRate, VariantCompact, 0, "MAJ")
	b.ApplyZoomPresence(1, 0, 0.1)
	before := b.GainTargets()
	b.ApplyDensityWeights([]float64{1, 0, 0, 0})
	after := b.GainTargets()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("density write reached voice %d gain directly", i)
		}
	}
	b.ApplyZoomPresence(1, 0, 0.1)
	g := b.GainTargets()
	if g[0] == 0 || g[1] != 0 || g[3] != 0 {
		t.Fatalf("expected density to take effect on zoom application, got %v", g)
	}
}

func TestUnfoldScalesTopVoicesOnly(t *testing.T) {
	b := NewBank(testRate, VariantRich, 0, "MAJ")
	b.ApplyZoomPresence(1, 0, 0.1)
	full := b.GainTargets()
	b.SetUnfold(0.5)
	b.ApplyZoomPresence(1, 0, 0.1)
	half := b.GainTargets()
	n := len(full)
	for i := 0; i < n-2; i++ {
		if full[i] != half[i] {
			t.Fatalf("voice %d changed with unfold", i)
		}
	}
	for i := n - 2; i < n; i++ {
		if math.Abs(half[i]-full[i]*0.5) > 1e-12 {
			t.Fatalf("voice %d: unfold not applied (%v vs %v)", i, half[i], full[i])
		}
	}
}

func TestChordRoundTrip(t *testing.T) {
	b := NewBank(testRate, VariantRich, 0, "MAJ")
	b.Retune(0, "MAJ", 0)
	want := freqTargets(b)
	b.Retune(0, "MIN", 1)
	if freqTargets(b)[3] == want[3] {
		t.Fatal("MIN should move the third")
	}
	b.Retune(0, "MAJ", 2)
	got := freqTargets(b)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("voice %d: %v after round trip, want %v", i, got[i], want[i])
		}
	}
}

func TestUnknownModeFallsBack(t *testing.T) {
	if m := NormalizeMode("phrygian-ish"); m != DefaultMode {
		t.Fatalf("expected %s, got %s", DefaultMode, m)
	}
	if m := NormalizeMode(" min "); m != "MIN" {
		t.Fatalf("expected MIN, got %s", m)
	}
	a := ChordFrequencies(0, "nope", 4)
	b := ChordFrequencies(0, DefaultMode, 4)
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("unknown mode did not resolve to the default table")
		}
	}
}

func TestRetuneGlides(t *testing.T) {
	b := NewBank(testRate, VariantCompact, 0, "MAJ")
	v := b.Voices()[1]
	start := v.freq.ValueAt(0)
	b.Retune(2, "MAJ", 0)
	mid := v.freq.ValueAt(GlideSeconds / 2)
	end := v.freq.ValueAt(GlideSeconds)
	if !(mid > start && mid < end) {
		t.Fatalf("expected glide, got start=%v mid=%v end=%v", start, mid, end)
	}
	if math.Abs(end-start*math.Pow(2, 2.0/12)) > 1e-9 {
		t.Fatalf("expected a whole-tone shift, got %v -> %v", start, end)
	}
}

func TestRootOffsetClamped(t *testing.T) {
	hi := ChordFrequencies(40, "MAJ", 1)[0]
	if math.Abs(hi-RootFrequency*2) > 1e-9 {
		t.Fatalf("expected root clamped to +12, got %v", hi)
	}
}

func TestRenderProducesSignal(t *testing.T) {
	b := NewBank(testRate, VariantRich, 0, "MAJ")
	b.ApplyZoomPresence(1, 0, 0)
	l := make([]float32, 128)
	r := make([]float32, 128)
	var peak float32
	for q := 0; q < 40; q++ {
		clear(l)
		clear(r)
		t0 := float64(q*128) / testRate
		b.Render(l, r, t0, t0+128.0/testRate)
		for i := range l {
			if l[i] > peak {
				peak = l[i]
			}
		}
	}
	if peak <= 0.01 {
		t.Fatalf("expected audible output, peak %v", peak)
	}
}

func TestCompactIgnoresDrift(t *testing.T) {
	b := NewBank(testRate, VariantCompact, 0, "MAJ")
	b.SetDriftDepth(10, 0, 0)
	for _, v := range b.Voices() {
		if v.DriftDepth() != 0 {
			t.Fatal("compact voices should not drift")
		}
	}
	r := NewBank(testRate, VariantRich, 0, "MAJ")
	r.SetDriftDepth(100, 0, 0)
	for _, v := range r.Voices() {
		if v.DriftDepth() > MaxDriftCents {
			t.Fatalf("drift depth %v above bound", v.DriftDepth())
		}
	}
}

func freqTargets(b *Bank) []float64 {
	out := make([]float64, len(b.Voices()))
	for i, v := range b.Voices() {
		out[i] = v.Frequency()
	}
	return out
}
