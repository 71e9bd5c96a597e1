package mapping

import (
	"math"
	"testing"

	"github.com/cbegin/skydrone-go/internal/observation"
)

func checkBounds(t *testing.T, p Parameters) {
	t.Helper()
	for name, v := range map[string]float64{
		"cutoff":  p.FilterCutoffHz,
		"wet":     p.ReverbWetness,
		"rate":    p.ModulationRateHz,
		"density": p.VoiceDensity,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("%s is not finite: %v", name, v)
		}
	}
	if p.FilterCutoffHz < MinCutoffHz || p.FilterCutoffHz > MaxCutoffHz {
		t.Errorf("cutoff %f out of [%f,%f]", p.FilterCutoffHz, MinCutoffHz, MaxCutoffHz)
	}
	if p.ReverbWetness < 0 || p.ReverbWetness > 1 {
		t.Errorf("wetness %f out of [0,1]", p.ReverbWetness)
	}
	if p.ModulationRateHz <= 0 {
		t.Errorf("modulation rate %f must be > 0", p.ModulationRateHz)
	}
	if p.HarmonicActiveCount < 1 || p.HarmonicActiveCount > MaxHarmonics {
		t.Errorf("harmonics %d out of [1,%d]", p.HarmonicActiveCount, MaxHarmonics)
	}
	if p.VoiceDensity < 0 || p.VoiceDensity > 1 {
		t.Errorf("density %f out of [0,1]", p.VoiceDensity)
	}
}

func TestCutoffMonotonicInDeclination(t *testing.T) {
	prev := DecToFilterCutoff(-90)
	if prev != MinCutoffHz {
		t.Fatalf("cutoff at -90 = %f, want %f", prev, MinCutoffHz)
	}
	for dec := -90.0; dec <= 90.0; dec += 0.25 {
		got := DecToFilterCutoff(dec)
		if got < prev {
			t.Fatalf("cutoff decreased at dec=%f: %f < %f", dec, got, prev)
		}
		if got < MinCutoffHz || got > MaxCutoffHz {
			t.Fatalf("cutoff %f out of bounds at dec=%f", got, dec)
		}
		prev = got
	}
	if got := DecToFilterCutoff(90); math.Abs(got-MaxCutoffHz) > 1e-9 {
		t.Fatalf("cutoff at +90 = %f, want %f", got, MaxCutoffHz)
	}
}

func TestMalformedSnapshotsStayInBounds(t *testing.T) {
	cases := []observation.Snapshot{
		{RA: math.NaN(), Dec: math.NaN()},
		{RA: math.Inf(1), Dec: math.Inf(-1), Instrument: ""},
		{RA: -720.5, Dec: 400, Filter: "F0000W", TargetType: ""},
		{Filter: "CLEAR", Instrument: "   ", TargetType: "???"},
		{Filter: "F99999999999W", Instrument: "nircam", TargetType: "STAR"},
	}
	for _, s := range cases {
		checkBounds(t, Map(s))
	}
}

func TestDefaultSnapshotScenario(t *testing.T) {
	s := observation.Default()
	p := Map(s)
	checkBounds(t, p)
	if p.FilterCutoffHz != DecToFilterCutoff(-73.45) {
		t.Errorf("cutoff = %f, want %f", p.FilterCutoffHz, DecToFilterCutoff(-73.45))
	}
	if p.HarmonicActiveCount != instrumentHarmonics["NIRCAM"] {
		t.Errorf("harmonics = %d, want NIRCam value %d", p.HarmonicActiveCount, instrumentHarmonics["NIRCAM"])
	}
	if p.VoiceDensity != 0.9 {
		t.Errorf("density = %f, want cluster value 0.9", p.VoiceDensity)
	}
}

func TestUnknownInstrumentUsesDefault(t *testing.T) {
	if got := InstrumentHarmonics("XYZ-9"); got != DefaultHarmonics {
		t.Fatalf("harmonics = %d, want %d", got, DefaultHarmonics)
	}
	if got := InstrumentHarmonics("MIRI/IMAGE"); got != 7 {
		t.Fatalf("MIRI/IMAGE harmonics = %d, want 7", got)
	}
}

func TestReverbWetnessFromFilter(t *testing.T) {
	if got := FilterToReverbWetness("CLEAR"); got != DefaultWetness {
		t.Fatalf("no digits: %f, want %f", got, DefaultWetness)
	}
	short := FilterToReverbWetness("F090W")
	mid := FilterToReverbWetness("F277W")
	long := FilterToReverbWetness("F2100W")
	if !(short < mid && mid < long) {
		t.Fatalf("wetness not increasing with wavelength: %f %f %f", short, mid, long)
	}
	if long > MaxWetness || short < MinWetness {
		t.Fatalf("wetness out of safe range: %f %f", short, long)
	}
}

func TestTargetTypeFirstKeywordWins(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"galaxy cluster", 0.9},
		{"Galaxy", 0.7},
		{"STAR; NEBULA", 0.8},
		{"exoplanet", 0.35},
		{"", DefaultDensity},
	}
	for _, tt := range tests {
		if got := TargetTypeDensity(tt.in); got != tt.want {
			t.Errorf("TargetTypeDensity(%q) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func TestWeightsKeepRootVoice(t *testing.T) {
	p := Map(observation.Default())
	for _, n := range []int{4, 9} {
		dw := DensityWeights(p, n)
		cw := CoordinateWeights(200, 10, n)
		if len(dw) != n || len(cw) != n {
			t.Fatalf("weights length mismatch for n=%d", n)
		}
		if dw[0] != 1 || cw[0] != 1 {
			t.Fatalf("root voice weight must be 1: %f %f", dw[0], cw[0])
		}
		for i := range cw {
			if cw[i] < 0 || cw[i] > 1 || dw[i] < 0 || dw[i] > 1 {
				t.Fatalf("weight out of range at %d: %f %f", i, dw[i], cw[i])
			}
		}
	}
	if DensityWeights(p, 0) != nil {
		t.Fatalf("zero voices should yield nil")
	}
}
