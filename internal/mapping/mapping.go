// Package mapping turns observation metadata into synthesis parameters.
// Every function here is pure and total: malformed input resolves to a
// documented default instead of an error, and no output is ever NaN.
package mapping

import (
	"math"
	"strings"

	"github.com/cbegin/skydrone-go/internal/observation"
)

const (
	MinCutoffHz = 320.0
	MaxCutoffHz = 7200.0

	MinWetness     = 0.18
	MaxWetness     = 0.82
	DefaultWetness = 0.5

	MinModulationHz = 0.04
	MaxModulationHz = 0.32

	DefaultHarmonics = 3
	MaxHarmonics     = 9

	DefaultDensity = 0.5
)

// wavelength span (microns) covered by the reverb mapping
const (
	minMicrons = 0.6
	maxMicrons = 28.0
)

// Parameters is the derived projection of one snapshot.
type Parameters struct {
	FilterCutoffHz      float64
	ReverbWetness       float64
	ModulationRateHz    float64
	HarmonicActiveCount int
	VoiceDensity        float64
}

// Map projects a snapshot onto synthesis parameters.
func Map(s observation.Snapshot) Parameters {
	return Parameters{
		FilterCutoffHz:      DecToFilterCutoff(s.Dec),
		ReverbWetness:       FilterToReverbWetness(s.Filter),
		ModulationRateHz:    RAToModulationRate(s.RA),
		HarmonicActiveCount: InstrumentHarmonics(s.Instrument),
		VoiceDensity:        TargetTypeDensity(s.TargetType),
	}
}

// DecToFilterCutoff maps declination exponentially onto the cutoff range:
// the southern pole is darkest, the northern pole brightest.
func DecToFilterCutoff(dec float64) float64 {
	if !finite(dec) {
		dec = 0
	}
	n := clamp((dec+90)/180, 0, 1)
	return clamp(MinCutoffHz*math.Pow(MaxCutoffHz/MinCutoffHz, n), MinCutoffHz, MaxCutoffHz)
}

// FilterToReverbWetness reads the wavelength digits embedded in a filter
// name (F277W is 2.77 microns) and maps longer wavelengths to wetter reverb.
func FilterToReverbWetness(filter string) float64 {
	microns, ok := filterMicrons(filter)
	if !ok {
		return DefaultWetness
	}
	n := math.Log(microns/minMicrons) / math.Log(maxMicrons/minMicrons)
	return MinWetness + (MaxWetness-MinWetness)*clamp(n, 0, 1)
}

func filterMicrons(filter string) (float64, bool) {
	start := strings.IndexAny(filter, "0123456789")
	if start < 0 {
		return 0, false
	}
	var v int
	digits := 0
	for i := start; i < len(filter) && digits < 6; i++ {
		c := filter[i]
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + int(c-'0')
		digits++
	}
	if v <= 0 {
		return 0, false
	}
	return float64(v) / 100, true
}

var instrumentHarmonics = map[string]int{
	"NIRCAM":  5,
	"NIRSPEC": 6,
	"MIRI":    7,
	"NIRISS":  4,
	"FGS":     2,
}

// InstrumentHarmonics returns how many chord voices an instrument opens up.
// Unknown instruments get DefaultHarmonics.
func InstrumentHarmonics(instrument string) int {
	key := strings.ToUpper(strings.TrimSpace(instrument))
	// upstream sometimes reports "NIRCAM/IMAGE"
	if i := strings.IndexAny(key, "/ "); i > 0 {
		key = key[:i]
	}
	if n, ok := instrumentHarmonics[key]; ok {
		return n
	}
	return DefaultHarmonics
}

type densityRule struct {
	keyword string
	density float64
}

// Order matters: "galaxy cluster" must resolve to cluster.
var densityRules = []densityRule{
	{"cluster", 0.9},
	{"nebula", 0.8},
	{"galaxy", 0.7},
	{"star", 0.45},
	{"planet", 0.35},
	{"comet", 0.3},
	{"calibration", 0.2},
}

// TargetTypeDensity resolves a target type to a density scalar; the first
// keyword contained in the type wins.
func TargetTypeDensity(targetType string) float64 {
	lower := strings.ToLower(targetType)
	for _, r := range densityRules {
		if strings.Contains(lower, r.keyword) {
			return r.density
		}
	}
	return DefaultDensity
}

// RAToModulationRate maps right ascension onto the slow modulation range.
func RAToModulationRate(ra float64) float64 {
	n := wrapDegrees(ra) / 360
	return MinModulationHz + (MaxModulationHz-MinModulationHz)*n
}

// DensityWeights spreads mapped parameters over n voices. Voices inside the
// instrument's harmonic count follow the density; the rest stay faint.
// Voice 0 is always 1.
func DensityWeights(p Parameters, n int) []float64 {
	if n <= 0 {
		return nil
	}
	density := p.VoiceDensity
	if !finite(density) {
		density = DefaultDensity
	}
	density = clamp(density, 0, 1)
	active := p.HarmonicActiveCount
	if active < 1 {
		active = 1
	}
	w := make([]float64, n)
	w[0] = 1
	for i := 1; i < n; i++ {
		if i < active {
			w[i] = 0.55 + 0.45*density
		} else {
			w[i] = 0.1 + 0.3*density
		}
	}
	return w
}

// CoordinateWeights derives per-voice weights from an aim position: the
// right ascension rotates a bright spot around the chord, and declination
// lifts the whole chord toward the north.
func CoordinateWeights(ra, dec float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if !finite(dec) {
		dec = 0
	}
	phase := wrapDegrees(ra) / 360 * 2 * math.Pi
	lift := 0.6 + 0.4*clamp((dec+90)/180, 0, 1)
	w := make([]float64, n)
	w[0] = 1
	for i := 1; i < n; i++ {
		spot := 0.5 + 0.5*math.Cos(phase-float64(i)*2*math.Pi/float64(n))
		w[i] = clamp((0.35+0.65*spot)*lift, 0, 1)
	}
	return w
}

func wrapDegrees(deg float64) float64 {
	if !finite(deg) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
