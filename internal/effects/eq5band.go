package effects

import (
	"math"
	"sync/atomic"
)

// EQBands is the number of master EQ bands.
const EQBands = 5

// MaxEQGain bounds a band gain (+12 dB).
const MaxEQGain = 4

// EQ5Band is the master tone control: five bands split by cascaded one-pole
// crossovers at 200 Hz, 800 Hz, 2.5 kHz and 8 kHz. Gains are float32 bit
// patterns so the audio thread reads them without locking.
type EQ5Band struct {
	gains  [EQBands]atomic.Uint32
	alphas [EQBands - 1]float32
	lpL    [EQBands - 1]float32
	lpR    [EQBands - 1]float32
}

var defaultCrossovers = [EQBands - 1]float64{200, 800, 2500, 8000}

// NewEQ5Band creates an EQ with all gains at unity. Crossovers above
// Nyquist are pinned just below it so low sample rates still split cleanly.
func NewEQ5Band(sampleRate int) *EQ5Band {
	eq := &EQ5Band{}
	dt := 1.0 / float64(sampleRate)
	nyquist := float64(sampleRate) / 2
	for i, freq := range defaultCrossovers {
		freq = math.Min(freq, nyquist*0.9)
		rc := 1.0 / (2.0 * math.Pi * freq)
		eq.alphas[i] = float32(dt / (rc + dt))
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1.0))
	}
	return eq
}

// SetGain sets the gain for band (0-4), clamped to [0, MaxEQGain].
// Out-of-range bands are ignored.
func (eq *EQ5Band) SetGain(band int, gain float32) {
	if band < 0 || band >= EQBands || gain != gain {
		return
	}
	eq.gains[band].Store(math.Float32bits(clamp(gain, 0, MaxEQGain)))
}

// Gain returns the gain for band (0-4); unknown bands report unity.
func (eq *EQ5Band) Gain(band int) float32 {
	if band >= 0 && band < EQBands {
		return math.Float32frombits(eq.gains[band].Load())
	}
	return 1.0
}

func (eq *EQ5Band) Process(l, r float32) (float32, float32) {
	var outL, outR float32
	remL, remR := l, r
	for i := 0; i < EQBands-1; i++ {
		eq.lpL[i] += eq.alphas[i] * (remL - eq.lpL[i])
		eq.lpR[i] += eq.alphas[i] * (remR - eq.lpR[i])
		g := math.Float32frombits(eq.gains[i].Load())
		outL += eq.lpL[i] * g
		outR += eq.lpR[i] * g
		remL -= eq.lpL[i]
		remR -= eq.lpR[i]
	}
	g := math.Float32frombits(eq.gains[EQBands-1].Load())
	return outL + remL*g, outR + remR*g
}

func (eq *EQ5Band) Reset() {
	for i := range eq.lpL {
		eq.lpL[i] = 0
		eq.lpR[i] = 0
	}
}
