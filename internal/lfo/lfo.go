package lfo

import "math"

// Waveform constants.
const (
	WaveSaw      = 0
	WaveSquare   = 1
	WaveTriangle = 2
	WaveRandom   = 3
	WaveSine     = 4
)

// LFO is a low-frequency oscillator that produces per-sample modulation.
// Drift, grain wobble and the master breathing each own one.
type LFO struct {
	depth    float64 // modulation depth (units depend on context: cents, milliseconds, gain)
	rateHz   float64 // oscillation rate in Hz
	waveform int
	phase    float64 // current phase [0, 1)
	randVal  float64 // held random value for sample-and-hold
}

// Set configures the LFO parameters.
func (l *LFO) Set(depth, rateHz float64, waveform int) {
	l.depth = depth
	l.rateHz = rateHz
	if waveform < 0 || waveform > WaveSine {
		waveform = WaveTriangle
	}
	l.waveform = waveform
}

// SetRate changes the rate without touching phase, so retuning never clicks.
func (l *LFO) SetRate(rateHz float64) {
	if rateHz < 0 || math.IsNaN(rateHz) {
		rateHz = 0
	}
	l.rateHz = rateHz
}

func (l *LFO) SetDepth(depth float64) {
	if math.IsNaN(depth) {
		return
	}
	l.depth = depth
}

// SetPhase sets the phase in cycles; values are wrapped into [0, 1).
func (l *LFO) SetPhase(phase float64) {
	_, l.phase = math.Modf(phase)
	if l.phase < 0 {
		l.phase++
	}
}

// Sample advances the LFO by one sample and returns a value in [-depth, +depth].
// Returns 0 if depth or rate is zero.
func (l *LFO) Sample(sampleRate float64) float64 {
	return l.Advance(1, sampleRate)
}

// Advance returns the value at the current phase and then moves the phase
// forward by n samples. Used for control-rate modulation.
func (l *LFO) Advance(n int, sampleRate float64) float64 {
	if l.depth == 0 || l.rateHz == 0 || sampleRate == 0 {
		return 0
	}

	var waveVal float64
	switch l.waveform {
	case WaveSine:
		waveVal = math.Sin(2 * math.Pi * l.phase)
	case WaveSaw:
		waveVal = 1.0 - 2.0*l.phase
	case WaveSquare:
		if l.phase < 0.5 {
			waveVal = 1.0
		} else {
			waveVal = -1.0
		}
	case WaveRandom:
		waveVal = l.randVal
	default: // WaveTriangle
		if l.phase < 0.5 {
			waveVal = 4.0*l.phase - 1.0
		} else {
			waveVal = 3.0 - 4.0*l.phase
		}
	}

	oldPhase := l.phase
	l.phase += float64(n) * l.rateHz / sampleRate
	l.phase -= math.Floor(l.phase)

	// For random waveform, update held value at each cycle boundary
	if l.waveform == WaveRandom && l.phase < oldPhase {
		l.randVal = math.Sin(l.phase*12345.6789+l.randVal*67890.1234) * 2.0
		l.randVal -= math.Floor(l.randVal)
		l.randVal = l.randVal*2.0 - 1.0
	}

	return waveVal * l.depth
}

// Active returns true if the LFO has non-zero depth and rate.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.rateHz != 0
}

// Reset zeros the LFO phase.
func (l *LFO) Reset() {
	l.phase = 0
	l.randVal = 0
}
