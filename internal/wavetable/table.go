package wavetable

import "math"

const twoPi = math.Pi * 2

// TableSize is the length of every generated single-cycle table.
const TableSize = 2048

// Table is one cycle of a periodic waveform, peak-normalized to 1.
type Table []float64

// Harmonic builds a table from harmonic amplitudes; amps[0] is the
// fundamental. Tables built this way are band-limited by construction.
func Harmonic(amps ...float64) Table {
	t := make(Table, TableSize)
	for k, a := range amps {
		if a == 0 {
			continue
		}
		n := float64(k + 1)
		for i := range t {
			t[i] += a * math.Sin(twoPi*n*float64(i)/TableSize)
		}
	}
	normalize(t)
	return t
}

// Sine is a pure sine table.
func Sine() Table {
	return Harmonic(1)
}

// SoftSaw is a saw with only the first n harmonics and an extra 1/k rolloff,
// which keeps the drone round while still feeding the filter.
func SoftSaw(n int) Table {
	if n < 1 {
		n = 1
	}
	amps := make([]float64, n)
	for k := range amps {
		h := float64(k + 1)
		amps[k] = 1 / (h * math.Sqrt(h))
	}
	return Harmonic(amps...)
}

// Hollow is an odd-harmonic blend, close to a softened square.
func Hollow(n int) Table {
	if n < 1 {
		n = 1
	}
	amps := make([]float64, n)
	for k := range amps {
		if k%2 == 0 {
			h := float64(k + 1)
			amps[k] = 1 / (h * h)
		}
	}
	return Harmonic(amps...)
}

func normalize(t Table) {
	var peak float64
	for _, v := range t {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	for i := range t {
		t[i] /= peak
	}
}

// Osc is a phase-accumulator oscillator reading a Table with linear
// interpolation.
type Osc struct {
	table Table
	phase float64 // position in cycles [0, 1)
}

// NewOsc returns an oscillator over t starting at phase (in cycles).
func NewOsc(t Table, phase float64) *Osc {
	o := &Osc{table: t}
	_, o.phase = math.Modf(math.Abs(phase))
	return o
}

// SetTable swaps the waveform while keeping phase continuous.
func (o *Osc) SetTable(t Table) {
	if len(t) == 0 {
		return
	}
	o.table = t
}

func (o *Osc) Phase() float64 { return o.phase }

// Next returns the current sample and advances by freq/sampleRate cycles.
func (o *Osc) Next(freq, sampleRate float64) float64 {
	if len(o.table) == 0 || sampleRate <= 0 {
		return 0
	}
	tableLen := float64(len(o.table))
	pos := o.phase * tableLen
	idx := int(pos)
	frac := pos - float64(idx)
	if idx >= len(o.table) {
		idx = 0
	}
	next := idx + 1
	if next >= len(o.table) {
		next = 0
	}
	s := o.table[idx]*(1-frac) + o.table[next]*frac

	o.phase += freq / sampleRate
	o.phase -= math.Floor(o.phase)
	return s
}
