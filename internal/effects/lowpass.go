package effects

import "math"

// Lowpass is a stereo resonant lowpass biquad (RBJ cookbook, transposed
// direct form II). Coefficients are recomputed only when the cutoff or Q
// actually change, so callers can set them every control quantum.
type Lowpass struct {
	sampleRate float64
	cutoff, q  float64
	b0, b1, b2 float64
	a1, a2     float64
	zL         [2]float64
	zR         [2]float64
}

const (
	minCutoffHz = 20.0
	minQ        = 0.1
	maxQ        = 30.0
)

func NewLowpass(sampleRate int, cutoff, q float64) *Lowpass {
	f := &Lowpass{sampleRate: float64(sampleRate)}
	f.Set(cutoff, q)
	return f
}

// Set updates cutoff (Hz) and resonance Q.
func (f *Lowpass) Set(cutoff, q float64) {
	maxCutoff := f.sampleRate * 0.45
	if cutoff != cutoff || cutoff < minCutoffHz {
		cutoff = minCutoffHz
	}
	if cutoff > maxCutoff {
		cutoff = maxCutoff
	}
	if q != q || q < minQ {
		q = minQ
	}
	if q > maxQ {
		q = maxQ
	}
	if cutoff == f.cutoff && q == f.q {
		return
	}
	f.cutoff, f.q = cutoff, q

	w0 := 2 * math.Pi * cutoff / f.sampleRate
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha
	f.b0 = (1 - cosw) / 2 / a0
	f.b1 = (1 - cosw) / a0
	f.b2 = f.b0
	f.a1 = -2 * cosw / a0
	f.a2 = (1 - alpha) / a0
}

func (f *Lowpass) Cutoff() float64 { return f.cutoff }
func (f *Lowpass) Q() float64      { return f.q }

func (f *Lowpass) Process(l, r float32) (float32, float32) {
	return float32(f.tick(&f.zL, float64(l))), float32(f.tick(&f.zR, float64(r)))
}

func (f *Lowpass) tick(z *[2]float64, x float64) float64 {
	y := f.b0*x + z[0]
	z[0] = f.b1*x - f.a1*y + z[1]
	z[1] = f.b2*x - f.a2*y
	return y
}

func (f *Lowpass) Reset() {
	f.zL = [2]float64{}
	f.zR = [2]float64{}
}
