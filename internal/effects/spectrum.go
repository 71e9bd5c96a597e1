package effects

import (
	"math"
	"math/cmplx"
)

// Spectrum computes Hann-windowed magnitude spectra for display. It is not
// safe for concurrent use.
type Spectrum struct {
	plan   *fftPlan
	window []float64
	buf    []complex128
	mags   []float64
}

// NewSpectrum creates a spectrum of size n, rounded up to a power of two.
func NewSpectrum(n int) *Spectrum {
	size := 2
	for size < n {
		size <<= 1
	}
	s := &Spectrum{
		plan:   newFFTPlan(size),
		window: make([]float64, size),
		buf:    make([]complex128, size),
		mags:   make([]float64, size/2+1),
	}
	for i := range s.window {
		s.window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return s
}

// Size is the transform length.
func (s *Spectrum) Size() int { return s.plan.n }

// Magnitudes transforms the newest Size() samples (zero padded at the
// front when fewer are given) and returns bins 0..Size()/2, normalized by
// the transform length. The slice is reused by the next call.
func (s *Spectrum) Magnitudes(samples []float32) []float64 {
	n := s.plan.n
	clear(s.buf)
	if len(samples) > n {
		samples = samples[len(samples)-n:]
	}
	off := n - len(samples)
	for i, v := range samples {
		s.buf[off+i] = complex(float64(v)*s.window[off+i], 0)
	}
	s.plan.forward(s.buf)
	for k := range s.mags {
		s.mags[k] = cmplx.Abs(s.buf[k]) / float64(n)
	}
	return s.mags
}
