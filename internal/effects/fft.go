package effects

import (
	"math"
	"math/bits"
)

// fftPlan holds twiddles and the bit-reversal table for one power-of-two
// size. Plans are built once per convolver and reused for every block.
type fftPlan struct {
	n       int
	twiddle []complex128
	rev     []int
}

func newFFTPlan(n int) *fftPlan {
	if n < 2 || n&(n-1) != 0 {
		panic("effects: fft size must be a power of two")
	}
	p := &fftPlan{
		n:       n,
		twiddle: make([]complex128, n/2),
		rev:     make([]int, n),
	}
	for k := range p.twiddle {
		s, c := math.Sincos(-2 * math.Pi * float64(k) / float64(n))
		p.twiddle[k] = complex(c, s)
	}
	shift := bits.UintSize - bits.TrailingZeros(uint(n))
	for i := range p.rev {
		p.rev[i] = int(bits.Reverse(uint(i)) >> shift)
	}
	return p
}

// forward computes an in-place radix-2 FFT.
func (p *fftPlan) forward(x []complex128) {
	n := p.n
	for i, j := range p.rev {
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}
	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		step := n / size
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				t := p.twiddle[k*step] * x[start+k+half]
				x[start+k+half] = x[start+k] - t
				x[start+k] += t
			}
		}
	}
}

// inverse computes an in-place inverse FFT, scaled by 1/n.
func (p *fftPlan) inverse(x []complex128) {
	for i, v := range x {
		x[i] = complex(real(v), -imag(v))
	}
	p.forward(x)
	scale := 1 / float64(p.n)
	for i, v := range x {
		x[i] = complex(real(v)*scale, -imag(v)*scale)
	}
}
