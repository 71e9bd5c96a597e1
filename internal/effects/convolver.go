package effects

// Convolver is a stereo uniformly-partitioned overlap-save convolution
// reverb. A mono input is convolved with a left and right impulse response
// that share one frequency-domain delay line. Output lags input by
// BlockSize frames.
type Convolver struct {
	block int
	plan  *fftPlan
	parts int

	// irL/irR hold the spectra of each IR partition (bins 0..block).
	irL, irR [][]complex128
	// fdl is a ring of input block spectra, newest at fdlPos.
	fdl    [][]complex128
	fdlPos int

	in      []float64 // previous block followed by the current one
	outL    []float32
	outR    []float32
	pos     int
	scratch []complex128
	accL    []complex128
	accR    []complex128
}

// DefaultBlockSize balances latency against per-block cost.
const DefaultBlockSize = 256

// NewConvolver builds a convolver for the given impulse responses. blockSize
// is rounded up to a power of two. A nil or empty right IR reuses the left.
func NewConvolver(irL, irR []float32, blockSize int) *Convolver {
	if blockSize < 2 {
		blockSize = DefaultBlockSize
	}
	b := 2
	for b < blockSize {
		b <<= 1
	}
	if len(irR) == 0 {
		irR = irL
	}
	n := 2 * b
	length := max(len(irL), len(irR), 1)
	parts := (length + b - 1) / b

	c := &Convolver{
		block:   b,
		plan:    newFFTPlan(n),
		parts:   parts,
		fdl:     make([][]complex128, parts),
		in:      make([]float64, n),
		outL:    make([]float32, b),
		outR:    make([]float32, b),
		scratch: make([]complex128, n),
		accL:    make([]complex128, b+1),
		accR:    make([]complex128, b+1),
	}
	for i := range c.fdl {
		c.fdl[i] = make([]complex128, b+1)
	}
	c.irL = c.partition(irL)
	c.irR = c.partition(irR)
	return c
}

func (c *Convolver) partition(ir []float32) [][]complex128 {
	out := make([][]complex128, c.parts)
	for p := range out {
		clear(c.scratch)
		for i := 0; i < c.block; i++ {
			idx := p*c.block + i
			if idx >= len(ir) {
				break
			}
			c.scratch[i] = complex(float64(ir[idx]), 0)
		}
		c.plan.forward(c.scratch)
		out[p] = append([]complex128(nil), c.scratch[:c.block+1]...)
	}
	return out
}

// BlockSize reports the partition size, which is also the latency in frames.
func (c *Convolver) BlockSize() int { return c.block }

// Process pushes one mono input sample and returns one stereo wet frame.
func (c *Convolver) Process(x float32) (float32, float32) {
	l, r := c.outL[c.pos], c.outR[c.pos]
	c.in[c.block+c.pos] = float64(x)
	c.pos++
	if c.pos == c.block {
		c.runBlock()
		c.pos = 0
	}
	return l, r
}

func (c *Convolver) runBlock() {
	b := c.block
	n := 2 * b

	for i, v := range c.in {
		c.scratch[i] = complex(v, 0)
	}
	c.plan.forward(c.scratch)
	c.fdlPos = (c.fdlPos + 1) % c.parts
	copy(c.fdl[c.fdlPos], c.scratch[:b+1])

	clear(c.accL)
	clear(c.accR)
	for p := 0; p < c.parts; p++ {
		x := c.fdl[(c.fdlPos-p+c.parts)%c.parts]
		hl, hr := c.irL[p], c.irR[p]
		for k := range x {
			c.accL[k] += x[k] * hl[k]
			c.accR[k] += x[k] * hr[k]
		}
	}

	c.inverseReal(c.accL, c.outL)
	c.inverseReal(c.accR, c.outR)

	copy(c.in[:b], c.in[b:n])
}

// inverseReal rebuilds the full Hermitian spectrum from bins 0..b and keeps
// the last b samples of the circular result, which are alias free.
func (c *Convolver) inverseReal(half []complex128, dst []float32) {
	b := c.block
	n := 2 * b
	copy(c.scratch, half)
	for k := 1; k < b; k++ {
		v := half[k]
		c.scratch[n-k] = complex(real(v), -imag(v))
	}
	c.plan.inverse(c.scratch)
	for i := range dst {
		dst[i] = float32(real(c.scratch[b+i]))
	}
}

func (c *Convolver) Reset() {
	for _, x := range c.fdl {
		clear(x)
	}
	clear(c.in)
	clear(c.outL)
	clear(c.outR)
	c.pos = 0
	c.fdlPos = 0
}
