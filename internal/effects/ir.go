package effects

import (
	"math"
	"math/rand/v2"
)

// SyntheticIR builds a decorrelated stereo impulse response: seeded white
// noise under a (1-t)^decay envelope, darkened by a one-pole lowpass whose
// cutoff falls over the tail. Each channel is normalized to unit energy.
// The same seed always yields the same response.
func SyntheticIR(sampleRate int, seconds, decay float64, seed uint64) (left, right []float32) {
	if seconds <= 0 || seconds != seconds {
		seconds = 0.1
	}
	if decay <= 0 || decay != decay {
		decay = 1
	}
	n := max(int(seconds*float64(sampleRate)), 1)
	left = noiseTail(sampleRate, n, decay, rand.New(rand.NewPCG(seed, 0x5eed)))
	right = noiseTail(sampleRate, n, decay, rand.New(rand.NewPCG(seed, 0xa11ce)))
	return left, right
}

func noiseTail(sampleRate, n int, decay float64, rng *rand.Rand) []float32 {
	ir := make([]float32, n)
	fadeIn := max(sampleRate/200, 1) // 5 ms
	var lp, energy float64
	for i := range ir {
		t := float64(i) / float64(n)
		env := math.Pow(1-t, decay)
		if i < fadeIn {
			env *= float64(i) / float64(fadeIn)
		}
		// Cutoff slides from ~9 kHz down to ~1.5 kHz over the tail.
		fc := 9000 - 7500*t
		a := 1 - math.Exp(-2*math.Pi*fc/float64(sampleRate))
		lp += a * (rng.Float64()*2 - 1 - lp)
		v := lp * env
		ir[i] = float32(v)
		energy += v * v
	}
	if energy > 0 {
		g := float32(1 / math.Sqrt(energy))
		for i := range ir {
			ir[i] *= g
		}
	}
	return ir
}
