package effects

import (
	"math"
	"sync"
)

// AnalyzerWindow is the number of mono samples the analyzer retains.
const AnalyzerWindow = 4096

// Analyzer keeps the most recent mono mix of the master output so the
// control side can meter it. Tap runs on the audio thread.
type Analyzer struct {
	mu       sync.Mutex
	ring     []float32
	writePos int
	filled   int
}

func NewAnalyzer(window int) *Analyzer {
	if window <= 0 {
		window = AnalyzerWindow
	}
	return &Analyzer{ring: make([]float32, window)}
}

// Tap copies an interleaved stereo buffer into the ring as mono.
func (a *Analyzer) Tap(samples []float32) {
	a.mu.Lock()
	for i := 0; i+1 < len(samples); i += 2 {
		a.ring[a.writePos] = (samples[i] + samples[i+1]) * 0.5
		a.writePos = (a.writePos + 1) % len(a.ring)
		if a.filled < len(a.ring) {
			a.filled++
		}
	}
	a.mu.Unlock()
}

// Level returns the RMS of the most recent n samples (the whole window
// when n is out of range). It is 0 before anything has been tapped.
func (a *Analyzer) Level(n int) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n <= 0 || n > a.filled {
		n = a.filled
	}
	if n == 0 {
		return 0
	}
	size := len(a.ring)
	start := (a.writePos - n + size) % size
	var sum float64
	for i := 0; i < n; i++ {
		v := float64(a.ring[(start+i)%size])
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// Snapshot copies the most recent n samples, oldest first.
func (a *Analyzer) Snapshot(n int) []float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	size := len(a.ring)
	if n > size {
		n = size
	}
	out := make([]float32, n)
	start := (a.writePos - n + size) % size
	for i := range out {
		out[i] = a.ring[(start+i)%size]
	}
	return out
}

func (a *Analyzer) Reset() {
	a.mu.Lock()
	clear(a.ring)
	a.writePos = 0
	a.filled = 0
	a.mu.Unlock()
}
