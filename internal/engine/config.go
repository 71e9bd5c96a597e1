package engine

import (
	"log/slog"
	"time"

	"github.com/cbegin/skydrone-go/internal/evolve"
	"github.com/cbegin/skydrone-go/internal/voice"
)

// Timing of the lifecycle and update paths, in seconds.
const (
	FadeInSeconds     = 2.0
	FadeOutSeconds    = 0.35
	StopOffsetSeconds = 0.4

	ObservationTau = 2.5
	CoordinateTau  = 0.25
	ZoomTau        = 0.2

	// DefaultQuantum is the control-rate block: parameters are evaluated
	// at quantum edges and interpolated inside.
	DefaultQuantum = 128
)

// Config holds construction-time engine settings.
type Config struct {
	SampleRate      int
	Variant         voice.Variant
	Seed            uint64
	EvolutionPeriod time.Duration
	ReverbSeconds   float64
	ReverbDecay     float64
	Quantum         int
	Logger          *slog.Logger
	Recorder        Recorder
}

// DefaultConfig returns the standard 48 kHz compact engine.
func DefaultConfig() Config {
	return Config{
		SampleRate:      48000,
		Variant:         voice.VariantCompact,
		Seed:            1,
		EvolutionPeriod: evolve.DefaultPeriod,
		ReverbSeconds:   4.5,
		ReverbDecay:     3.2,
		Quantum:         DefaultQuantum,
	}
}

// Recorder receives engine events for metrics. All methods must be cheap
// and safe for concurrent use.
type Recorder interface {
	Started()
	Stopped()
	ObservationApplied()
	EvolutionTicked()
}

type nopRecorder struct{}

func (nopRecorder) Started()            {}
func (nopRecorder) Stopped()            {}
func (nopRecorder) ObservationApplied() {}
func (nopRecorder) EvolutionTicked()    {}
