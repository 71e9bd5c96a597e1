// Package skydrone is a generative ambient drone driven by live telescope
// observation metadata. A Session owns one engine and, optionally, the audio
// device it plays on.
package skydrone

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	intaudio "github.com/cbegin/skydrone-go/internal/audio"
	"github.com/cbegin/skydrone-go/internal/engine"
	"github.com/cbegin/skydrone-go/internal/observation"
	"github.com/cbegin/skydrone-go/internal/voice"
)

// Observation is one telescope observation's metadata.
type Observation = observation.Snapshot

// DefaultObservation is the snapshot used before any live data arrives.
func DefaultObservation() Observation { return observation.Default() }

// Recorder receives engine events, typically for metrics.
type Recorder = engine.Recorder

// Status is a copy of the engine's staged state and current targets.
type Status = engine.Status

// Variant selects the voice bank size.
type Variant = voice.Variant

const (
	VariantCompact = voice.VariantCompact
	VariantRich    = voice.VariantRich
)

// ParseVariant accepts "compact" or "rich".
func ParseVariant(s string) (Variant, error) { return voice.ParseVariant(s) }

// ChordModes lists the chord modes SetChord accepts.
func ChordModes() []string { return voice.Modes() }

// ErrAlreadyStarted is returned by Start on a running session.
var ErrAlreadyStarted = engine.ErrAlreadyStarted

// DefaultReturnToLiveDelay is how long after EndAim the live observation is
// re-applied.
const DefaultReturnToLiveDelay = 4 * time.Second

type Option func(*sessionConfig)

type sessionConfig struct {
	engine       engine.Config
	output       bool
	bufferSize   time.Duration
	sampleTap    func([]float32)
	returnToLive time.Duration
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		engine:       engine.DefaultConfig(),
		output:       true,
		bufferSize:   100 * time.Millisecond,
		returnToLive: DefaultReturnToLiveDelay,
	}
}

func WithSampleRate(sampleRate int) Option {
	return func(cfg *sessionConfig) {
		cfg.engine.SampleRate = sampleRate
	}
}

func WithVariant(v Variant) Option {
	return func(cfg *sessionConfig) {
		cfg.engine.Variant = v
	}
}

// WithSeed fixes every randomized construction parameter and the
// evolution walk.
func WithSeed(seed uint64) Option {
	return func(cfg *sessionConfig) {
		cfg.engine.Seed = seed
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *sessionConfig) {
		cfg.engine.Logger = logger
	}
}

func WithRecorder(r Recorder) Option {
	return func(cfg *sessionConfig) {
		cfg.engine.Recorder = r
	}
}

// WithSampleTap installs a callback invoked with each buffer sent to the
// audio device. The callback runs on the audio thread; keep work brief and
// non-blocking.
func WithSampleTap(tap func([]float32)) Option {
	return func(cfg *sessionConfig) {
		cfg.sampleTap = tap
	}
}

// WithOutput controls whether Start opens the audio device. Without output
// the caller pulls audio through RenderSamples, RenderWAV or Streamer.
func WithOutput(enabled bool) Option {
	return func(cfg *sessionConfig) {
		cfg.output = enabled
	}
}

// WithBufferSize sets the device buffer length.
func WithBufferSize(d time.Duration) Option {
	return func(cfg *sessionConfig) {
		cfg.bufferSize = d
	}
}

func WithEvolutionPeriod(d time.Duration) Option {
	return func(cfg *sessionConfig) {
		cfg.engine.EvolutionPeriod = d
	}
}

// WithReverbSeconds sets the synthetic impulse response length.
func WithReverbSeconds(seconds float64) Option {
	return func(cfg *sessionConfig) {
		cfg.engine.ReverbSeconds = seconds
	}
}

func WithReturnToLiveDelay(d time.Duration) Option {
	return func(cfg *sessionConfig) {
		cfg.returnToLive = d
	}
}

// Session is the public handle on one drone. All methods are safe for
// concurrent use.
type Session struct {
	mu     sync.Mutex
	cfg    sessionConfig
	engine *engine.Engine
	logger *slog.Logger
	audio  *intaudio.Player

	live    Observation
	hasLive bool
	aiming  bool

	// Pending tasks. A task only runs if its generation still matches,
	// so cancelling is a counter bump even when the timer already fired.
	gen         uint64
	returnTimer *time.Timer
	closeTimer  *time.Timer
}

// NewSession builds a session. Nothing sounds until Start.
func NewSession(opts ...Option) (*Session, error) {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.engine.SampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if cfg.returnToLive < 0 {
		cfg.returnToLive = 0
	}
	logger := cfg.engine.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		cfg.engine.Logger = logger
	}
	return &Session{
		cfg:    cfg,
		engine: engine.New(cfg.engine),
		logger: logger.With("component", "session"),
	}, nil
}

func (s *Session) SampleRate() int { return s.cfg.engine.SampleRate }

// Start builds the engine graph and, unless output is disabled, starts
// playback on the audio device. The latest live observation, if any, is
// applied straight away.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.Start(); err != nil {
		return err
	}
	s.cancelTasksLocked()
	if s.audio != nil {
		// Left over from a previous Stop whose fade has not been closed yet.
		_ = s.audio.Stop()
		s.audio = nil
	}
	if s.cfg.output {
		backend, err := intaudio.NewPlayer(s.SampleRate(), s.engine, s.cfg.sampleTap, s.cfg.bufferSize)
		if err != nil {
			s.engine.Stop()
			return fmt.Errorf("starting audio output: %w", err)
		}
		s.audio = backend
		s.audio.Play()
	}
	if s.hasLive && !s.aiming {
		s.engine.UpdateFromObservation(s.live)
	}
	return nil
}

// Stop fades out and cancels all pending session tasks. The audio device
// is released once the fade has finished.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTasksLocked()
	s.aiming = false
	s.engine.Stop()
	if s.audio != nil {
		backend := s.audio
		gen := s.gen
		delay := time.Duration((engine.StopOffsetSeconds + 0.1) * float64(time.Second))
		s.closeTimer = time.AfterFunc(delay, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.gen != gen || s.audio != backend {
				return
			}
			if err := backend.Stop(); err != nil {
				s.logger.Warn("closing audio output", "error", err)
			}
			s.audio = nil
		})
	}
	return nil
}

// Close stops the session and releases the audio device immediately.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTasksLocked()
	s.engine.Stop()
	if s.audio == nil {
		return nil
	}
	err := s.audio.Stop()
	s.audio = nil
	return err
}

func (s *Session) cancelTasksLocked() {
	s.gen++
	if s.returnTimer != nil {
		s.returnTimer.Stop()
		s.returnTimer = nil
	}
	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}
}

// Observe records a live observation and applies it unless aim mode is
// overriding the live data.
func (s *Session) Observe(o Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live, s.hasLive = o, true
	if !s.aiming {
		s.engine.UpdateFromObservation(o)
	}
}

// Aim enters aim mode and steers the drone from the given sky position.
// Any pending return to live is cancelled.
func (s *Session) Aim(ra, dec float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.returnTimer != nil {
		s.returnTimer.Stop()
		s.returnTimer = nil
		s.gen++
	}
	s.aiming = true
	s.engine.UpdateFromCoordinates(ra, dec)
}

// EndAim schedules the return to live data after the return-to-live delay.
func (s *Session) EndAim() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.aiming {
		return
	}
	if s.returnTimer != nil {
		s.returnTimer.Stop()
	}
	s.gen++
	gen := s.gen
	s.returnTimer = time.AfterFunc(s.cfg.returnToLive, func() { s.returnToLive(gen) })
}

func (s *Session) returnToLive(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.aiming = false
	s.returnTimer = nil
	if s.hasLive {
		s.engine.UpdateFromObservation(s.live)
	}
	s.logger.Debug("returned to live observation", "target", s.live.TargetName)
}

// Aiming reports whether aim mode is overriding live data.
func (s *Session) Aiming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aiming
}

// Macro controls. Values are clamped to [0, 1] and recorded even before
// Start.

func (s *Session) SetVolume(v float64)  { s.engine.SetVolume(v) }
func (s *Session) SetSpace(v float64)   { s.engine.SetSpace(v) }
func (s *Session) SetColour(v float64)  { s.engine.SetColour(v) }
func (s *Session) SetScatter(v float64) { s.engine.SetScatter(v) }
func (s *Session) SetPulse(v float64)   { s.engine.SetPulse(v) }
func (s *Session) SetZoom(v float64)    { s.engine.SetZoom(v) }

// SetChord retunes to root (semitones from C2, ±12) and mode (MAJ, MIN,
// SUS, DOM, LYD, DOR; anything else is MAJ).
func (s *Session) SetChord(root int, mode string) { s.engine.SetChord(root, mode) }

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
func (s *Session) SetEQBand(band int, gain float32) { s.engine.SetEQBand(band, gain) }

// EQBand returns the current gain for a master EQ band (0-4).
func (s *Session) EQBand(band int) float32 { return s.engine.EQBand(band) }

// OutputLevel is the RMS of the most recent output, for audio-reactive
// visuals.
func (s *Session) OutputLevel() float64 { return s.engine.OutputLevel() }

// Status returns the engine's staged state and current targets.
func (s *Session) Status() Status { return s.engine.Status() }

// Running reports whether the engine is running.
func (s *Session) Running() bool { return s.engine.State() == engine.StateRunning }

// EvolutionTicks counts completed evolution steps.
func (s *Session) EvolutionTicks() int64 { return s.engine.EvolutionTicks() }

// PlaybackPosition returns what the listener is hearing right now, in
// frames. Returns 0 without an audio device.
func (s *Session) PlaybackPosition() int64 {
	s.mu.Lock()
	a := s.audio
	s.mu.Unlock()
	if a == nil {
		return 0
	}
	return int64(a.Position().Seconds() * float64(s.SampleRate()))
}
