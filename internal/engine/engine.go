// Package engine owns the drone's signal graph and its lifecycle. All
// update paths (observations, aim coordinates, macros and the evolution
// walk) stage their inputs here and push combined targets to the graph;
// the audio thread only ever reads parameters.
package engine

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cbegin/skydrone-go/internal/effects"
	"github.com/cbegin/skydrone-go/internal/evolve"
	"github.com/cbegin/skydrone-go/internal/grain"
	"github.com/cbegin/skydrone-go/internal/macro"
	"github.com/cbegin/skydrone-go/internal/mapping"
	"github.com/cbegin/skydrone-go/internal/observation"
	"github.com/cbegin/skydrone-go/internal/param"
	"github.com/cbegin/skydrone-go/internal/space"
	"github.com/cbegin/skydrone-go/internal/voice"
)

// ErrAlreadyStarted is returned by Start while the engine is running.
var ErrAlreadyStarted = errors.New("engine: already started")

// State is the engine lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "uninitialized"
	}
}

// graph is everything Start builds. A stopped graph keeps rendering its
// fade until stopFrame and is then silent; the next Start replaces it.
type graph struct {
	bank      *voice.Bank
	cloud     *grain.Cloud
	space     *space.Processor
	stopFrame atomic.Int64 // -1 while running

	// audio-thread scratch
	busL, busR []float32
	grainIn    []float32
}

// Engine is one drone instance. Control methods are safe for concurrent
// use; Process must be called from a single audio goroutine.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	recorder Recorder
	clock    *param.Clock
	sched    *evolve.Scheduler
	g        atomic.Pointer[graph]

	mu      sync.Mutex
	state   State
	macros  macro.Values
	data    mapping.Parameters
	last    observation.Snapshot
	weights []float64
	walker  *evolve.Walker
	step    evolve.Step
	eq      [effects.EQBands]float32
}

// New creates an engine in the uninitialized state. Zero config fields take
// their DefaultConfig values.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.EvolutionPeriod <= 0 {
		cfg.EvolutionPeriod = def.EvolutionPeriod
	}
	if cfg.ReverbSeconds <= 0 {
		cfg.ReverbSeconds = def.ReverbSeconds
	}
	if cfg.ReverbDecay <= 0 {
		cfg.ReverbDecay = def.ReverbDecay
	}
	if cfg.Quantum <= 0 {
		cfg.Quantum = def.Quantum
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "engine")
	rec := cfg.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}

	e := &Engine{
		cfg:      cfg,
		logger:   logger,
		recorder: rec,
		clock:    param.NewClock(cfg.SampleRate),
		sched:    evolve.NewScheduler(cfg.EvolutionPeriod, logger.With("component", "evolve")),
		macros:   macro.Defaults(),
		last:     observation.Default(),
	}
	e.data = mapping.Map(e.last)
	e.weights = mapping.DensityWeights(e.data, cfg.Variant.Voices())
	for i := range e.eq {
		e.eq[i] = 1
	}
	e.walker = evolve.NewWalker(cfg.Seed, grain.Lines)
	e.step = e.walker.Current()
	return e
}

func (e *Engine) SampleRate() int { return e.cfg.SampleRate }

// Now is the current audio time in seconds.
func (e *Engine) Now() float64 { return e.clock.Now() }

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// EvolutionTicks counts completed evolution steps.
func (e *Engine) EvolutionTicks() int64 { return e.sched.Ticks() }

// OutputLevel is the RMS of the most recent output, 0 before any graph.
func (e *Engine) OutputLevel() float64 {
	if g := e.g.Load(); g != nil {
		return g.space.OutputLevel()
	}
	return 0
}

// Start builds a fresh graph from the current macro and data state, fades
// it in and arms the evolution scheduler. Calling Start while running is a
// caller error and returns ErrAlreadyStarted without touching the graph.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	g := e.build()
	now := e.clock.Now()
	e.walker = evolve.NewWalker(e.cfg.Seed, grain.Lines)
	e.step = e.walker.Current()

	e.applyFilter(g, now, 0)
	e.applyWash(g, now, 0)
	e.applyGrainModulation(g, now, 0)
	g.space.SetVolume(macro.Volume(e.macros.Volume), now, 0)
	g.space.SetBreathing(macro.Pulse(e.macros.Pulse).Rate, macro.CombinedBreathDepth(e.macros.Pulse, e.macros.Zoom), now, 0)
	g.bank.SetDriftDepth(e.step.DriftCents, now, 0)
	for band, gain := range e.eq {
		g.space.SetEQBand(band, gain)
	}
	g.space.FadeIn(now, FadeInSeconds)

	e.g.Store(g)
	e.state = StateRunning
	e.applyZoom(g, now, 0)
	e.mu.Unlock()

	e.sched.Start(e.tick)
	e.recorder.Started()
	e.logger.Info("engine started",
		"variant", e.cfg.Variant.String(),
		"sample_rate", e.cfg.SampleRate,
		"root", e.macros.Root,
		"mode", e.macros.Mode,
	)
	return nil
}

func (e *Engine) build() *graph {
	sr := e.cfg.SampleRate
	q := e.cfg.Quantum
	g := &graph{
		bank:  voice.NewBank(sr, e.cfg.Variant, e.macros.Root, e.macros.Mode),
		cloud: grain.New(sr, e.cfg.Seed),
		space: space.New(space.Config{
			SampleRate:    sr,
			ReverbSeconds: e.cfg.ReverbSeconds,
			ReverbDecay:   e.cfg.ReverbDecay,
			Seed:          e.cfg.Seed,
			BlockSize:     effects.DefaultBlockSize,
		}),
		busL:    make([]float32, q),
		busR:    make([]float32, q),
		grainIn: make([]float32, q),
	}
	g.stopFrame.Store(-1)
	return g
}

// Stop fades the graph out, schedules its sources to stop shortly after,
// and cancels the evolution scheduler. It is a no-op unless running. When
// Stop returns no evolution tick is in flight or pending.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return
	}
	g := e.g.Load()
	now := e.clock.Now()
	g.space.FadeOut(now, FadeOutSeconds)
	g.bank.FadeOut(now, FadeOutSeconds)
	g.stopFrame.Store(e.clock.Frames() + int64(StopOffsetSeconds*float64(e.cfg.SampleRate)))
	e.state = StateStopped
	e.mu.Unlock()

	// The tick takes e.mu, so the scheduler must be stopped unlocked.
	e.sched.Stop()
	e.recorder.Stopped()
	e.logger.Info("engine stopped", "evolution_ticks", e.sched.Ticks())
}

// Finished reports whether a stopped graph has gone silent.
func (e *Engine) Finished() bool {
	g := e.g.Load()
	if g == nil {
		return false
	}
	stop := g.stopFrame.Load()
	return stop >= 0 && e.clock.Frames() >= stop
}

// Process renders len(dst)/2 interleaved stereo frames and advances the
// audio clock.
func (e *Engine) Process(dst []float32) {
	frames := len(dst) / 2
	g := e.g.Load()
	if g == nil {
		clear(dst)
		e.clock.Advance(frames)
		return
	}
	q := len(g.busL)
	for off := 0; off < frames; {
		n := min(q, frames-off)
		out := dst[2*off : 2*(off+n)]
		start := e.clock.Frames()
		if stop := g.stopFrame.Load(); stop >= 0 && start >= stop {
			g.space.Silence(out)
		} else {
			t0 := e.clock.TimeAt(start)
			t1 := e.clock.TimeAt(start + int64(n))
			busL, busR, in := g.busL[:n], g.busR[:n], g.grainIn[:n]
			clear(busL)
			clear(busR)
			g.bank.Render(busL, busR, t0, t1)
			for i := range in {
				in[i] = (busL[i] + busR[i]) * 0.5
			}
			g.cloud.Render(in, busL, busR, t0, t1)
			g.space.Render(busL, busR, out, t0, t1)
		}
		e.clock.Advance(n)
		off += n
	}
}

// live returns the graph and the current audio time while running.
// Callers hold e.mu.
func (e *Engine) live() (*graph, float64, bool) {
	if e.state != StateRunning {
		return nil, 0, false
	}
	return e.g.Load(), e.clock.Now(), true
}

// tick is the evolution scheduler callback: one walk step applied around
// the current baselines, then zoom.
func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, now, ok := e.live()
	if !ok {
		return
	}
	e.step = e.walker.Step(e.macros.Pulse)
	tau := e.cfg.EvolutionPeriod.Seconds() / 2
	e.applyFilter(g, now, tau)
	e.applyWash(g, now, tau)
	e.applyGrainModulation(g, now, tau)
	g.bank.SetDriftDepth(e.step.DriftCents, now, tau)
	e.applyZoom(g, now, tau)
	e.recorder.EvolutionTicked()
	e.logger.Debug("evolution step",
		"unfold", e.step.Unfold,
		"cutoff_ratio", e.step.CutoffRatio,
		"wet_offset", e.step.WetOffset,
	)
}

// EvolveNow runs one evolution step immediately, as if the scheduler had
// ticked. It is a no-op unless running.
func (e *Engine) EvolveNow() { e.tick() }
