package engine

import (
	"github.com/cbegin/skydrone-go/internal/effects"
	"github.com/cbegin/skydrone-go/internal/evolve"
	"github.com/cbegin/skydrone-go/internal/macro"
	"github.com/cbegin/skydrone-go/internal/mapping"
	"github.com/cbegin/skydrone-go/internal/observation"
)

// defaultModulationHz is the grain wobble rate before any data arrives.
const defaultModulationHz = 0.15

// UpdateFromObservation maps a snapshot and glides the graph toward it. It
// is a no-op unless running.
func (e *Engine) UpdateFromObservation(s observation.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, now, ok := e.live()
	if !ok {
		return
	}
	e.last = s
	e.data = mapping.Map(s)
	e.weights = mapping.DensityWeights(e.data, len(g.bank.Voices()))
	e.applyFilter(g, now, ObservationTau)
	e.applyWash(g, now, ObservationTau)
	e.applyGrainModulation(g, now, ObservationTau)
	e.applyZoom(g, now, ObservationTau)
	e.recorder.ObservationApplied()
	e.logger.Info("observation applied",
		"target", s.TargetName,
		"instrument", s.Instrument,
		"cutoff_hz", e.data.FilterCutoffHz,
		"harmonics", e.data.HarmonicActiveCount,
		"density", e.data.VoiceDensity,
	)
}

// UpdateFromCoordinates steers the graph from an aim position. It settles
// much faster than an observation update. It is a no-op unless running.
func (e *Engine) UpdateFromCoordinates(ra, dec float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, now, ok := e.live()
	if !ok {
		return
	}
	e.data.FilterCutoffHz = mapping.DecToFilterCutoff(dec)
	e.data.ModulationRateHz = mapping.RAToModulationRate(ra)
	e.weights = mapping.CoordinateWeights(ra, dec, len(g.bank.Voices()))
	e.applyFilter(g, now, CoordinateTau)
	e.applyGrainModulation(g, now, CoordinateTau)
	e.applyZoom(g, now, CoordinateTau)
}

// Macro setters always record the clamped value, so values set before
// Start take effect when the graph is built. While running they also push
// targets to the graph and re-apply zoom.

func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.macros.Volume = macro.Clamp(v)
	if g, now, ok := e.live(); ok {
		g.space.SetVolume(macro.Volume(e.macros.Volume), now, macro.VolumeTau)
		e.applyZoom(g, now, ZoomTau)
	}
}

func (e *Engine) SetSpace(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.macros.Space = macro.Clamp(v)
	if g, now, ok := e.live(); ok {
		e.applyWash(g, now, macro.Tau)
		e.applyZoom(g, now, macro.Tau)
	}
}

func (e *Engine) SetColour(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.macros.Colour = macro.Clamp(v)
	if g, now, ok := e.live(); ok {
		e.applyFilter(g, now, macro.Tau)
		e.applyZoom(g, now, macro.Tau)
	}
}

func (e *Engine) SetScatter(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.macros.Scatter = macro.Clamp(v)
	if g, now, ok := e.live(); ok {
		e.applyGrainModulation(g, now, macro.Tau)
		e.applyZoom(g, now, macro.Tau)
	}
}

func (e *Engine) SetPulse(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.macros.Pulse = macro.Clamp(v)
	if g, now, ok := e.live(); ok {
		e.applyZoom(g, now, macro.Tau)
	}
}

func (e *Engine) SetZoom(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.macros.Zoom = macro.Clamp(v)
	if g, now, ok := e.live(); ok {
		e.applyZoom(g, now, ZoomTau)
	}
}

// SetChord retunes the voices to root (semitones from C2, ±12) and mode.
// Unknown modes resolve to MAJ.
func (e *Engine) SetChord(root int, mode string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := macro.Values{Root: root, Mode: mode}.Clamped()
	e.macros.Root, e.macros.Mode = v.Root, v.Mode
	if g, now, ok := e.live(); ok {
		g.bank.Retune(e.macros.Root, e.macros.Mode, now)
		e.applyZoom(g, now, ZoomTau)
	}
}

// SetEQBand sets a master EQ band gain. Unlike the macros it is applied
// immediately; the EQ reads its gains atomically.
func (e *Engine) SetEQBand(band int, gain float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if band < 0 || band >= effects.EQBands || gain != gain {
		return
	}
	e.eq[band] = max(0, min(gain, effects.MaxEQGain))
	if g, _, ok := e.live(); ok {
		g.space.SetEQBand(band, e.eq[band])
	}
}

func (e *Engine) EQBand(band int) float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if band < 0 || band >= effects.EQBands {
		return 1
	}
	return e.eq[band]
}

// Macros returns the recorded macro values.
func (e *Engine) Macros() macro.Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.macros
}

// The apply helpers are the single combining writers for each contended
// parameter group. Callers hold e.mu.

func (e *Engine) applyFilter(g *graph, now, tau float64) {
	m := e.macros
	cutoff := macro.CombinedCutoff(e.data.FilterCutoffHz, m.Colour, e.step.CutoffRatio)
	q := macro.CombinedResonance(m.Colour, m.Zoom, e.step.QOffset)
	g.space.SetFilter(cutoff, q, now, tau)
}

func (e *Engine) applyWash(g *graph, now, tau float64) {
	m := e.macros
	g.space.SetWet(macro.CombinedWet(m.Space, e.data.ReverbWetness, e.step.WetOffset), now, tau)
	g.space.SetDry(macro.CombinedDry(m.Space, e.step.WetOffset), now, tau)
}

func (e *Engine) applyGrainModulation(g *graph, now, tau float64) {
	rate := e.data.ModulationRateHz
	if !(rate > 0) {
		rate = defaultModulationHz
	}
	sc := macro.Scatter(e.macros.Scatter)
	g.cloud.SetInputFeed(sc.GrainFeed, now, tau)
	for i := range g.cloud.Lines() {
		g.cloud.SetLineModulation(i, sc.ModDepthMs*lineAt(e.step.LineDepth, i, 1), rate*lineAt(e.step.LineRate, i, 1), now, tau)
	}
}

func (e *Engine) applyFeedback(g *graph, now, tau float64) {
	m := e.macros
	sp := macro.Space(m.Space).GrainFeedback
	sc := macro.Scatter(m.Scatter).GrainFeedback
	trim := macro.Zoom(m.Zoom).FeedbackTrim
	for i := range g.cloud.Lines() {
		g.cloud.SetLineFeedback(i, macro.CombinedFeedback(sp, sc, lineAt(e.step.LineFeedback, i, 0), trim), now, tau)
	}
}

// applyZoom runs after every other write. It re-gates the voices and
// rewrites every parameter zoom touches from the staged state.
func (e *Engine) applyZoom(g *graph, now, tau float64) {
	m := e.macros
	g.bank.SetUnfold(e.step.Unfold)
	g.bank.ApplyDensityWeights(e.weights)
	g.bank.ApplyZoomPresence(m.Zoom, now, tau)
	g.cloud.SetOutputLevel(macro.CombinedGrainOut(m.Space, m.Zoom), now, tau)
	e.applyFeedback(g, now, tau)
	g.space.SetBreathing(macro.Pulse(m.Pulse).Rate, macro.CombinedBreathDepth(m.Pulse, m.Zoom), now, tau)
	g.space.SetResonance(macro.CombinedResonance(m.Colour, m.Zoom, e.step.QOffset), now, tau)
}

func lineAt(v []float64, i int, def float64) float64 {
	if i < len(v) {
		return v[i]
	}
	return def
}

// Status is a copy of the engine's staged state and current targets, for
// visuals and tests.
type Status struct {
	State          State
	Macros         macro.Values
	Data           mapping.Parameters
	Observation    observation.Snapshot
	Weights        []float64
	Walk           evolve.Step
	VoiceGains     []float64
	VoiceFreqs     []float64
	Cutoff         float64
	Resonance      float64
	Wet            float64
	Dry            float64
	BreathRate     float64
	BreathDepth    float64
	Volume         float64
	GrainFeedback  []float64
	GainReduction  float32
	ReverbLatency  int
	EvolutionTicks int64
}

// Status returns the current staged state. Target fields are zero before
// the first Start.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{
		State:          e.state,
		Macros:         e.macros,
		Data:           e.data,
		Observation:    e.last,
		Weights:        append([]float64(nil), e.weights...),
		Walk:           e.walker.Current(),
		EvolutionTicks: e.sched.Ticks(),
	}
	g := e.g.Load()
	if g == nil {
		return st
	}
	st.VoiceGains = g.bank.GainTargets()
	for _, v := range g.bank.Voices() {
		st.VoiceFreqs = append(st.VoiceFreqs, v.Frequency())
	}
	st.Cutoff = g.space.Cutoff()
	st.Resonance = g.space.Resonance()
	st.Wet = g.space.Wet()
	st.Dry = g.space.Dry()
	st.BreathRate = g.space.LFORate()
	st.BreathDepth = g.space.LFODepth()
	st.Volume = g.space.Volume()
	st.GainReduction = g.space.GainReduction()
	st.ReverbLatency = g.space.ReverbLatency()
	for _, l := range g.cloud.Lines() {
		st.GrainFeedback = append(st.GrainFeedback, l.Feedback())
	}
	return st
}
