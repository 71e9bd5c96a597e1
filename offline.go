package skydrone

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// ErrOutputAttached is returned by the offline renderers when the session
// plays on the audio device, which already pulls the engine.
var ErrOutputAttached = errors.New("session renders to the audio device; use WithOutput(false) for offline rendering")

// Format is the beep format of offline renders: 16-bit stereo at the
// session's sample rate.
func (s *Session) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(s.SampleRate()),
		NumChannels: 2,
		Precision:   2,
	}
}

// Streamer exposes the engine as an endless beep.Streamer. Each call to
// Stream advances the engine's audio clock.
func (s *Session) Streamer() beep.Streamer {
	return &engineStreamer{s: s}
}

type engineStreamer struct {
	s   *Session
	buf []float32
}

func (e *engineStreamer) Stream(samples [][2]float64) (int, bool) {
	need := 2 * len(samples)
	if cap(e.buf) < need {
		e.buf = make([]float32, need)
	}
	e.buf = e.buf[:need]
	e.s.engine.Process(e.buf)
	for i := range samples {
		samples[i][0] = float64(e.buf[2*i])
		samples[i][1] = float64(e.buf[2*i+1])
	}
	return len(samples), true
}

func (e *engineStreamer) Err() error { return nil }

// RenderSamples pulls the given number of seconds from the engine as
// interleaved stereo float32.
func (s *Session) RenderSamples(seconds float64) ([]float32, error) {
	if err := s.offline(); err != nil {
		return nil, err
	}
	frames := int(float64(s.SampleRate()) * seconds)
	if frames < 0 {
		frames = 0
	}
	out := make([]float32, frames*2)
	s.engine.Process(out)
	return out, nil
}

// RenderWAV encodes the given number of seconds from the engine to w as a
// 16-bit stereo WAV file.
func (s *Session) RenderWAV(w io.WriteSeeker, seconds float64) error {
	if err := s.offline(); err != nil {
		return err
	}
	format := s.Format()
	n := format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if err := wav.Encode(w, beep.Take(n, s.Streamer()), format); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	return nil
}

func (s *Session) offline() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.output {
		return ErrOutputAttached
	}
	return nil
}
