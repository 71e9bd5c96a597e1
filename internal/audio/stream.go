// Package audio connects a SampleSource to the ebiten audio device.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource renders interleaved stereo float32 frames on demand.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal it has gone silent for
// good. When Finished returns true the stream returns io.EOF on the next
// Read, which lets the device player wind down.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// StreamReader adapts a SampleSource to the io.Reader the ebiten player
// pulls from: little-endian float32, two channels.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	tap    func([]float32)
	buf    []float32
}

// NewStreamReader wraps source. tap, if non-nil, sees every rendered buffer
// on the audio thread and must not block.
func NewStreamReader(source SampleSource, tap func([]float32)) *StreamReader {
	return &StreamReader{source: source, tap: tap}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	if r.tap != nil {
		r.tap(r.buf)
	}
	for i, v := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	n := frames * 8
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return n, io.EOF
	}
	return n, nil
}

func (r *StreamReader) Close() error { return nil }

// Player plays one SampleSource on the shared device context.
type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// sharedAudioContext returns the process-wide ebiten context. ebiten allows
// only one, so every later caller must ask for the same sample rate.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// NewPlayer opens a device player for source. The buffer size trades
// latency for robustness against scheduling hiccups.
func NewPlayer(sampleRate int, source SampleSource, tap func([]float32), bufferSize time.Duration) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source, tap)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, fmt.Errorf("creating audio player: %w", err)
	}
	if bufferSize > 0 {
		pl.SetBufferSize(bufferSize)
	}
	return &Player{
		player: pl,
		reader: reader,
	}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

// Position returns what the listener is hearing right now.
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

func (p *Player) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return fmt.Errorf("closing audio player: %w", err)
	}
	return p.reader.Close()
}
