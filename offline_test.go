package skydrone

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestRenderWAVWritesHeaderAndFrames(t *testing.T) {
	s := newOfflineSession(t)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "drone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	const seconds = 0.5
	if err := s.RenderWAV(f, seconds); err != nil {
		t.Fatalf("render wav: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE header")
	}
	if ch := binary.LittleEndian.Uint16(data[22:]); ch != 2 {
		t.Fatalf("channels = %d", ch)
	}
	if sr := binary.LittleEndian.Uint32(data[24:]); int(sr) != s.SampleRate() {
		t.Fatalf("sample rate = %d", sr)
	}
	frames := int(seconds * float64(s.SampleRate()))
	if want := 44 + frames*4; len(data) != want {
		t.Fatalf("file size = %d, want %d", len(data), want)
	}
}

func TestRenderIsDeterministicPerSeed(t *testing.T) {
	render := func(seed uint64) [32]byte {
		s := newOfflineSession(t, WithSeed(seed), WithVariant(VariantRich))
		if err := s.Start(); err != nil {
			t.Fatal(err)
		}
		s.Observe(DefaultObservation())
		samples, err := s.RenderSamples(1.2)
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		for _, v := range samples {
			_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(v))
		}
		return sha256.Sum256(buf.Bytes())
	}
	if render(7) != render(7) {
		t.Fatal("same seed rendered different audio")
	}
	if render(7) == render(8) {
		t.Fatal("different seeds rendered identical audio")
	}
}

func TestRenderedDroneIsAudibleAndBounded(t *testing.T) {
	s := newOfflineSession(t)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	samples, err := s.RenderSamples(2.5)
	if err != nil {
		t.Fatal(err)
	}
	if s.OutputLevel() <= 0.001 {
		t.Fatalf("output level %v after fade in", s.OutputLevel())
	}
	for i, v := range samples {
		if math.IsNaN(float64(v)) || math.Abs(float64(v)) > 1 {
			t.Fatalf("sample %d = %v", i, v)
		}
	}
}

func TestStopFadesToSilence(t *testing.T) {
	s := newOfflineSession(t)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RenderSamples(2.2); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	tail, err := s.RenderSamples(0.6)
	if err != nil {
		t.Fatal(err)
	}
	last := tail[len(tail)-2048:]
	for i, v := range last {
		if v != 0 {
			t.Fatalf("sample %d after stop = %v", i, v)
		}
	}
	if s.OutputLevel() != 0 {
		t.Fatalf("output level %v after stop", s.OutputLevel())
	}
}

func TestOfflineRenderRefusedWithDevice(t *testing.T) {
	s, err := NewSession(WithOutput(true))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.RenderSamples(0.1); !errors.Is(err, ErrOutputAttached) {
		t.Fatalf("expected ErrOutputAttached, got %v", err)
	}
	if err := s.RenderWAV(nopWriteSeeker{}, 0.1); !errors.Is(err, ErrOutputAttached) {
		t.Fatalf("expected ErrOutputAttached, got %v", err)
	}
}

type nopWriteSeeker struct{}

func (nopWriteSeeker) Write(p []byte) (int, error) { return len(p), nil }
func (nopWriteSeeker) Seek(int64, int) (int64, error) { return 0, io.EOF }
