package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

type rampSource struct {
	next     float32
	finished bool
}

func (s *rampSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = s.next
		s.next += 0.25
	}
}

func (s *rampSource) Finished() bool { return s.finished }

func TestStreamReaderEncodesFloat32LE(t *testing.T) {
	src := &rampSource{}
	var tapped int
	r := NewStreamReader(src, func(b []float32) { tapped += len(b) })
	p := make([]byte, 8*3+5) // three frames plus a partial one
	n, err := r.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != 24 {
		t.Fatalf("read %d bytes, want 24", n)
	}
	if tapped != 6 {
		t.Fatalf("tap saw %d samples, want 6", tapped)
	}
	for i := 0; i < 6; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if want := float32(i) * 0.25; got != want {
			t.Fatalf("sample %d = %v, want %v", i, got, want)
		}
	}
}

func TestStreamReaderShortBuffer(t *testing.T) {
	r := NewStreamReader(&rampSource{}, nil)
	n, err := r.Read(make([]byte, 7))
	if n != 0 || err != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", n, err)
	}
}

func TestStreamReaderEOFWhenFinished(t *testing.T) {
	src := &rampSource{finished: true}
	r := NewStreamReader(src, nil)
	n, err := r.Read(make([]byte, 16))
	if n != 16 || !errors.Is(err, io.EOF) {
		t.Fatalf("expected (16, EOF), got (%d, %v)", n, err)
	}
}
