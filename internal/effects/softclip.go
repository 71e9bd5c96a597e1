package effects

import "math"

// SoftClip is the last stage before the output device: a tanh waveshaper
// that is transparent at low levels and never exceeds its ceiling.
type SoftClip struct {
	drive   float32
	ceiling float32
}

// NewSoftClip creates a soft clipper.
// drive: input gain into the shaper (1 = unity slope at zero)
// ceiling: absolute output bound, 0..1
func NewSoftClip(drive, ceiling float32) *SoftClip {
	if drive <= 0 {
		drive = 1
	}
	return &SoftClip{drive: drive, ceiling: clamp(ceiling, 0.05, 1)}
}

func (s *SoftClip) Process(l, r float32) (float32, float32) {
	return s.shape(l), s.shape(r)
}

func (s *SoftClip) shape(x float32) float32 {
	return s.ceiling * float32(math.Tanh(float64(x*s.drive/s.ceiling)))
}

func (s *SoftClip) Reset() {}
