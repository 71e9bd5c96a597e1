package observation

import (
	"math"
	"time"
)

// Snapshot is one observation's metadata as the engine consumes it.
// RA and Dec are degrees; either may be NaN when the upstream value was not
// numeric, which the parameter mapper coerces to safe defaults.
type Snapshot struct {
	TargetName string
	RA         float64
	Dec        float64
	Instrument string
	Filter     string
	TargetType string
	CapturedAt time.Time
}

// Default is the snapshot used before the first successful fetch and whenever
// no last-known-good observation exists.
func Default() Snapshot {
	return Snapshot{
		TargetName: "SMACS 0723",
		RA:         110.84,
		Dec:        -73.45,
		Instrument: "NIRCam",
		Filter:     "F277W",
		TargetType: "galaxy cluster",
		CapturedAt: time.Date(2022, time.June, 7, 0, 0, 0, 0, time.UTC),
	}
}

// Equal reports value equality on the visible fields. NaN coordinates compare
// equal to each other.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.TargetName == o.TargetName &&
		sameFloat(s.RA, o.RA) &&
		sameFloat(s.Dec, o.Dec) &&
		s.Instrument == o.Instrument &&
		s.Filter == o.Filter &&
		s.TargetType == o.TargetType &&
		s.CapturedAt.Equal(o.CapturedAt)
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
