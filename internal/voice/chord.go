package voice

import (
	"math"
	"strings"
)

// DefaultMode is used for empty or unknown chord modes.
const DefaultMode = "MAJ"

// RootFrequency is the pitch of voice 0 at root offset 0 (C2).
const RootFrequency = 65.40639

// MaxRootOffset bounds the chord root in semitones either side of C2.
const MaxRootOffset = 12

// Semitone offsets from the root, lowest voice first. Each table covers the
// rich variant; the compact variant uses the first four entries.
var chordTables = map[string][]int{
	"MAJ": {0, 7, 12, 16, 19, 24, 28, 31, 36},
	"MIN": {0, 7, 12, 15, 19, 24, 27, 31, 36},
	"SUS": {0, 7, 12, 14, 19, 24, 26, 31, 36},
	"DOM": {0, 7, 12, 16, 19, 22, 24, 28, 34},
	"LYD": {0, 7, 12, 16, 18, 19, 24, 30, 35},
	"DOR": {0, 7, 12, 15, 19, 21, 24, 27, 33},
}

// Modes lists the supported chord modes.
func Modes() []string {
	return []string{"MAJ", "MIN", "SUS", "DOM", "LYD", "DOR"}
}

// NormalizeMode upper-cases mode and resolves unknown names to DefaultMode.
func NormalizeMode(mode string) string {
	m := strings.ToUpper(strings.TrimSpace(mode))
	if _, ok := chordTables[m]; ok {
		return m
	}
	return DefaultMode
}

// ClampRoot limits a root offset to ±MaxRootOffset semitones.
func ClampRoot(root int) int {
	return max(-MaxRootOffset, min(MaxRootOffset, root))
}

// ChordFrequencies returns the n voice frequencies for root and mode.
// n is capped at the table length.
func ChordFrequencies(root int, mode string, n int) []float64 {
	table := chordTables[NormalizeMode(mode)]
	n = max(0, min(n, len(table)))
	root = ClampRoot(root)
	out := make([]float64, n)
	for i := range out {
		out[i] = RootFrequency * math.Pow(2, float64(root+table[i])/12)
	}
	return out
}
