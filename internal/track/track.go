package track

import "image/color"

// Canonical track names for a mixing session, in band-drawing order.
var Names = []string{"beat", "vocal", "master"}

// Set maps a track name to its sample buffer: append-only PCM amplitudes
// in [-1, 1]. A Set handed across goroutines must be a deep copy; Clone
// is the only sanctioned way to produce one.
type Set map[string][]float32

// NewSet creates a Set with empty buffers for the canonical tracks.
func NewSet() Set {
	s := make(Set, len(Names))
	for _, name := range Names {
		s[name] = nil
	}
	return s
}

// Clone returns a deep copy of the set. Buffers are copied, never aliased.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for name, buf := range s {
		cp := make([]float32, len(buf))
		copy(cp, buf)
		out[name] = cp
	}
	return out
}

// MaxLen returns the length of the longest buffer in the set.
func (s Set) MaxLen() int {
	maxLen := 0
	for _, buf := range s {
		if len(buf) > maxLen {
			maxLen = len(buf)
		}
	}
	return maxLen
}

// Order returns the set's track names with canonical tracks first, in
// Names order, followed by any extra tracks sorted by name. Rendering
// assigns horizontal bands in this order so bands are stable across frames.
func (s Set) Order() []string {
	order := make([]string, 0, len(s))
	seen := make(map[string]bool, len(s))
	for _, name := range Names {
		if _, ok := s[name]; ok {
			order = append(order, name)
			seen[name] = true
		}
	}
	extras := make([]string, 0)
	for name := range s {
		if !seen[name] {
			extras = append(extras, name)
		}
	}
	// insertion sort, the extras set is tiny
	for i := 1; i < len(extras); i++ {
		for j := i; j > 0 && extras[j] < extras[j-1]; j-- {
			extras[j], extras[j-1] = extras[j-1], extras[j]
		}
	}
	return append(order, extras...)
}

var palette = map[string]color.RGBA{
	"beat":   {R: 0x4f, G: 0xc3, B: 0xf7, A: 0xff}, // light blue
	"vocal":  {R: 0xff, G: 0x8a, B: 0x65, A: 0xff}, // orange
	"master": {R: 0x81, G: 0xc7, B: 0x84, A: 0xff}, // green
}

// DefaultColor is used for track names without a palette entry.
var DefaultColor = color.RGBA{R: 0xb0, G: 0xbe, B: 0xc5, A: 0xff}

// Color returns the fixed tint for a track name.
func Color(name string) color.RGBA {
	if c, ok := palette[name]; ok {
		return c
	}
	return DefaultColor
}
