package transport

// State is an authoritative playback snapshot reported by the backend.
// Each inbound stream message fully replaces the previous value.
type State struct {
	IsPlaying bool    `json:"is_playing"`
	Position  float64 `json:"position"` // seconds
	Duration  float64 `json:"duration"` // seconds
}

// PlayheadRatio returns position/duration, or 0 when the duration is not
// known yet. The result is in [0, 1] whenever position <= duration.
func (s State) PlayheadRatio() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return s.Position / s.Duration
}

// PlayheadPixel maps the playhead ratio onto a surface of the given pixel
// width.
func (s State) PlayheadPixel(width int) int {
	return int(s.PlayheadRatio() * float64(width))
}
