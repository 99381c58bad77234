// Package viewport holds the zoom and pan state of the waveform view.
package viewport

const (
	MinZoom = 1
	MaxZoom = 64

	// Base pan distance in samples at zoom 1. The effective step scales
	// with zoom so on-screen pan speed stays constant across zoom levels.
	panStep = 2000
)

// State is the visible-window configuration: Zoom is the samples-per-pixel
// multiplier (a power of two in [MinZoom, MaxZoom]), Offset the first
// visible sample index. The zero value is not valid; use New.
type State struct {
	Zoom   int
	Offset int
}

// New returns the default viewport: zoom 1, offset 0.
func New() State {
	return State{Zoom: MinZoom}
}

// ZoomIn doubles the zoom, clamped to MaxZoom.
func (s State) ZoomIn() State {
	if s.Zoom*2 <= MaxZoom {
		s.Zoom *= 2
	}
	return s
}

// ZoomOut halves the zoom, clamped to MinZoom.
func (s State) ZoomOut() State {
	if s.Zoom/2 >= MinZoom {
		s.Zoom /= 2
	}
	return s
}

// PanRight shifts the offset right by panStep*zoom samples, clamped so the
// offset never exceeds bufferLen-1. Clamping never fails: out-of-range
// requests are adjusted, not rejected.
func (s State) PanRight(bufferLen int) State {
	s.Offset += panStep * s.Zoom
	return s.clamp(bufferLen)
}

// PanLeft shifts the offset left by panStep*zoom samples, clamped at 0.
func (s State) PanLeft(bufferLen int) State {
	s.Offset -= panStep * s.Zoom
	return s.clamp(bufferLen)
}

// Window returns the visible sample range [start, end) for a canvas of the
// given pixel width over a buffer of bufferLen samples. The range may be
// empty when the buffer is short or the offset is past its end.
func (s State) Window(canvasWidth, bufferLen int) (start, end int) {
	start = s.Offset
	if start < 0 {
		start = 0
	}
	end = s.Offset + canvasWidth*s.Zoom
	if end > bufferLen {
		end = bufferLen
	}
	if end < start {
		end = start
	}
	return start, end
}

func (s State) clamp(bufferLen int) State {
	maxOffset := bufferLen - 1
	if maxOffset < 0 {
		maxOffset = 0
	}
	if s.Offset > maxOffset {
		s.Offset = maxOffset
	}
	if s.Offset < 0 {
		s.Offset = 0
	}
	return s
}
