package viewport

import "testing"

func TestZoomStaysPowerOfTwo(t *testing.T) {
	s := New()
	seen := map[int]bool{}
	// Walk all the way up and back down
	for i := 0; i < 10; i++ {
		s = s.ZoomIn()
		seen[s.Zoom] = true
	}
	for i := 0; i < 10; i++ {
		s = s.ZoomOut()
		seen[s.Zoom] = true
	}
	for z := range seen {
		valid := false
		for v := MinZoom; v <= MaxZoom; v *= 2 {
			if z == v {
				valid = true
			}
		}
		if !valid {
			t.Errorf("Zoom reached invalid value %d", z)
		}
	}
}

func TestZoomInClampsAtMax(t *testing.T) {
	s := New()
	for i := 0; i < 20; i++ {
		s = s.ZoomIn()
	}
	if s.Zoom != MaxZoom {
		t.Errorf("Zoom = %d after repeated ZoomIn, want %d", s.Zoom, MaxZoom)
	}
	// One more is a no-op clamp
	if s.ZoomIn().Zoom != MaxZoom {
		t.Error("ZoomIn past max should be a no-op")
	}
}

func TestZoomOutClampsAtMin(t *testing.T) {
	s := New()
	if s.ZoomOut().Zoom != MinZoom {
		t.Error("ZoomOut at min should be a no-op")
	}
}

func TestPanRightClampsToBufferEnd(t *testing.T) {
	s := New()
	bufferLen := 3000
	for i := 0; i < 5; i++ {
		s = s.PanRight(bufferLen)
	}
	if s.Offset != bufferLen-1 {
		t.Errorf("Offset = %d after panning past end, want %d", s.Offset, bufferLen-1)
	}
}

func TestPanLeftNeverNegative(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s = s.PanLeft(100000)
	}
	if s.Offset != 0 {
		t.Errorf("Offset = %d after panning past start, want 0", s.Offset)
	}
}

func TestPanStepScalesWithZoom(t *testing.T) {
	s := New()
	s = s.PanRight(1 << 30)
	offsetAtZoom1 := s.Offset

	z := New().ZoomIn() // zoom 2
	z = z.PanRight(1 << 30)
	if z.Offset != offsetAtZoom1*2 {
		t.Errorf("Pan step at zoom 2 = %d, want %d", z.Offset, offsetAtZoom1*2)
	}
}

func TestPanRightEmptyBuffer(t *testing.T) {
	// Scenario: panning right with no samples leaves offset pinned at 0.
	s := New()
	s = s.PanRight(0)
	if s.Offset != 0 {
		t.Errorf("Offset = %d with empty buffer, want 0", s.Offset)
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name        string
		state       State
		canvasWidth int
		bufferLen   int
		wantStart   int
		wantEnd     int
	}{
		{"one-to-one", State{Zoom: 1}, 1000, 500, 0, 500},
		{"zoomed", State{Zoom: 4}, 1000, 10000, 0, 4000},
		{"offset past end", State{Zoom: 1, Offset: 600}, 1000, 500, 600, 600},
		{"empty buffer", State{Zoom: 1}, 1000, 0, 0, 0},
		{"window inside buffer", State{Zoom: 2, Offset: 100}, 10, 1000, 100, 120},
	}
	for _, tt := range tests {
		start, end := tt.state.Window(tt.canvasWidth, tt.bufferLen)
		if start != tt.wantStart || end != tt.wantEnd {
			t.Errorf("%s: Window = [%d, %d), want [%d, %d)", tt.name, start, end, tt.wantStart, tt.wantEnd)
		}
	}
}
