// Package compositor owns the visible mixing surface: it forwards render
// requests to the worker, paints finished rasters, and overlays the playhead
// cursor.
package compositor

import (
	"context"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"

	"github.com/verseforge/mixview/internal/render"
	"github.com/verseforge/mixview/internal/track"
	"github.com/verseforge/mixview/internal/transport"
	"github.com/verseforge/mixview/internal/viewport"
)

// PlayheadOff marks a playhead outside the visible window. The cursor is
// moved off-screen rather than clamped to an edge, so an out-of-view
// playhead is unambiguous.
const PlayheadOff = -1

var cursorColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Compositor paints render results onto a fixed-size surface. Render
// completion is asynchronous; results older than the newest painted sequence
// are discarded so the view never flickers back to a stale frame.
type Compositor struct {
	width  int
	height int
	worker *render.Worker

	mu        sync.Mutex
	surface   *image.RGBA
	nextSeq   uint64
	lastSeq   uint64
	playheadX int
	closed    bool
}

// New creates a compositor over the given worker with a blank surface.
func New(width, height int, worker *render.Worker) *Compositor {
	return &Compositor{
		width:     width,
		height:    height,
		worker:    worker,
		surface:   image.NewRGBA(image.Rect(0, 0, width, height)),
		playheadX: PlayheadOff,
	}
}

// RequestRender snapshots nothing itself: tracks must already be a deep copy
// owned by the caller. The request is tagged with the next sequence number
// and handed to the worker.
func (c *Compositor) RequestRender(tracks track.Set, view viewport.State) {
	c.mu.Lock()
	c.nextSeq++
	seq := c.nextSeq
	c.mu.Unlock()

	c.worker.Submit(render.Request{
		Seq:    seq,
		Tracks: tracks,
		View:   view,
		Width:  c.width,
		Height: c.height,
	})
}

// Run consumes worker results until ctx is cancelled.
func (c *Compositor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-c.worker.Results():
			c.paint(res)
		}
	}
}

// paint draws a result onto the surface unless it is stale or the surface
// has been torn down.
func (c *Compositor) paint(res render.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || res.Seq <= c.lastSeq {
		return
	}
	draw.Draw(c.surface, c.surface.Bounds(), res.Image, image.Point{}, draw.Src)
	c.lastSeq = res.Seq
}

// UpdatePlayhead recomputes the cursor column from transport state mapped
// through the viewport. bufferLen is the waveform length used to bound the
// window, normally the longest track.
func (c *Compositor) UpdatePlayhead(ts transport.State, view viewport.State, bufferLen int) {
	playheadSample := ts.PlayheadRatio() * float64(bufferLen)

	x := PlayheadOff
	windowEnd := float64(view.Offset + c.width*view.Zoom)
	if playheadSample >= float64(view.Offset) && playheadSample < windowEnd {
		x = int((playheadSample - float64(view.Offset)) / float64(view.Zoom))
	}

	c.mu.Lock()
	c.playheadX = x
	c.mu.Unlock()
}

// PlayheadX returns the current cursor column, or PlayheadOff.
func (c *Compositor) PlayheadX() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playheadX
}

// Frame returns a copy of the surface with the playhead cursor overlaid.
func (c *Compositor) Frame() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := image.NewRGBA(c.surface.Bounds())
	draw.Draw(out, out.Bounds(), c.surface, image.Point{}, draw.Src)

	if c.playheadX >= 0 && c.playheadX < c.width {
		for y := 0; y < c.height; y++ {
			out.SetRGBA(c.playheadX, y, cursorColor)
		}
	}
	return out
}

// LastSeq returns the sequence number of the newest painted result.
func (c *Compositor) LastSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeq
}

// Close marks the surface as gone. Results arriving afterwards are dropped;
// the worker is stopped.
func (c *Compositor) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.worker.Close()
}
