// Package engine wires the mixing-view components into one explicitly owned
// resource with a create/use/dispose lifecycle. Nothing here is global: a
// caller constructs an Engine per mixing view and closes it on teardown.
package engine

import (
	"context"
	"image"
	"log"
	"sync"
	"time"

	"github.com/verseforge/mixview/internal/compositor"
	"github.com/verseforge/mixview/internal/config"
	"github.com/verseforge/mixview/internal/ingest"
	"github.com/verseforge/mixview/internal/render"
	"github.com/verseforge/mixview/internal/track"
	"github.com/verseforge/mixview/internal/transport"
	"github.com/verseforge/mixview/internal/viewport"
)

// Health describes the engine's degradation state. The streams never retry
// on their own; a closed stream just stops the buffers growing, and this is
// how a UI finds out.
type Health struct {
	SampleStreamOpen    bool
	TransportStreamOpen bool
	DroppedMessages     int
}

// Engine owns the ingestor, transport channel, render worker, and
// compositor for one mixing session.
type Engine struct {
	cfg   config.Config
	jobID string

	ingestor  *ingest.Ingestor
	transport *transport.Channel
	comp      *compositor.Compositor

	mu     sync.RWMutex
	view   viewport.State
	cancel context.CancelFunc
}

// New creates an engine for the given mix job. Nothing connects until Start.
func New(cfg config.Config, jobID string) *Engine {
	worker := render.NewWorker()
	return &Engine{
		cfg:       cfg,
		jobID:     jobID,
		ingestor:  ingest.NewIngestor(cfg.WSBaseURL, jobID, cfg.FlushInterval),
		transport: transport.NewChannel(cfg.APIBaseURL, cfg.WSBaseURL, jobID, cfg.CommandTimeout),
		comp:      compositor.New(cfg.CanvasWidth, cfg.CanvasHeight, worker),
		view:      viewport.New(),
	}
}

// Start dials both streams and runs the engine loops until ctx is cancelled
// or Close is called.
func (e *Engine) Start(ctx context.Context) error {
	ctx, e.cancel = context.WithCancel(ctx)

	if err := e.ingestor.Dial(ctx); err != nil {
		return err
	}
	if err := e.transport.Dial(ctx); err != nil {
		e.ingestor.Close()
		return err
	}

	go e.comp.Run(ctx)
	go e.run(ctx)

	log.Printf("Mixing view engine started for job %s", e.jobID)
	return nil
}

// run is the engine's coordination loop. Track updates trigger render
// requests; a fixed tick recomputes the playhead from the latest transport
// snapshot.
func (e *Engine) run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-e.ingestor.Updates():
			e.requestRender()

		case <-ticker.C:
			tracks, _ := e.ingestor.Snapshot()
			e.comp.UpdatePlayhead(e.transport.State(), e.View(), tracks.MaxLen())
		}
	}
}

// requestRender snapshots tracks and viewport and hands them to the
// compositor. Safe from any goroutine.
func (e *Engine) requestRender() {
	tracks, _ := e.ingestor.Snapshot()
	e.comp.RequestRender(tracks, e.View())
}

// applyView computes the next viewport from the current one and re-renders.
// fn receives the current view and the bounding buffer length.
func (e *Engine) applyView(fn func(viewport.State, int) viewport.State) {
	tracks, _ := e.ingestor.Snapshot()

	e.mu.Lock()
	e.view = fn(e.view, tracks.MaxLen())
	view := e.view
	e.mu.Unlock()

	e.comp.RequestRender(tracks, view)
}

// ZoomIn doubles the zoom, clamped at the maximum.
func (e *Engine) ZoomIn() {
	e.applyView(func(v viewport.State, _ int) viewport.State { return v.ZoomIn() })
}

// ZoomOut halves the zoom, clamped at the minimum.
func (e *Engine) ZoomOut() {
	e.applyView(func(v viewport.State, _ int) viewport.State { return v.ZoomOut() })
}

// PanLeft shifts the view toward the start of the session.
func (e *Engine) PanLeft() {
	e.applyView(func(v viewport.State, bufLen int) viewport.State { return v.PanLeft(bufLen) })
}

// PanRight shifts the view toward the live edge.
func (e *Engine) PanRight() {
	e.applyView(func(v viewport.State, bufLen int) viewport.State { return v.PanRight(bufLen) })
}

// View returns the current viewport state.
func (e *Engine) View() viewport.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view
}

// Play, Pause, Stop, and Seek forward transport commands. They never block
// and never fail; the next transport snapshot is the only feedback.
func (e *Engine) Play(ctx context.Context)                  { e.transport.Play(ctx) }
func (e *Engine) Pause(ctx context.Context)                 { e.transport.Pause(ctx) }
func (e *Engine) Stop(ctx context.Context)                  { e.transport.Stop(ctx) }
func (e *Engine) Seek(ctx context.Context, seconds float64) { e.transport.Seek(ctx, seconds) }

// Transport returns the latest playback snapshot.
func (e *Engine) Transport() transport.State {
	return e.transport.State()
}

// Frame returns the current composited surface with the playhead overlaid.
func (e *Engine) Frame() *image.RGBA {
	return e.comp.Frame()
}

// Tracks returns a deep-copy snapshot of the published track buffers and
// their revision.
func (e *Engine) Tracks() (track.Set, uint64) {
	return e.ingestor.Snapshot()
}

// Health reports stream liveness and decode-failure counts.
func (e *Engine) Health() Health {
	return Health{
		SampleStreamOpen:    e.ingestor.Open(),
		TransportStreamOpen: e.transport.Open(),
		DroppedMessages:     e.ingestor.Dropped() + e.transport.Dropped(),
	}
}

// Close tears the engine down: both streams close, the flush timer stops,
// and render results arriving afterwards are dropped.
func (e *Engine) Close() {
	if e.cancel != nil {
		e.cancel()
	}
	e.ingestor.Close()
	e.transport.Close()
	e.comp.Close()
	log.Printf("Mixing view engine closed for job %s", e.jobID)
}
