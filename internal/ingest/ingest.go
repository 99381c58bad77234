// Package ingest consumes the live multi-track sample stream for a mix job.
//
// Samples arrive in bursts, many messages per animation frame. Appends land
// in a pending accumulator and are promoted to the published TrackSet on a
// fixed cadence, so visible-state churn is bounded at 1/FlushInterval
// updates per second no matter how fast the backend sends.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/verseforge/mixview/internal/track"
)

// sampleChunk is one track's slice of an inbound stream message. Only the
// left channel is visualized.
type sampleChunk struct {
	L []float32 `json:"l"`
}

// Ingestor owns the sample-stream connection and the per-track buffers for
// one mix job. It is the single writer of the published TrackSet; readers
// take deep-copy snapshots.
type Ingestor struct {
	jobID      string
	wsBaseURL  string
	flushEvery time.Duration

	conn *websocket.Conn

	mu        sync.RWMutex
	pending   map[string][]float32
	published track.Set
	revision  uint64
	dropped   int
	open      bool

	updates  chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// NewIngestor creates an ingestor for the given mix job. Buffers exist and
// are empty before Dial; they grow only while the connection is up.
func NewIngestor(wsBaseURL, jobID string, flushEvery time.Duration) *Ingestor {
	return &Ingestor{
		jobID:      jobID,
		wsBaseURL:  wsBaseURL,
		flushEvery: flushEvery,
		pending:    make(map[string][]float32),
		published:  track.NewSet(),
		updates:    make(chan struct{}, 1),
		stop:       make(chan struct{}),
	}
}

// Dial opens the sample stream and starts the read and flush loops.
func (in *Ingestor) Dial(ctx context.Context) error {
	url := fmt.Sprintf("%s/mix/%s/stream?client_id=%s", in.wsBaseURL, in.jobID, uuid.New().String())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial sample stream: %w", err)
	}

	in.mu.Lock()
	in.conn = conn
	in.open = true
	in.mu.Unlock()

	go in.readLoop()
	go in.flushLoop()
	return nil
}

// readLoop appends inbound chunks to the pending accumulators. Malformed
// messages are counted and skipped; the connection stays up.
func (in *Ingestor) readLoop() {
	for {
		_, msg, err := in.conn.ReadMessage()
		if err != nil {
			in.mu.Lock()
			in.open = false
			in.mu.Unlock()
			return
		}

		var chunks map[string]sampleChunk
		if err := json.Unmarshal(msg, &chunks); err != nil {
			in.mu.Lock()
			in.dropped++
			in.mu.Unlock()
			continue
		}

		in.mu.Lock()
		for name, chunk := range chunks {
			if len(chunk.L) > 0 {
				in.pending[name] = append(in.pending[name], chunk.L...)
			}
		}
		in.mu.Unlock()
	}
}

// flushLoop promotes pending samples to the published set on a fixed tick.
func (in *Ingestor) flushLoop() {
	ticker := time.NewTicker(in.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-in.stop:
			return
		case <-ticker.C:
			in.flush()
		}
	}
}

// flush atomically moves all pending samples into a fresh published set.
// A flush with nothing pending leaves the revision untouched so consumers
// see no spurious update.
func (in *Ingestor) flush() {
	in.mu.Lock()

	hasPending := false
	for _, buf := range in.pending {
		if len(buf) > 0 {
			hasPending = true
			break
		}
	}
	if !hasPending {
		in.mu.Unlock()
		return
	}

	next := in.published.Clone()
	for name, buf := range in.pending {
		next[name] = append(next[name], buf...)
		in.pending[name] = nil
	}
	in.published = next
	in.revision++
	in.mu.Unlock()

	// Coalesced change signal: a slow consumer sees one pending update.
	select {
	case in.updates <- struct{}{}:
	default:
	}
}

// Snapshot returns a deep copy of the published TrackSet and its revision.
// The revision increments only when a flush actually moved samples.
func (in *Ingestor) Snapshot() (track.Set, uint64) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.published.Clone(), in.revision
}

// Updates signals whenever the published set changes. Signals coalesce.
func (in *Ingestor) Updates() <-chan struct{} {
	return in.updates
}

// Open reports whether the sample stream is still connected.
func (in *Ingestor) Open() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.open
}

// Dropped returns the number of undecodable stream messages discarded.
func (in *Ingestor) Dropped() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.dropped
}

// Close stops the flush loop and closes the connection. Published state is
// frozen as of the last flush; pending samples that never flushed are lost.
func (in *Ingestor) Close() {
	in.stopOnce.Do(func() {
		close(in.stop)
	})
	in.mu.Lock()
	conn := in.conn
	in.open = false
	in.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}
