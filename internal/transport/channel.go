// Package transport mirrors backend playback state and issues transport
// commands. State only ever flows backend -> client: commands are fired at
// the backend and the local State changes on the next stream snapshot, never
// as a side effect of the command itself.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Channel maintains the transport snapshot stream for one mix job and
// exposes fire-and-forget playback commands.
type Channel struct {
	jobID     string
	wsBaseURL string
	apiURL    string
	http      *http.Client

	conn *websocket.Conn

	mu      sync.RWMutex
	state   State
	open    bool
	dropped int
}

// NewChannel creates a transport channel for the given mix job. Dial must be
// called before State reflects anything.
func NewChannel(apiBaseURL, wsBaseURL, jobID string, commandTimeout time.Duration) *Channel {
	return &Channel{
		jobID:     jobID,
		wsBaseURL: wsBaseURL,
		apiURL:    apiBaseURL,
		http:      &http.Client{Timeout: commandTimeout},
	}
}

// Dial opens the snapshot stream and starts consuming it. The read loop runs
// until the connection closes or ctx is cancelled.
func (c *Channel) Dial(ctx context.Context) error {
	url := fmt.Sprintf("%s/mix/%s/transport?client_id=%s", c.wsBaseURL, c.jobID, uuid.New().String())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial transport stream: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.open = true
	c.mu.Unlock()

	go c.readLoop()
	return nil
}

func (c *Channel) readLoop() {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.open = false
			c.mu.Unlock()
			return
		}

		var st State
		if err := json.Unmarshal(msg, &st); err != nil {
			// One bad frame must not drop a live view; count it and move on.
			c.mu.Lock()
			c.dropped++
			c.mu.Unlock()
			continue
		}

		c.mu.Lock()
		c.state = st
		c.mu.Unlock()
	}
}

// State returns the latest transport snapshot.
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Open reports whether the snapshot stream is still connected.
func (c *Channel) Open() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// Dropped returns the number of undecodable snapshot messages discarded.
func (c *Channel) Dropped() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dropped
}

// Play starts backend playback.
func (c *Channel) Play(ctx context.Context) { c.send(ctx, "play", nil) }

// Pause pauses backend playback.
func (c *Channel) Pause(ctx context.Context) { c.send(ctx, "pause", nil) }

// Stop stops backend playback.
func (c *Channel) Stop(ctx context.Context) { c.send(ctx, "stop", nil) }

// Seek requests a jump to the given position in seconds.
func (c *Channel) Seek(ctx context.Context, seconds float64) {
	c.send(ctx, "seek", []byte(strconv.FormatFloat(seconds, 'f', -1, 64)))
}

// send fires a transport command without blocking the caller. Failures are
// logged, never returned: the only feedback loop is the next snapshot.
func (c *Channel) send(ctx context.Context, cmd string, body []byte) {
	url := fmt.Sprintf("%s/mix/%s/transport/%s", c.apiURL, c.jobID, cmd)
	go func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			log.Printf("Transport %s: build request: %v", cmd, err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			log.Printf("Transport %s failed: %v", cmd, err)
			return
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			log.Printf("Transport %s: backend returned %d", cmd, resp.StatusCode)
		}
	}()
}

// Close tears down the snapshot stream. Safe to call before Dial.
func (c *Channel) Close() {
	c.mu.Lock()
	conn := c.conn
	c.open = false
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}
