package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type capturedCommand struct {
	path string
	body string
}

// newCommandServer records every transport command POST it receives.
func newCommandServer(t *testing.T) (*httptest.Server, chan capturedCommand) {
	t.Helper()
	captured := make(chan capturedCommand, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Command used method %s, want POST", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		captured <- capturedCommand{path: r.URL.Path, body: string(body)}
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func waitForCommand(t *testing.T, ch chan capturedCommand) capturedCommand {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for command request")
		return capturedCommand{}
	}
}

func TestCommandEndpoints(t *testing.T) {
	srv, captured := newCommandServer(t)
	c := NewChannel(srv.URL, "ws://unused", "job-42", time.Second)
	ctx := context.Background()

	c.Play(ctx)
	if got := waitForCommand(t, captured); got.path != "/mix/job-42/transport/play" || got.body != "" {
		t.Errorf("Play sent %+v", got)
	}

	c.Pause(ctx)
	if got := waitForCommand(t, captured); got.path != "/mix/job-42/transport/pause" {
		t.Errorf("Pause sent %+v", got)
	}

	c.Stop(ctx)
	if got := waitForCommand(t, captured); got.path != "/mix/job-42/transport/stop" {
		t.Errorf("Stop sent %+v", got)
	}
}

func TestSeekCarriesBarePosition(t *testing.T) {
	srv, captured := newCommandServer(t)
	c := NewChannel(srv.URL, "ws://unused", "job-42", time.Second)

	c.Seek(context.Background(), 12.5)
	got := waitForCommand(t, captured)
	if got.path != "/mix/job-42/transport/seek" {
		t.Errorf("Seek path = %q", got.path)
	}
	if got.body != "12.5" {
		t.Errorf("Seek body = %q, want bare number 12.5", got.body)
	}
}

func TestCommandFailureNotSurfaced(t *testing.T) {
	// Backend that rejects everything; commands must neither panic nor
	// mutate local state.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewChannel(srv.URL, "ws://unused", "job-42", time.Second)
	c.Play(context.Background())
	time.Sleep(100 * time.Millisecond)
	if c.State() != (State{}) {
		t.Error("Failed command mutated local state")
	}
}

// newSnapshotServer serves a websocket that writes each payload in msgs then
// blocks until the client disconnects.
func newSnapshotServer(t *testing.T, msgs []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		for _, m := range msgs {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSnapshotReplacesState(t *testing.T) {
	srv := newSnapshotServer(t, []string{
		`{"is_playing": true, "position": 10.0, "duration": 180.0}`,
		`{"is_playing": false, "position": 12.0, "duration": 180.0}`,
	})

	c := NewChannel("http://unused", wsURL(srv), "job-42", time.Second)
	if err := c.Dial(context.Background()); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	want := State{IsPlaying: false, Position: 12, Duration: 180}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("State = %+v, want %+v (last message wins)", c.State(), want)
}

func TestMalformedSnapshotDropped(t *testing.T) {
	srv := newSnapshotServer(t, []string{
		`{"is_playing": true, "position": 10.0, "duration": 180.0}`,
		`{not json`,
		`{"is_playing": true, "position": 11.0, "duration": 180.0}`,
	})

	c := NewChannel("http://unused", wsURL(srv), "job-42", time.Second)
	if err := c.Dial(context.Background()); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	want := State{IsPlaying: true, Position: 11, Duration: 180}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if c.State() != want {
		t.Fatalf("State = %+v, want %+v (stream must survive a bad frame)", c.State(), want)
	}
	if c.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", c.Dropped())
	}
	if !c.Open() {
		t.Error("Connection should stay open after a parse failure")
	}
}

func TestOpenReportsClose(t *testing.T) {
	srv := newSnapshotServer(t, nil)
	c := NewChannel("http://unused", wsURL(srv), "job-42", time.Second)
	if err := c.Dial(context.Background()); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if !c.Open() {
		t.Error("Open = false right after Dial")
	}

	c.Close()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !c.Open() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Open = true after Close")
}
