package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Backend connection
	APIBaseURL string // REST base URL for mix jobs and transport commands
	WSBaseURL  string // websocket base URL for sample/transport streams

	// Mixing surface
	CanvasWidth  int
	CanvasHeight int

	// Streaming behavior
	FlushInterval  time.Duration // pending-to-published flush cadence
	CommandTimeout time.Duration // transport command request timeout

	// Mix job polling
	PollInterval time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		APIBaseURL: envStr("MIXVIEW_API_URL", "http://localhost:8000"),
		WSBaseURL:  envStr("MIXVIEW_WS_URL", "ws://localhost:8000"),

		CanvasWidth:  envInt("MIXVIEW_CANVAS_WIDTH", 1000),
		CanvasHeight: envInt("MIXVIEW_CANVAS_HEIGHT", 360),

		FlushInterval:  time.Duration(envInt("MIXVIEW_FLUSH_MS", 50)) * time.Millisecond,
		CommandTimeout: time.Duration(envInt("MIXVIEW_COMMAND_TIMEOUT_MS", 5000)) * time.Millisecond,

		PollInterval: time.Duration(envInt("MIXVIEW_POLL_MS", 2000)) * time.Millisecond,
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
