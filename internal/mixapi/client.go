// Package mixapi talks to the backend mix-render API. Audio work happens
// entirely server-side; this client only moves job state and opaque URLs.
package mixapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Client communicates with the mix-render REST API.
type Client struct {
	apiURL string
	http   *http.Client
}

// NewClient creates a mix API client.
func NewClient(apiURL string) *Client {
	return &Client{
		apiURL: apiURL,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// MixRequest contains the per-track settings submitted for a mix render.
type MixRequest struct {
	ProjectID string             `json:"project_id"`
	Levels    map[string]float64 `json:"levels"`  // track name -> gain
	Preset    string             `json:"preset"`  // mastering preset name
}

// Job statuses reported by the backend.
const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// JobStatus is one poll result for a mix job.
type JobStatus struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	PreviewURL string `json:"preview_url"` // set once status is done
	Error      string `json:"error"`
}

type startResp struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

// StartMix submits a mix render and returns the job ID.
func (c *Client) StartMix(ctx context.Context, req MixRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/mix", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submit mix: %w", err)
	}
	defer resp.Body.Close()

	var result startResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, result.Error)
	}
	if result.JobID == "" {
		return "", fmt.Errorf("no job id in response")
	}
	return result.JobID, nil
}

// Status fetches the current state of a mix job.
func (c *Client) Status(ctx context.Context, jobID string) (JobStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/mix/"+jobID+"/status", nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return JobStatus{}, fmt.Errorf("poll status: %w", err)
	}
	defer resp.Body.Close()

	var status JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return JobStatus{}, fmt.Errorf("decode status: %w", err)
	}
	return status, nil
}

// PollUntilDone polls the job until it finishes, returning the preview URL.
// Transient poll errors are retried on the next interval.
func (c *Client) PollUntilDone(ctx context.Context, jobID string, interval time.Duration) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		status, err := c.Status(ctx, jobID)
		if err != nil {
			log.Printf("Poll error: %v, retrying...", err)
			time.Sleep(interval)
			continue
		}

		switch status.Status {
		case StatusDone:
			if status.PreviewURL == "" {
				return "", fmt.Errorf("job %s done without a preview URL", jobID)
			}
			return status.PreviewURL, nil
		case StatusFailed:
			return "", fmt.Errorf("mix failed for job %s: %s", jobID, status.Error)
		default:
			time.Sleep(interval)
		}
	}
}
