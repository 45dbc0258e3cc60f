// Package research is an HTTP adapter for an asynchronous research backend:
// a prompt is submitted as a job, then polled until it reaches a terminal
// state. The poll loop itself lives in core; this client only speaks the
// wire protocol.
package research

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/oselabs/sleuth/internal/domain"
	"github.com/oselabs/sleuth/internal/xjson"
)

const defaultHTTPTimeout = 30 * time.Second

type submitRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type submitResponse struct {
	RequestID string `json:"request_id"`
}

type pollResponse struct {
	Status  string `json:"status"`
	Answer  string `json:"answer"`
	Content string `json:"content"`
}

// Client talks to the research REST API.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds the adapter. A missing API key fails fast rather than
// degrading later, per the configuration error policy.
func NewClient(cfg domain.ResearchConfig, apiKey string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("research api key: %w", domain.ErrMissingConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  apiKey,
		model:   cfg.Model,
		http:    &http.Client{Timeout: defaultHTTPTimeout},
		logger:  logger,
	}, nil
}

// Submit starts a research job and returns its handle. An empty handle with
// a nil error means the backend accepted the request but issued no id.
func (c *Client) Submit(ctx context.Context, prompt string) (string, error) {
	body, err := xjson.Marshal(submitRequest{Input: prompt, Model: c.model})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/research", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", domain.NewBackendError("research", "submit", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewBackendError("research", "submit", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", domain.NewBackendError("research", "submit",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(raw)))
	}

	var parsed submitResponse
	if err := xjson.Unmarshal(raw, &parsed); err != nil {
		return "", domain.NewBackendError("research", "submit", err)
	}

	c.logger.Debug("research job submitted", "request_id", parsed.RequestID)
	return parsed.RequestID, nil
}

// Poll fetches the current snapshot of a submitted job.
func (c *Client) Poll(ctx context.Context, id string) (domain.PollableJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/research/"+id, nil)
	if err != nil {
		return domain.PollableJob{}, err
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.PollableJob{}, domain.NewBackendError("research", "poll", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.PollableJob{}, domain.NewBackendError("research", "poll", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.PollableJob{}, domain.NewBackendError("research", "poll",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(raw)))
	}

	var parsed pollResponse
	if err := xjson.Unmarshal(raw, &parsed); err != nil {
		return domain.PollableJob{}, domain.NewBackendError("research", "poll", err)
	}

	answer := parsed.Answer
	if answer == "" {
		answer = parsed.Content
	}
	return domain.PollableJob{ID: id, Status: mapStatus(parsed.Status), Answer: answer}, nil
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

func mapStatus(s string) domain.JobStatus {
	switch s {
	case "completed":
		return domain.JobCompleted
	case "failed":
		return domain.JobFailed
	case "queued", "pending":
		return domain.JobQueued
	default:
		return domain.JobRunning
	}
}

func truncate(raw []byte) string {
	const limit = 200
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
