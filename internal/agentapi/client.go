package agentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/pkg/httpretry"
)

// ErrNotConfigured means no agent service URL is set. Handlers map this
// to 503.
var ErrNotConfigured = errors.New("agent service is not configured")

// Config holds agent service connection settings.
type Config struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// AgentID selects which hosted agent handles plan generation.
	AgentID string `yaml:"agent_id"`
	// RequestTimeout bounds a single HTTP call (default 30s).
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Client is the HTTP implementation of Backend.
type Client struct {
	cfg        Config
	httpClient httpretry.HTTPDoer
	rawClient  httpretry.HTTPDoer
}

// NewClient creates an agent service client. Status polls go through the
// retrying client; job creation does not (the orchestrator treats create
// failures as terminal, and a blind retry could start a duplicate job).
func NewClient(cfg Config) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	base := &http.Client{Timeout: cfg.RequestTimeout}
	return &Client{
		cfg:        cfg,
		httpClient: httpretry.NewRetryClient(base, 2),
		rawClient:  base,
	}
}

// SetHTTPClient sets a custom HTTP client for all calls (useful for testing).
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
	c.rawClient = client
}

// Configured reports whether the client can reach a real service.
func (c *Client) Configured() bool { return c.cfg.BaseURL != "" }

type createJobRequest struct {
	AgentID string            `json:"agent_id"`
	Prompt  string            `json:"prompt"`
	Context map[string]string `json:"context,omitempty"`
}

type createJobResponse struct {
	ConversationID string `json:"conversation_id"`
	JobID          string `json:"job_id"`
}

// CreateJob submits a generation job and returns its handle. A non-2xx
// answer or a missing identifier is an error; callers treat it as terminal.
func (c *Client) CreateJob(ctx context.Context, in CreateJobInput) (domain.JobHandle, error) {
	if !c.Configured() {
		return domain.JobHandle{}, ErrNotConfigured
	}

	body, err := json.Marshal(createJobRequest{
		AgentID: c.cfg.AgentID,
		Prompt:  in.Prompt,
		Context: map[string]string{
			"domain":   in.Domain,
			"language": string(in.Language),
			"industry": in.Industry,
		},
	})
	if err != nil {
		return domain.JobHandle{}, fmt.Errorf("marshal create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/conversations", bytes.NewReader(body))
	if err != nil {
		return domain.JobHandle{}, fmt.Errorf("build create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.rawClient.Do(req)
	if err != nil {
		return domain.JobHandle{}, fmt.Errorf("agent service unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.JobHandle{}, fmt.Errorf("read create response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.JobHandle{}, fmt.Errorf("agent service error (status %d): %s",
			resp.StatusCode, preview(respBody, 200))
	}

	var cr createJobResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return domain.JobHandle{}, fmt.Errorf("parse create response: %w", err)
	}
	jobID := cr.ConversationID
	if jobID == "" {
		jobID = cr.JobID
	}
	if jobID == "" {
		return domain.JobHandle{}, fmt.Errorf("agent service returned no job identifier: %s", preview(respBody, 200))
	}

	return domain.JobHandle{JobID: jobID, CreatedAt: time.Now().UTC()}, nil
}

type jobStatusResponse struct {
	Status  string          `json:"status"`
	Content json.RawMessage `json:"content"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// JobStatus polls one job. The raw content payload is passed through
// untouched for the plan parser.
func (c *Client) JobStatus(ctx context.Context, jobID string) (StatusResult, error) {
	if !c.Configured() {
		return StatusResult{}, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/v1/conversations/"+url.PathEscape(jobID), nil)
	if err != nil {
		return StatusResult{}, fmt.Errorf("build status request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return StatusResult{}, fmt.Errorf("agent service unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return StatusResult{}, fmt.Errorf("read status response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return StatusResult{}, fmt.Errorf("agent service error (status %d): %s",
			resp.StatusCode, preview(respBody, 200))
	}

	var sr jobStatusResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return StatusResult{}, fmt.Errorf("parse status response: %w", err)
	}

	result := StatusResult{Status: NormalizeStatus(sr.Status), Content: sr.Content}
	if result.Status == StatusError {
		msg := sr.Error
		if msg == "" {
			msg = sr.Message
		}
		if msg == "" {
			msg = "agent reported an unspecified error"
		}
		result.ErrorMessage = msg
		result.Debug = debugFor(respBody)
	}
	return result, nil
}

// OpenStream starts a streaming analysis and returns the raw event stream.
// The caller owns the ReadCloser.
func (c *Client) OpenStream(ctx context.Context, prompt string) (io.ReadCloser, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(createJobRequest{AgentID: c.cfg.AgentID, Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("marshal stream request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/conversations/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.rawClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent service unreachable: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("agent service error (status %d): %s", resp.StatusCode, preview(respBody, 200))
	}
	return resp.Body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

// debugFor summarizes a raw payload (shape, keys, preview) for operator
// diagnosis of upstream errors.
func debugFor(raw []byte) *DebugPayload {
	d := &DebugPayload{Preview: preview(raw, 300)}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil {
		d.ResultType = "object"
		keys := make([]byte, 0, 64)
		for k := range m {
			if len(keys) > 0 {
				keys = append(keys, ',')
			}
			keys = append(keys, k...)
		}
		d.Keys = string(keys)
	} else {
		d.ResultType = "text"
	}
	return d
}

func preview(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
