package agentapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growthbench/planforge/internal/domain"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"complete", StatusComplete},
		{"completed", StatusComplete},
		{"succeeded", StatusComplete},
		{"success", StatusComplete},
		{"done", StatusComplete},
		{"error", StatusError},
		{"failed", StatusError},
		{"failure", StatusError},
		{"in_progress", StatusInProgress},
		{"pending", StatusInProgress},
		{"", StatusInProgress},
		{"something-new", StatusInProgress},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeStatus(tt.raw), "raw=%q", tt.raw)
	}
}

func TestCreateJobReturnsHandle(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/conversations", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "agent-42", body["agent_id"])

		json.NewEncoder(w).Encode(map[string]string{"conversation_id": "conv-123"})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret", AgentID: "agent-42"})
	handle, err := c.CreateJob(context.Background(), CreateJobInput{
		Domain:   "acme.io",
		Language: domain.LanguageEN,
		Prompt:   "analyze acme.io",
	})
	require.NoError(t, err)
	assert.Equal(t, "conv-123", handle.JobID)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestCreateJobFallsBackToJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"job_id": "job-9"})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	handle, err := c.CreateJob(context.Background(), CreateJobInput{Domain: "acme.io"})
	require.NoError(t, err)
	assert.Equal(t, "job-9", handle.JobID)
}

func TestCreateJobMissingIdentifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.CreateJob(context.Background(), CreateJobInput{Domain: "acme.io"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no job identifier")
}

func TestCreateJobUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.CreateJob(context.Background(), CreateJobInput{Domain: "acme.io"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.CreateJob(context.Background(), CreateJobInput{Domain: "acme.io"})
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.JobStatus(context.Background(), "any")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.OpenStream(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestJobStatusPassesContentThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/conversations/conv-123", r.URL.Path)
		w.Write([]byte(`{"status":"completed","content":{"company_summary":{"name":"Acme"}}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	result, err := c.JobStatus(context.Background(), "conv-123")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, result.Status)
	assert.JSONEq(t, `{"company_summary":{"name":"Acme"}}`, string(result.Content))
	assert.Nil(t, result.Debug)
}

func TestJobStatusErrorCarriesDebug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"failed","error":"model refused"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	result, err := c.JobStatus(context.Background(), "conv-123")
	require.NoError(t, err)
	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, "model refused", result.ErrorMessage)
	require.NotNil(t, result.Debug)
	assert.Equal(t, "object", result.Debug.ResultType)
	assert.Contains(t, result.Debug.Preview, "model refused")
}

func TestJobStatusErrorWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	result, err := c.JobStatus(context.Background(), "conv-123")
	require.NoError(t, err)
	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, "agent reported an unspecified error", result.ErrorMessage)
}

func TestOpenStreamReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/conversations/stream", r.URL.Path)
		require.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Write([]byte("data: {\"type\":\"log\",\"message\":\"starting\"}\n"))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	body, err := c.OpenStream(context.Background(), "analyze acme.io")
	require.NoError(t, err)
	defer body.Close()
}
