package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitLeadUnlocks(t *testing.T) {
	env := newTestEnv(t, Config{}, &stubBackend{})

	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/leads", map[string]any{
		"email":          "cto@acme.io",
		"session_key":    "sess-1",
		"language":       "en",
		"source_page":    "/benchmark",
		"trigger_reason": "advanced_content",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unlocked", body["status"])
	assert.NotEmpty(t, body["lead_id"])
}

func TestSubmitLeadInvalidEmail(t *testing.T) {
	env := newTestEnv(t, Config{}, &stubBackend{})

	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/leads", map[string]any{
		"email": "not-an-email",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_email", body["code"])
}

func TestRetryLeadsEndpoint(t *testing.T) {
	env := newTestEnv(t, Config{}, &stubBackend{})

	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/leads/retry", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["delivered"])
	assert.Equal(t, float64(0), body["remaining"])
}
