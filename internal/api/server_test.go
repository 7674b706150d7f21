package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growthbench/planforge/internal/agentapi"
	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/gate"
	"github.com/growthbench/planforge/internal/generation"
	"github.com/growthbench/planforge/internal/jobs"
	"github.com/growthbench/planforge/internal/repository/memory"
	"github.com/growthbench/planforge/internal/vendors"
)

var planPayload = json.RawMessage(`{
	"company_summary": {"name": "Acme", "activities": "freight", "target": "SMBs"},
	"introduction": "Acme moves freight."
}`)

// stubBackend answers every poll with the configured status sequence and
// repeats the last entry.
type stubBackend struct {
	mu        sync.Mutex
	createErr error
	statuses  []agentapi.StatusResult
	polls     int
}

func (b *stubBackend) CreateJob(_ context.Context, _ agentapi.CreateJobInput) (domain.JobHandle, error) {
	if b.createErr != nil {
		return domain.JobHandle{}, b.createErr
	}
	return domain.JobHandle{JobID: "upstream-1", CreatedAt: time.Now()}, nil
}

func (b *stubBackend) JobStatus(_ context.Context, _ string) (agentapi.StatusResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polls++
	idx := b.polls - 1
	if idx >= len(b.statuses) {
		idx = len(b.statuses) - 1
	}
	if len(b.statuses) == 0 {
		return agentapi.StatusResult{Status: agentapi.StatusInProgress}, nil
	}
	return b.statuses[idx], nil
}

type testEnv struct {
	server    *Server
	store     *memory.PlanStore
	collector *httptest.Server
}

func newTestEnv(t *testing.T, cfg Config, backend agentapi.Backend) *testEnv {
	t.Helper()

	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(collector.Close)

	store := memory.NewPlanStore()
	orch := generation.New(generation.Config{
		PollInterval: 2 * time.Millisecond,
		MaxAttempts:  200,
	}, store, backend)

	gateSvc := gate.NewService(gate.Config{},
		gate.NewMemoryStore(), gate.NewCollector(collector.URL, 10), nil)

	catalog, err := vendors.LoadCatalog()
	require.NoError(t, err)

	if cfg.SyncWait == 0 {
		cfg.SyncWait = time.Second
	}
	srv := NewServer(cfg, gateSvc, orch, jobs.NewMemoryStore(0), catalog)
	return &testEnv{server: srv, store: store, collector: collector}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, Config{}, &stubBackend{})
	rec := doJSON(t, env.server.Handler(), http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	env := newTestEnv(t, Config{APIKeys: []string{"key-a", "key-b"}}, &stubBackend{})

	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/marketing-plan",
		map[string]string{"domain": "acme.io"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, env.server.Handler(), http.MethodPost, "/v1/marketing-plan",
		map[string]string{"domain": "acme.io"}, map[string]string{"x-api-key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateMissingDomain(t *testing.T) {
	env := newTestEnv(t, Config{}, &stubBackend{})
	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/marketing-plan",
		map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeneratePlaceholderDomainIsValidationError(t *testing.T) {
	env := newTestEnv(t, Config{}, &stubBackend{})
	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/marketing-plan",
		map[string]string{"domain": "example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body["code"])
}

func TestGenerateCompletesSynchronously(t *testing.T) {
	backend := &stubBackend{statuses: []agentapi.StatusResult{
		{Status: agentapi.StatusComplete, Content: planPayload},
	}}
	env := newTestEnv(t, Config{APIKeys: []string{"key-a"}}, backend)

	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/marketing-plan",
		map[string]string{"domain": "acme.io", "language": "en"},
		map[string]string{"x-api-key": "key-a"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp planResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "complete", resp.Status)
	assert.Equal(t, domain.PlanSourceAI, resp.Source)
	require.NotNil(t, resp.Plan)
	assert.Equal(t, "Acme", resp.Plan.CompanySummary.Name)
}

func TestGenerateStoreHitIsSourceDB(t *testing.T) {
	env := newTestEnv(t, Config{}, &stubBackend{})
	require.NoError(t, env.store.Upsert(context.Background(), domain.StoredPlan{
		NormalizedDomain: "acme.io",
		Language:         domain.LanguageEN,
		Plan:             domain.MarketingPlan{Introduction: "cached"},
	}))

	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/marketing-plan",
		map[string]string{"domain": "acme.io"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp planResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.PlanSourceDB, resp.Source)
}

func TestGenerateReturnsJobWhenSlow(t *testing.T) {
	env := newTestEnv(t, Config{SyncWait: 10 * time.Millisecond, PublicBaseURL: "https://api.growthbench.example"},
		&stubBackend{statuses: []agentapi.StatusResult{{Status: agentapi.StatusInProgress}}})

	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/marketing-plan",
		map[string]string{"domain": "slowco.io"}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp planResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "processing", resp.Status)
	require.NotEmpty(t, resp.JobID)
	assert.Equal(t, "https://api.growthbench.example/v1/marketing-plan/"+resp.JobID, resp.PollURL)

	// While in flight the poll endpoint reports progress.
	poll := doJSON(t, env.server.Handler(), http.MethodGet, "/v1/marketing-plan/"+resp.JobID, nil, nil)
	require.Equal(t, http.StatusOK, poll.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(poll.Body.Bytes(), &status))
	assert.Equal(t, string(domain.JobProcessing), status["status"])
}

func TestPollCompletedJob(t *testing.T) {
	backend := &stubBackend{statuses: []agentapi.StatusResult{
		{Status: agentapi.StatusInProgress},
		{Status: agentapi.StatusComplete, Content: planPayload},
	}}
	env := newTestEnv(t, Config{SyncWait: time.Millisecond}, backend)

	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/marketing-plan",
		map[string]string{"domain": "acme.io"}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp planResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Eventually(t, func() bool {
		poll := doJSON(t, env.server.Handler(), http.MethodGet, "/v1/marketing-plan/"+resp.JobID, nil, nil)
		if poll.Code != http.StatusOK {
			return false
		}
		var rec domain.JobRecord
		if json.Unmarshal(poll.Body.Bytes(), &rec) != nil {
			return false
		}
		return rec.Status == domain.JobComplete && rec.Plan != nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPollUnknownJob(t *testing.T) {
	env := newTestEnv(t, Config{}, &stubBackend{})
	rec := doJSON(t, env.server.Handler(), http.MethodGet, "/v1/marketing-plan/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateNotConfiguredIs503(t *testing.T) {
	env := newTestEnv(t, Config{}, &stubBackend{createErr: agentapi.ErrNotConfigured})
	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/marketing-plan",
		map[string]string{"domain": "acme.io"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGenerateUpstreamErrorIs502(t *testing.T) {
	env := newTestEnv(t, Config{}, &stubBackend{statuses: []agentapi.StatusResult{
		{Status: agentapi.StatusError, ErrorMessage: "model refused"},
	}})
	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/marketing-plan",
		map[string]string{"domain": "acme.io"}, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGenerateTimeoutIs504(t *testing.T) {
	env := newTestEnv(t, Config{}, &stubBackend{statuses: []agentapi.StatusResult{
		{Status: agentapi.StatusInProgress},
	}})
	rec := doJSON(t, env.server.Handler(), http.MethodPost, "/v1/marketing-plan",
		map[string]string{"domain": "acme.io"}, nil)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestRateLimitReturns429(t *testing.T) {
	env := newTestEnv(t, Config{RateLimit: 2, RateWindow: time.Minute}, &stubBackend{})

	for i := 0; i < 2; i++ {
		rec := doJSON(t, env.server.Handler(), http.MethodGet, "/v1/vendors", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := doJSON(t, env.server.Handler(), http.MethodGet, "/v1/vendors", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
