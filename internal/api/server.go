// Package api is the public HTTP surface: plan generation, job polling,
// lead capture, the vendor comparison endpoint and the streaming analysis.
package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/gate"
	"github.com/growthbench/planforge/internal/generation"
	"github.com/growthbench/planforge/internal/jobs"
	"github.com/growthbench/planforge/internal/metrics"
	"github.com/growthbench/planforge/internal/pkg/httputil"
)

// Config holds the HTTP-surface settings.
type Config struct {
	// APIKeys is the x-api-key allow-list. Empty disables the check.
	APIKeys []string `yaml:"api_keys"`
	// AllowedOrigins for CORS. Empty allows none beyond same-origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
	// RateLimit caps requests per client IP per window on public endpoints.
	// Zero disables limiting.
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
	// SyncWait is how long POST /v1/marketing-plan blocks before answering
	// with a job id instead of the plan (default 25s).
	SyncWait time.Duration `yaml:"sync_wait"`
	// PublicBaseURL prefixes poll_url in processing responses.
	PublicBaseURL string `yaml:"public_base_url"`
}

// Server wires the handlers to their collaborators.
type Server struct {
	cfg          Config
	gate         *gate.Service
	orchestrator *generation.Orchestrator
	jobs         jobs.Store
	catalog      []domain.VendorRecord
	webhooks     *webhookDispatcher
	router       *chi.Mux

	// live runs by public job id, for progress on the poll endpoint
	mu   sync.Mutex
	runs map[string]*generation.Run
}

// NewServer builds the router and all middleware.
func NewServer(cfg Config, gateSvc *gate.Service, orch *generation.Orchestrator,
	jobStore jobs.Store, catalog []domain.VendorRecord) *Server {

	if cfg.SyncWait <= 0 {
		cfg.SyncWait = 25 * time.Second
	}
	s := &Server{
		cfg:          cfg,
		gate:         gateSvc,
		orchestrator: orch,
		jobs:         jobStore,
		catalog:      catalog,
		webhooks:     newWebhookDispatcher(),
		runs:         make(map[string]*generation.Run),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(instrument)

	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "x-api-key"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	limiter := newRateLimiter(s.cfg.RateLimit, s.cfg.RateWindow)
	auth := apiKeyAuth(s.cfg.APIKeys)

	r.Route("/v1", func(r chi.Router) {
		r.Use(limiter.middleware)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/marketing-plan", s.handleGeneratePlan)
			r.Get("/marketing-plan/{job_id}", s.handlePollJob)
			r.Get("/analysis/stream", s.handleAnalysisStream)
		})

		r.Post("/leads", s.handleSubmitLead)
		r.Post("/leads/retry", s.handleRetryLeads)
		r.Get("/vendors", s.handleVendors)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}

// instrument records request latency per route pattern and status.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
