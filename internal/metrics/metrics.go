// Package metrics exposes Prometheus instrumentation for the plan
// generation workflow and the HTTP surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GenerationsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planforge_generations_started_total",
		Help: "Generation runs started, by language.",
	}, []string{"language"})

	GenerationsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planforge_generations_completed_total",
		Help: "Generation runs completed, by plan source (db or ai).",
	}, []string{"source"})

	GenerationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planforge_generations_failed_total",
		Help: "Generation runs failed, by error kind.",
	}, []string{"kind"})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planforge_generation_duration_seconds",
		Help:    "Wall-clock duration of generation runs.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	LeadsCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planforge_leads_captured_total",
		Help: "Leads accepted through the email gate.",
	})

	LeadsQueued = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planforge_leads_queued",
		Help: "Leads waiting for collector retry.",
	})

	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planforge_webhook_deliveries_total",
		Help: "Webhook delivery attempts, by outcome.",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planforge_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
)

// Handler serves the /metrics scrape endpoint.
func Handler() http.Handler { return promhttp.Handler() }
