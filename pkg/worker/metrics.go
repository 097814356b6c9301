package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	workerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_worker_requests_total",
		Help: "Requests handled by the worker by strategy and outcome",
	}, []string{"strategy", "outcome"})

	workerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portfolio_worker_request_duration_seconds",
		Help:    "Worker request handling duration in seconds by strategy",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	}, []string{"strategy"})

	workerRevalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_worker_revalidations_total",
		Help: "Background revalidations by result",
	}, []string{"result"}) // "updated", "not_stored", "failed", "shared"

	workerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "portfolio_worker_state",
		Help: "Lifecycle state per worker version (0 uninstalled .. 5 redundant)",
	}, []string{"version"})

	workerSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_worker_sync_forms_total",
		Help: "Pending form submissions flushed by background sync, by result",
	}, []string{"result"})
)

// Request outcomes.
const (
	outcomeHit           = "hit"
	outcomeNetwork       = "network"
	outcomeStale         = "stale"
	outcomeFallbackCache = "fallback_cache"
	outcomeFallbackError = "fallback_error"
	outcomePassthrough   = "passthrough"
	outcomeShare         = "share"
)
