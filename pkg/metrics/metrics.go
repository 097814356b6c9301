// Package metrics provides centralized Prometheus metrics registry for the
// portfolio edge. All metrics are defined in their respective packages
// (cache, client, precache, worker) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the edge.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer exposes the registered metrics, e.g. for promhttp.HandlerFor.
var Gatherer = prometheus.DefaultGatherer

// Names lists every metric family the edge registers.
var Names = []string{
	"portfolio_cache_hits_total",
	"portfolio_cache_misses_total",
	"portfolio_cache_writes_total",
	"portfolio_cache_skipped_total",
	"portfolio_cache_stores_deleted_total",
	"portfolio_cache_errors_total",
	"portfolio_origin_requests_total",
	"portfolio_origin_request_duration_seconds",
	"portfolio_origin_errors_total",
	"portfolio_origin_retries_total",
	"portfolio_origin_retry_backoff_seconds",
	"portfolio_origin_retry_exhausted_total",
	"portfolio_precache_results_total",
	"portfolio_worker_requests_total",
	"portfolio_worker_request_duration_seconds",
	"portfolio_worker_revalidations_total",
	"portfolio_worker_state",
	"portfolio_worker_sync_forms_total",
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - portfolio_cache_hits_total{store} (Counter): Cache hits by store
//   - portfolio_cache_misses_total (Counter): Lookups no store could answer
//   - portfolio_cache_writes_total{store} (Counter): Response snapshots written
//   - portfolio_cache_skipped_total{reason} (Counter): Responses kept out of the stores (partial_content, credentials, set_cookie, no_store, vary_all)
//   - portfolio_cache_stores_deleted_total (Counter): Stores removed by activation sweeps
//   - portfolio_cache_errors_total{operation} (Counter): Backend errors (open, match, put, delete, names, keys)
//
// Origin Metrics (pkg/client):
//   - portfolio_origin_requests_total{method, status} (Counter): Origin requests by method and status
//   - portfolio_origin_request_duration_seconds{method} (Histogram): Origin request duration
//   - portfolio_origin_errors_total{class} (Counter): Errors by class (client, server, network)
//   - portfolio_origin_retries_total (Counter): Retry attempts
//   - portfolio_origin_retry_backoff_seconds (Histogram): Backoff before retries
//   - portfolio_origin_retry_exhausted_total (Counter): Requests that exhausted max attempts
//
// Precache Metrics (pkg/precache):
//   - portfolio_precache_results_total{result} (Counter): Manifest assets fetched or failed
//
// Worker Metrics (pkg/worker):
//   - portfolio_worker_requests_total{strategy, outcome} (Counter): Handled requests
//   - portfolio_worker_request_duration_seconds{strategy} (Histogram): Handling duration
//   - portfolio_worker_revalidations_total{result} (Counter): Background revalidations
//   - portfolio_worker_state{version} (Gauge): Lifecycle state (0 uninstalled .. 5 redundant)
//   - portfolio_worker_sync_forms_total{result} (Counter): Forms flushed by background sync
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(portfolio_cache_hits_total[5m])) /
//   (sum(rate(portfolio_cache_hits_total[5m])) + sum(rate(portfolio_cache_misses_total[5m])))
//
//   # Offline Fallback Rate
//   sum(rate(portfolio_worker_requests_total{outcome=~"fallback_.*"}[5m])) /
//   sum(rate(portfolio_worker_requests_total[5m]))
//
//   # Origin Network Error Rate
//   rate(portfolio_origin_errors_total{class="network"}[5m])
//
//   # P95 Handling Latency by Strategy
//   histogram_quantile(0.95, sum by (le, strategy) (rate(portfolio_worker_request_duration_seconds_bucket[5m])))
