package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by store name
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_hits_total",
			Help: "Total number of cache hits by store",
		},
		[]string{"store"},
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// CacheWrites tracks snapshots written by store name
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_writes_total",
			Help: "Total number of response snapshots written by store",
		},
		[]string{"store"},
	)

	// CacheSkipped tracks responses kept out of the stores by reason
	CacheSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_skipped_total",
			Help: "Total number of responses not stored, by reason",
		},
		[]string{"reason"},
	)

	// StoresDeleted tracks stores removed (version sweeps)
	StoresDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_cache_stores_deleted_total",
			Help: "Total number of cache stores deleted",
		},
	)

	// CacheErrors tracks backend operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "open", "match", "put", "delete", "names"
	)
)
