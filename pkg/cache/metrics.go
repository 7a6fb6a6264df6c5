package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "client_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// CacheMisses tracks cache misses, including expired entries.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "client_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// CacheEvictions tracks evictions by reason.
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"reason"}, // "lru", "expired", "invalidated"
	)

	// CacheEntries tracks the current number of entries in the store.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "client_cache_entries",
			Help: "Current number of entries in the cache",
		},
	)
)
