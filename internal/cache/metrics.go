package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sflens_cache_lookups_total",
		Help: "Cache lookups by cache and result (hit, stale, miss)",
	}, []string{"cache", "result"})

	invalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sflens_cache_invalidations_total",
		Help: "Explicit cache invalidations",
	}, []string{"cache"})

	entries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sflens_cache_entries",
		Help: "Number of entries currently held per cache",
	}, []string{"cache"})
)
