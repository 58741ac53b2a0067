package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// slicesTotal counts sliced files by outcome
	slicesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pygather_slices_total",
		Help: "Total files sliced by status",
	}, []string{"status"})

	// sliceDuration tracks the time to slice one file
	sliceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pygather_slice_duration_seconds",
		Help:    "Time to slice one file in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	})

	// dependencyEdgesTotal counts reported dependency edges by kind
	dependencyEdgesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pygather_dependency_edges_total",
		Help: "Total dependency edges reported by kind",
	}, []string{"kind"})

	// cacheHitsTotal counts result cache hits
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pygather_cache_hits_total",
		Help: "Total result cache hits",
	})
)

const (
	statusOK    = "ok"
	statusError = "error"
)
