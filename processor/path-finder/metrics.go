package pathfinder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// pathQueryTotal counts path requests by result.
	// Labels: "success" plus every ErrorKind.
	pathQueryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modulator_path_queries_total",
		Help: "Total path requests by result",
	}, []string{"result"})

	pathQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "modulator_path_duration_seconds",
		Help:    "Path request duration",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
	})

	pathHops = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "modulator_path_hops",
		Help:    "Key changes per issued progression",
		Buckets: []float64{0, 1, 2, 3, 4, 6, 8},
	})

	publishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modulator_publish_failures_total",
		Help: "Replies or issued progressions that could not be published",
	})
)
