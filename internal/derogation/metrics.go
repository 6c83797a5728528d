package derogation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsTotal counts analysis runs by outcome (ok, invalid_input, unexpected, canceled).
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "derogation_runs_total",
		Help: "Total analysis runs by outcome",
	}, []string{"outcome"})

	// runDuration tracks end-to-end run latency.
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "derogation_run_duration_seconds",
		Help:    "Analysis run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	})

	// verdictsTotal counts successful runs by verdict.
	verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "derogation_verdicts_total",
		Help: "Total verdicts by kind",
	}, []string{"verdict"})

	// skippedFeatures counts features dropped on geometry failures.
	skippedFeatures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "derogation_skipped_features_total",
		Help: "Features skipped because their geometry could not be processed",
	}, []string{"layer"})
)
