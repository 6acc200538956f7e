package metrics

import "github.com/prometheus/client_golang/prometheus"

// Index build metrics.
var (
	IndexBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_builds_total",
			Help:      "Index builds by index and outcome",
		},
		[]string{"index", "status"},
	)

	IndexBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Index build duration in seconds, including corpus load",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"index"},
	)

	IndexCorpusDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "index_corpus_documents",
			Help:      "Documents in the currently loaded corpus",
		},
	)
)
