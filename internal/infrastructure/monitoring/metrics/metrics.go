// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline.  A batch run registers one Metrics instance and pushes or scrapes
// it according to the deployment; tests pass a private registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all pipeline metrics.
type Metrics struct {
	// MoleculesProcessed counts structures that survived standardization,
	// labelled by input file basename.
	MoleculesProcessed *prometheus.CounterVec

	// MoleculesSkipped counts structures dropped as unparsable.
	MoleculesSkipped *prometheus.CounterVec

	// ChunksFailed counts chunk workflows that returned an error, labelled
	// by failing stage.
	ChunksFailed *prometheus.CounterVec

	// CacheHits and CacheMisses count result-cache lookups.
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// RunDuration observes wall-clock seconds of complete pipeline runs.
	RunDuration prometheus.Histogram
}

// New constructs a Metrics instance and registers every collector with reg.
// Registration failures panic: duplicate registration is a programming error,
// not a runtime condition.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MoleculesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qsarflow",
			Name:      "molecules_processed_total",
			Help:      "Structures successfully standardized.",
		}, []string{"file"}),
		MoleculesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qsarflow",
			Name:      "molecules_skipped_total",
			Help:      "Structures dropped as unparsable.",
		}, []string{"file"}),
		ChunksFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qsarflow",
			Name:      "chunks_failed_total",
			Help:      "Chunk workflows that returned an error.",
		}, []string{"stage"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qsarflow",
			Name:      "cache_hits_total",
			Help:      "Result-cache lookups answered from a stored snapshot.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qsarflow",
			Name:      "cache_misses_total",
			Help:      "Result-cache lookups that required a full recompute.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "qsarflow",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of complete pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}

	reg.MustRegister(
		m.MoleculesProcessed,
		m.MoleculesSkipped,
		m.ChunksFailed,
		m.CacheHits,
		m.CacheMisses,
		m.RunDuration,
	)
	return m
}

// NewNop constructs a Metrics instance backed by a throwaway registry,
// for components that do not care about instrumentation (tests, one-shot
// CLI invocations without a push gateway).
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
