package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "joosc_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	})

	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "joosc_phase_seconds",
		Help:    "Time spent in each resolution phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	DeclaredTypes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "joosc_declared_types",
		Help: "Number of types in the declaration table of the last run.",
	})

	HierarchyDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "joosc_hierarchy_depth",
		Help: "Deepest inheritance level of the last run.",
	})

	UnitsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "joosc_units_resolved_total",
		Help: "Total number of compilation units whose bodies were name-resolved.",
	})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joosc_diagnostics_total",
		Help: "Total number of diagnostics reported, by kind.",
	}, []string{"kind"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joosc_runs_total",
		Help: "Total number of resolution runs, by outcome.",
	}, []string{"outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "joosc_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	IndexWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "joosc_index_write_seconds",
		Help:    "Latency for writing a run into the symbol index.",
		Buckets: prometheus.DefBuckets,
	})
)
