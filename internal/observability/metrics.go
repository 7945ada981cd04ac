package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// aggregation pipeline.
type Metrics struct {
	ObservationsConsumed prometheus.Counter
	ObservationsDropped  prometheus.Counter
	BatchSize            prometheus.Histogram
	PipelineRunning      prometheus.Gauge

	// Per-stage timing, labeled bin/seasonal/convolve/estimate/composite/store.
	StageDuration *prometheus.HistogramVec

	// Composite selection outcomes.
	WindowSelections *prometheus.CounterVec // labels: variable, window
	UnresolvedCells  *prometheus.CounterVec // labels: variable
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ObservationsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "icoads_etl",
			Name:      "observations_consumed_total",
			Help:      "Total observation records read from the source.",
		}),
		ObservationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "icoads_etl",
			Name:      "observations_dropped_total",
			Help:      "Records skipped for falling outside the configured year range.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "icoads_etl",
			Name:      "batch_size",
			Help:      "Number of observations per batch read from the source.",
			Buckets:   []float64{1, 10, 100, 500, 1000, 5000, 10000},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "icoads_etl",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is active, 0 otherwise.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "icoads_etl",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
		WindowSelections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "icoads_etl",
			Name:      "composite_window_cells_total",
			Help:      "Composite cells by selected smoothing window.",
		}, []string{"variable", "window"}),
		UnresolvedCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "icoads_etl",
			Name:      "composite_unresolved_cells_total",
			Help:      "Composite cells no threshold/window pass claimed.",
		}, []string{"variable"}),
	}

	prometheus.MustRegister(
		m.ObservationsConsumed,
		m.ObservationsDropped,
		m.BatchSize,
		m.PipelineRunning,
		m.StageDuration,
		m.WindowSelections,
		m.UnresolvedCells,
	)

	return m
}

// NewMetricsForTesting creates Metrics without touching the default
// registry, avoiding "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ObservationsConsumed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "icoads_etl", Name: "observations_consumed_total"}),
		ObservationsDropped:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "icoads_etl", Name: "observations_dropped_total"}),
		BatchSize:            prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "icoads_etl", Name: "batch_size"}),
		PipelineRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "icoads_etl", Name: "pipeline_running"}),
		StageDuration:        prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "icoads_etl", Name: "stage_duration_seconds"}, []string{"stage"}),
		WindowSelections:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "icoads_etl", Name: "composite_window_cells_total"}, []string{"variable", "window"}),
		UnresolvedCells:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "icoads_etl", Name: "composite_unresolved_cells_total"}, []string{"variable"}),
	}
}
