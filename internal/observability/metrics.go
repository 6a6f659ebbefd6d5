package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion cycle and the prediction surface.
type Metrics struct {
	// Source adapter metrics.
	SourceFetches       *prometheus.CounterVec   // labels: source, outcome={success,error}
	SourceFetchDuration *prometheus.HistogramVec // labels: source
	RecordsExtracted    *prometheus.CounterVec   // labels: source
	RecordsSkipped      *prometheus.CounterVec   // labels: source, reason

	// Reconciliation metrics.
	EventsInserted prometheus.Counter
	EventsUpdated  prometheus.Counter
	CycleDuration  prometheus.Histogram
	CycleRunning   prometheus.Gauge

	// Prediction metrics.
	Predictions *prometheus.CounterVec // labels: hazard, mode={trained,fallback}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "source_fetches_total",
			Help:      "Feed fetch attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		SourceFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hazardwatch",
			Name:      "source_fetch_duration_seconds",
			Help:      "Feed fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		RecordsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "records_extracted_total",
			Help:      "Raw records extracted from each source.",
		}, []string{"source"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "records_skipped_total",
			Help:      "Raw records rejected during extraction or normalization.",
		}, []string{"source", "reason"}),
		EventsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "events_inserted_total",
			Help:      "New events written to the store.",
		}),
		EventsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "events_updated_total",
			Help:      "Existing events overwritten during reconciliation.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hazardwatch",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-reconcile cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		CycleRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazardwatch",
			Name:      "cycle_running",
			Help:      "1 while an ingestion cycle is in flight, 0 otherwise.",
		}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "predictions_total",
			Help:      "Risk estimates served by hazard and estimation mode.",
		}, []string{"hazard", "mode"}),
	}

	prometheus.MustRegister(
		m.SourceFetches,
		m.SourceFetchDuration,
		m.RecordsExtracted,
		m.RecordsSkipped,
		m.EventsInserted,
		m.EventsUpdated,
		m.CycleDuration,
		m.CycleRunning,
		m.Predictions,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SourceFetches:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hazardwatch", Name: "source_fetches_total"}, []string{"source", "outcome"}),
		SourceFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "hazardwatch", Name: "source_fetch_duration_seconds"}, []string{"source"}),
		RecordsExtracted:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hazardwatch", Name: "records_extracted_total"}, []string{"source"}),
		RecordsSkipped:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hazardwatch", Name: "records_skipped_total"}, []string{"source", "reason"}),
		EventsInserted:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hazardwatch", Name: "events_inserted_total"}),
		EventsUpdated:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hazardwatch", Name: "events_updated_total"}),
		CycleDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hazardwatch", Name: "cycle_duration_seconds"}),
		CycleRunning:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "hazardwatch", Name: "cycle_running"}),
		Predictions:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hazardwatch", Name: "predictions_total"}, []string{"hazard", "mode"}),
	}
}
