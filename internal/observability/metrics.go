package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the ingestion
// pipeline.
type Metrics struct {
	RunsTotal             prometheus.Counter
	ObservationsFetched   *prometheus.CounterVec // label: adapter
	AdapterErrors         *prometheus.CounterVec // label: adapter
	ObservationsDeduped   prometheus.Counter
	ObservationsCommitted prometheus.Counter
	CommitFailures        prometheus.Counter
	EventsAggregated      prometheus.Counter
	AggregationErrors     prometheus.Counter
	RunDuration           prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.ObservationsFetched,
		m.AdapterErrors,
		m.ObservationsDeduped,
		m.ObservationsCommitted,
		m.CommitFailures,
		m.EventsAggregated,
		m.AggregationErrors,
		m.RunDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so multiple
// tests can construct their own set without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "pipeline_runs_total",
			Help:      "Total fetch pipeline runs.",
		}),
		ObservationsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "observations_fetched_total",
			Help:      "Observations produced by each adapter before dedup.",
		}, []string{"adapter"}),
		AdapterErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "adapter_errors_total",
			Help:      "Failed adapter runs by adapter.",
		}, []string{"adapter"}),
		ObservationsDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "observations_deduped_total",
			Help:      "Observations dropped as duplicates.",
		}),
		ObservationsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "observations_committed_total",
			Help:      "Observations persisted to storage.",
		}),
		CommitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "commit_failures_total",
			Help:      "Failed batch commits (whole batch rolled back).",
		}),
		EventsAggregated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "observations_aggregated_total",
			Help:      "Observations linked into disaster events.",
		}),
		AggregationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "aggregation_errors_total",
			Help:      "Aggregation attempts that failed and will be retried.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hazardwatch",
			Name:      "pipeline_run_duration_seconds",
			Help:      "Duration of a complete fetch-dedup-commit-aggregate run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}
