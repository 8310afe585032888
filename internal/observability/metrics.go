package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// fusion pipeline and the threat classifier.
type Metrics struct {
	RunsTotal   prometheus.Counter
	RunFailures prometheus.Counter
	RunDuration prometheus.Histogram

	// Per-stage pipeline timings. labels: stage
	StageDuration *prometheus.HistogramVec

	// Join quality. labels: source
	JoinCoverage  *prometheus.GaugeVec
	MalformedKeys *prometheus.CounterVec

	CountiesScored prometheus.Gauge

	// Threat classifier metrics.
	ActiveStorms    prometheus.Gauge
	CountiesPerBand *prometheus.GaugeVec // labels: level
	FeedFailures    prometheus.Counter

	// Kafka sink metrics.
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "county_risk",
			Name:      "runs_total",
			Help:      "Total fusion pipeline runs started.",
		}),
		RunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "county_risk",
			Name:      "run_failures_total",
			Help:      "Total fusion pipeline runs that aborted with an error.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "county_risk",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fusion run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "county_risk",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
		JoinCoverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "county_risk",
			Name:      "join_coverage_ratio",
			Help:      "Fraction of base counties matched per auxiliary source in the last run.",
		}, []string{"source"}),
		MalformedKeys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "county_risk",
			Name:      "malformed_keys_total",
			Help:      "Rows skipped per source because the join key could not be normalized.",
		}, []string{"source"}),
		CountiesScored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "county_risk",
			Name:      "counties_scored",
			Help:      "Counties in the most recently published scored layer.",
		}),
		ActiveStorms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "county_risk",
			Name:      "active_storms",
			Help:      "Active storms in the last classifier run.",
		}),
		CountiesPerBand: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "county_risk",
			Name:      "counties_per_threat_band",
			Help:      "Counties per threat band in the last classifier run.",
		}, []string{"level"}),
		FeedFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "county_risk",
			Name:      "feed_failures_total",
			Help:      "Active storm feed fetches that failed and degraded to an empty set.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "county_risk",
			Name:      "events_published_total",
			Help:      "Threat events written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "county_risk",
			Name:      "publish_errors_total",
			Help:      "Failed writes to the sink topic.",
		}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunFailures,
		m.RunDuration,
		m.StageDuration,
		m.JoinCoverage,
		m.MalformedKeys,
		m.CountiesScored,
		m.ActiveStorms,
		m.CountiesPerBand,
		m.FeedFailures,
		m.EventsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "county_risk", Name: "runs_total"}),
		RunFailures:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "county_risk", Name: "run_failures_total"}),
		RunDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "county_risk", Name: "run_duration_seconds"}),
		StageDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "county_risk", Name: "stage_duration_seconds"}, []string{"stage"}),
		JoinCoverage:    prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "county_risk", Name: "join_coverage_ratio"}, []string{"source"}),
		MalformedKeys:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "county_risk", Name: "malformed_keys_total"}, []string{"source"}),
		CountiesScored:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "county_risk", Name: "counties_scored"}),
		ActiveStorms:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "county_risk", Name: "active_storms"}),
		CountiesPerBand: prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "county_risk", Name: "counties_per_threat_band"}, []string{"level"}),
		FeedFailures:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "county_risk", Name: "feed_failures_total"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "county_risk", Name: "events_published_total"}),
		PublishErrors:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "county_risk", Name: "publish_errors_total"}),
	}
}
