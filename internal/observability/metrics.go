package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// bulletin extraction pipeline.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	NullRecords      prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Rainfall advisory feed metrics.
	AdvisoryRequests      *prometheus.CounterVec // labels: outcome={success,error}
	AdvisoryCache         *prometheus.CounterVec // labels: result={hit,miss}
	AdvisoryFetchDuration prometheus.Histogram
	AdvisoryEnabled       prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bulletin_etl",
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bulletin_etl",
			Name:      "messages_produced_total",
			Help:      "Total messages written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bulletin_etl",
			Name:      "transform_errors_total",
			Help:      "Total undecodable source messages skipped.",
		}),
		NullRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bulletin_etl",
			Name:      "null_records_total",
			Help:      "Total bulletins whose text was unreadable, published with a null record.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bulletin_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bulletin_etl",
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bulletin_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		AdvisoryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bulletin_etl",
			Name:      "advisory_requests_total",
			Help:      "Rainfall advisory page fetches by outcome.",
		}, []string{"outcome"}),
		AdvisoryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bulletin_etl",
			Name:      "advisory_cache_total",
			Help:      "Rainfall advisory cache lookups by result.",
		}, []string{"result"}),
		AdvisoryFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bulletin_etl",
			Name:      "advisory_fetch_duration_seconds",
			Help:      "Rainfall advisory page fetch duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		AdvisoryEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bulletin_etl",
			Name:      "advisory_enabled",
			Help:      "1 when advisory enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.NullRecords,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.AdvisoryRequests,
		m.AdvisoryCache,
		m.AdvisoryFetchDuration,
		m.AdvisoryEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MessagesConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bulletin_etl", Name: "messages_consumed_total"}),
		MessagesProduced:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bulletin_etl", Name: "messages_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bulletin_etl", Name: "transform_errors_total"}),
		NullRecords:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bulletin_etl", Name: "null_records_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "bulletin_etl", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bulletin_etl", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bulletin_etl", Name: "batch_processing_duration_seconds"}),
		AdvisoryRequests:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bulletin_etl", Name: "advisory_requests_total"}, []string{"outcome"}),
		AdvisoryCache:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bulletin_etl", Name: "advisory_cache_total"}, []string{"result"}),
		AdvisoryFetchDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bulletin_etl", Name: "advisory_fetch_duration_seconds"}),
		AdvisoryEnabled:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "bulletin_etl", Name: "advisory_enabled"}),
	}
}
