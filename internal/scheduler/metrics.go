package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for scheduled pipeline runs
type Metrics struct {
	RunsTotal        prometheus.Counter
	RunErrors        prometheus.Counter
	RecordsProcessed prometheus.Counter
	QueueDepth       prometheus.Gauge
	RunDuration      prometheus.Histogram
	ExtractedRecords prometheus.Histogram
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "spotifyetl_pipeline_runs_total",
			Help: "The total number of pipeline runs started",
		}),
		RunErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "spotifyetl_pipeline_errors_total",
			Help: "The total number of failed pipeline runs",
		}),
		RecordsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "spotifyetl_pipeline_records_processed_total",
			Help: "The total number of records processed across all runs",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "spotifyetl_pipeline_queue_depth",
			Help: "The current depth of the scheduled run queue",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "spotifyetl_pipeline_run_duration_seconds",
			Help:    "The duration of pipeline runs in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		ExtractedRecords: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "spotifyetl_pipeline_extracted_records",
			Help:    "The number of records extracted per run",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
	}
}
