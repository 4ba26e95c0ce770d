package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request metrics
var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "create_thumbnail_requests_total",
			Help: "Total number of thumbnail requests",
		},
		[]string{"path", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "create_thumbnail_duration_seconds",
			Help:    "Thumbnail request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"path"},
	)

	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "create_thumbnail_requests_in_flight",
			Help: "Number of thumbnail requests currently being processed",
		},
	)
)

// Classification metrics
var (
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "create_thumbnail_classifications_total",
			Help: "Total number of animation classifications by container format and result",
		},
		[]string{"format", "result"},
	)
)

// Encoder metrics
var (
	EncoderFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "create_thumbnail_encoder_failures_total",
			Help: "Total number of failed video encodes",
		},
	)
)

// Batch metrics
var (
	BatchItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "create_thumbnail_batch_items",
			Help: "Items in the current batch by state",
		},
		[]string{"state"}, // "total", "completed", "failed", "in_flight"
	)

	BatchLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "create_thumbnail_batch_last_run_duration_seconds",
			Help: "Duration of the last batch in seconds",
		},
	)

	BatchLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "create_thumbnail_batch_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last batch completion",
		},
	)
)
