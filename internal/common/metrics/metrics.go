// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_predictions_total",
			Help: "Total number of predictions served, by decision and request type",
		},
		[]string{"decision", "type"},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "loan_prediction_duration_seconds",
			Help: "Duration of the assemble/scale/predict pipeline in seconds",
		},
	)

	EncodingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_encoding_failures_total",
			Help: "Total number of categorical values rejected at encoding, by column",
		},
		[]string{"column"},
	)

	BatchRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loan_batch_rows",
			Help:    "Number of rows per batch prediction upload",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path", "status"},
	)
)
