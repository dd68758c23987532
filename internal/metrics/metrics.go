package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values
const (
	OutcomeSuccess         = "success"
	OutcomeValidationError = "validation_error"
	OutcomeInferenceError  = "inference_error"
)

// Channel label values
const (
	ChannelForm = "form"
	ChannelAPI  = "api"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "house_price_predictions_total",
			Help: "Total number of prediction requests by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "house_price_inference_duration_seconds",
			Help:    "Duration of model inference in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	ModelInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "house_price_model_info",
			Help: "Loaded model artifact; value is always 1",
		},
		[]string{"name", "estimator"},
	)
)

// RecordPrediction counts one prediction request
func RecordPrediction(channel, outcome string) {
	PredictionsTotal.WithLabelValues(channel, outcome).Inc()
}
