package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_predictions_total",
			Help: "Predictions served, by predicted emotion",
		},
		[]string{"emotion"},
	)

	PredictionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "emotion_prediction_errors_total",
			Help: "Predictions that failed inside the vectorizer or classifier",
		},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "emotion_prediction_duration_seconds",
			Help:    "Time spent vectorizing and classifying one text",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_http_requests_total",
			Help: "HTTP requests by route template, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_cache_requests_total",
			Help: "Prediction cache lookups by result",
		},
		[]string{"result"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emotion_cache_evictions_total",
			Help: "Cache evictions",
		},
		[]string{"cache_type"},
	)

	VocabularyHitRatio = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "emotion_vocabulary_hit_ratio",
			Help: "Share of analyzed terms of the last transformed document found in the vocabulary",
		},
		[]string{"analyzer"},
	)
)
