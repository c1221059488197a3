// Package predict runs the vectorize → classify pipeline for a single text.
package predict

import (
	"context"
	"fmt"
	"time"

	"emotionapi/internal/metrics"
	"emotionapi/internal/model"
)

// Result is the outcome of one prediction. Text is the input, unchanged.
type Result struct {
	Text    string      `json:"text"`
	Emotion model.Label `json:"emotion"`
}

// Service owns the fitted artifacts for the lifetime of the process.
// The artifacts are never mutated, so Predict is safe for concurrent use.
type Service struct {
	vectorizer model.Vectorizer
	classifier model.Classifier
	cache      *ResultCache
}

// Option configures a Service.
type Option func(*Service)

// WithCache memoizes results by input text.
func WithCache(c *ResultCache) Option {
	return func(s *Service) { s.cache = c }
}

// New wires a vectorizer and a classifier into a Service. Compatibility of the
// two is the caller's responsibility (see model.CheckCompatible).
func New(v model.Vectorizer, c model.Classifier, opts ...Option) *Service {
	s := &Service{vectorizer: v, classifier: c}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict vectorizes text as a one-element batch and classifies the resulting vector.
func (s *Service) Predict(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if s.cache != nil {
		if res, ok := s.cache.Get(text); ok {
			return res, nil
		}
	}

	start := time.Now()
	label, err := s.classify(ctx, text)
	metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PredictionErrors.Inc()
		return Result{}, err
	}
	metrics.Predictions.WithLabelValues(string(label)).Inc()

	res := Result{Text: text, Emotion: label}
	if s.cache != nil {
		s.cache.Set(text, res)
	}
	return res, nil
}

func (s *Service) classify(ctx context.Context, text string) (model.Label, error) {
	rows, err := s.vectorizer.Transform(ctx, []string{text})
	if err != nil {
		return "", fmt.Errorf("vectorize: %w", err)
	}
	if len(rows) != 1 {
		return "", fmt.Errorf("vectorize: got %d vectors for 1 document", len(rows))
	}
	labels, err := s.classifier.Predict(ctx, rows)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	if len(labels) != 1 {
		return "", fmt.Errorf("classify: got %d labels for 1 vector", len(labels))
	}
	return labels[0], nil
}

// Classes returns the label set the classifier can produce.
func (s *Service) Classes() []model.Label { return s.classifier.Classes() }

// Dimensions returns the feature space width shared by both artifacts.
func (s *Service) Dimensions() int { return s.vectorizer.Dimensions() }

// VocabularySize returns the number of known terms, or the feature width when
// the vectorizer does not report a vocabulary.
func (s *Service) VocabularySize() int {
	if v, ok := s.vectorizer.(interface{ VocabularySize() int }); ok {
		return v.VocabularySize()
	}
	return s.vectorizer.Dimensions()
}
