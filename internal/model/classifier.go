package model

import (
	"context"
	"fmt"
)

// Classifier artifact kinds.
const (
	KindLinear     = "linear"
	KindNaiveBayes = "naive_bayes"
)

// ClassifierArtifact is the on-disk form of a fitted classifier.
// For naive_bayes, Coef holds per-class feature log probabilities and
// Intercept the class log priors.
type ClassifierArtifact struct {
	Kind      string      `json:"kind"`
	Classes   []Label     `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

// LinearClassifier scores X·coefᵀ + intercept and picks a class.
// It is immutable and safe for concurrent use.
type LinearClassifier struct {
	kind      string
	classes   []Label
	coef      [][]float64
	intercept []float64
	features  int
}

// NewLinearClassifier validates the artifact shapes and builds the classifier.
func NewLinearClassifier(a ClassifierArtifact) (*LinearClassifier, error) {
	if a.Kind != KindLinear && a.Kind != KindNaiveBayes {
		return nil, fmt.Errorf("%w: classifier %q", ErrUnsupportedKind, a.Kind)
	}
	if len(a.Classes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 classes, got %d", ErrInvalidArtifact, len(a.Classes))
	}
	rows := len(a.Classes)
	if a.Kind == KindLinear && len(a.Classes) == 2 && len(a.Coef) == 1 {
		rows = 1
	}
	if len(a.Coef) != rows {
		return nil, fmt.Errorf("%w: %d coefficient rows for %d classes", ErrInvalidArtifact, len(a.Coef), len(a.Classes))
	}
	if len(a.Intercept) != rows {
		return nil, fmt.Errorf("%w: %d intercepts for %d coefficient rows", ErrInvalidArtifact, len(a.Intercept), rows)
	}
	features := len(a.Coef[0])
	if features == 0 {
		return nil, fmt.Errorf("%w: empty coefficient row", ErrInvalidArtifact)
	}
	for i, row := range a.Coef {
		if len(row) != features {
			return nil, fmt.Errorf("%w: coefficient row %d has %d features, want %d", ErrInvalidArtifact, i, len(row), features)
		}
	}
	return &LinearClassifier{
		kind:      a.Kind,
		classes:   a.Classes,
		coef:      a.Coef,
		intercept: a.Intercept,
		features:  features,
	}, nil
}

// NumFeatures is the input dimensionality the classifier was fitted on.
func (c *LinearClassifier) NumFeatures() int { return c.features }

// Classes returns the label set in artifact order.
func (c *LinearClassifier) Classes() []Label {
	return append([]Label(nil), c.classes...)
}

// Kind returns the artifact kind.
func (c *LinearClassifier) Kind() string { return c.kind }

// Predict returns one label per row.
func (c *LinearClassifier) Predict(ctx context.Context, rows []SparseVector) ([]Label, error) {
	labels := make([]Label, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores, err := c.DecisionFunction(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		labels[i] = c.pick(scores)
	}
	return labels, nil
}

// DecisionFunction returns the raw per-row scores for a single vector.
func (c *LinearClassifier) DecisionFunction(row SparseVector) ([]float64, error) {
	if len(row.Indices) != len(row.Values) {
		return nil, fmt.Errorf("malformed vector: %d indices, %d values", len(row.Indices), len(row.Values))
	}
	scores := make([]float64, len(c.coef))
	for k, w := range c.coef {
		s := c.intercept[k]
		for j, idx := range row.Indices {
			if idx < 0 || idx >= c.features {
				return nil, fmt.Errorf("feature index %d out of range [0, %d)", idx, c.features)
			}
			s += w[idx] * row.Values[j]
		}
		scores[k] = s
	}
	return scores, nil
}

func (c *LinearClassifier) pick(scores []float64) Label {
	if len(scores) == 1 {
		if scores[0] > 0 {
			return c.classes[1]
		}
		return c.classes[0]
	}
	best := 0
	for k := 1; k < len(scores); k++ {
		if scores[k] > scores[best] {
			best = k
		}
	}
	return c.classes[best]
}
