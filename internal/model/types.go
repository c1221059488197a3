package model

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
)

var (
	// ErrInvalidArtifact is returned when an artifact decodes but its fields are inconsistent.
	ErrInvalidArtifact = errors.New("invalid artifact")
	// ErrUnsupportedKind is returned for an artifact kind this build cannot evaluate.
	ErrUnsupportedKind = errors.New("unsupported artifact kind")
	// ErrIncompatibleArtifacts is returned when the vectorizer output does not fit the classifier input.
	ErrIncompatibleArtifacts = errors.New("vectorizer and classifier are incompatible")
)

// SparseVector is one row of a feature matrix. Indices are sorted ascending.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of stored entries.
func (v SparseVector) Len() int { return len(v.Indices) }

// Label is a predicted class.
type Label string

// UnmarshalJSON accepts a JSON string or number; numeric class codes keep their decimal form.
func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = Label(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*l = Label(strconv.FormatInt(i, 10))
		return nil
	}
	*l = Label(n.String())
	return nil
}

// Vectorizer turns a batch of raw documents into one feature vector per document.
type Vectorizer interface {
	Transform(ctx context.Context, docs []string) ([]SparseVector, error)
	Dimensions() int
}

// Classifier maps a batch of feature vectors to one label per vector.
type Classifier interface {
	Predict(ctx context.Context, rows []SparseVector) ([]Label, error)
	NumFeatures() int
	Classes() []Label
}
