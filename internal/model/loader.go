package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Artifacts is the fitted vectorizer/classifier pair served by one process.
type Artifacts struct {
	Vectorizer *TfidfVectorizer
	Classifier *LinearClassifier
}

type kindHeader struct {
	Kind string `json:"kind"`
}

// LoadArtifacts reads both artifacts and verifies they were fitted together.
func LoadArtifacts(vectorizerPath, classifierPath string) (*Artifacts, error) {
	vec, err := LoadVectorizer(vectorizerPath)
	if err != nil {
		return nil, err
	}
	clf, err := LoadClassifier(classifierPath)
	if err != nil {
		return nil, err
	}
	if err := CheckCompatible(vec, clf); err != nil {
		return nil, err
	}
	return &Artifacts{Vectorizer: vec, Classifier: clf}, nil
}

// LoadVectorizer reads a vectorizer artifact from path.
func LoadVectorizer(path string) (*TfidfVectorizer, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load vectorizer: %w", err)
	}
	var hdr kindHeader
	if err := json.Unmarshal(payload, &hdr); err != nil {
		return nil, fmt.Errorf("load vectorizer %s: %w", path, err)
	}
	switch hdr.Kind {
	case "", KindTfidf, KindCount:
		var a VectorizerArtifact
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("load vectorizer %s: %w", path, err)
		}
		v, err := NewTfidfVectorizer(a)
		if err != nil {
			return nil, fmt.Errorf("load vectorizer %s: %w", path, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("load vectorizer %s: %w: %q", path, ErrUnsupportedKind, hdr.Kind)
	}
}

// LoadClassifier reads a classifier artifact from path.
func LoadClassifier(path string) (*LinearClassifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}
	var hdr kindHeader
	if err := json.Unmarshal(payload, &hdr); err != nil {
		return nil, fmt.Errorf("load classifier %s: %w", path, err)
	}
	switch hdr.Kind {
	case KindLinear, KindNaiveBayes:
		var a ClassifierArtifact
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("load classifier %s: %w", path, err)
		}
		c, err := NewLinearClassifier(a)
		if err != nil {
			return nil, fmt.Errorf("load classifier %s: %w", path, err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("load classifier %s: %w: %q", path, ErrUnsupportedKind, hdr.Kind)
	}
}

// CheckCompatible reports ErrIncompatibleArtifacts when the vectorizer output
// width differs from the classifier input width.
func CheckCompatible(v Vectorizer, c Classifier) error {
	if v.Dimensions() != c.NumFeatures() {
		return fmt.Errorf("%w: vectorizer produces %d features, classifier expects %d",
			ErrIncompatibleArtifacts, v.Dimensions(), c.NumFeatures())
	}
	return nil
}
