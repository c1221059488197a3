package model

import (
	"context"
	"fmt"
	"math"
	"sort"

	"emotionapi/internal/metrics"
)

// Vectorizer artifact kinds.
const (
	KindTfidf = "tfidf"
	KindCount = "count"
)

// Row normalizations.
const (
	NormNone = ""
	NormL1   = "l1"
	NormL2   = "l2"
)

// VectorizerArtifact is the on-disk form of a fitted text vectorizer.
type VectorizerArtifact struct {
	Kind         string         `json:"kind"`
	Analyzer     string         `json:"analyzer"`
	Lowercase    *bool          `json:"lowercase"`
	StripAccents string         `json:"strip_accents"`
	TokenPattern string         `json:"token_pattern"`
	NgramRange   [2]int         `json:"ngram_range"`
	StopWords    []string       `json:"stop_words"`
	Vocabulary   map[string]int `json:"vocabulary"`
	IDF          []float64      `json:"idf"`
	UseIDF       *bool          `json:"use_idf"`
	Norm         *string        `json:"norm"`
	SublinearTF  bool           `json:"sublinear_tf"`
	Binary       bool           `json:"binary"`
}

// TfidfVectorizer reproduces the transform step of a fitted TF-IDF (or plain count) vectorizer.
// It is immutable and safe for concurrent use.
type TfidfVectorizer struct {
	kind        string
	pre         preprocessor
	analyzer    *analyzer
	vocabulary  map[string]int
	filter      *vocabFilter
	idf         []float64
	norm        string
	sublinearTF bool
	binary      bool
}

// NewTfidfVectorizer validates an artifact and builds the vectorizer it describes.
func NewTfidfVectorizer(a VectorizerArtifact) (*TfidfVectorizer, error) {
	kind := a.Kind
	if kind == "" {
		kind = KindTfidf
	}
	if kind != KindTfidf && kind != KindCount {
		return nil, fmt.Errorf("%w: vectorizer %q", ErrUnsupportedKind, a.Kind)
	}
	if len(a.Vocabulary) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrInvalidArtifact)
	}
	seen := make([]bool, len(a.Vocabulary))
	for term, idx := range a.Vocabulary {
		if idx < 0 || idx >= len(seen) || seen[idx] {
			return nil, fmt.Errorf("%w: vocabulary index %d for %q is out of range or duplicated", ErrInvalidArtifact, idx, term)
		}
		seen[idx] = true
	}

	lowercase := a.Lowercase == nil || *a.Lowercase
	pre, err := newPreprocessor(a.StripAccents, lowercase)
	if err != nil {
		return nil, err
	}
	an, err := newAnalyzer(a.Analyzer, a.TokenPattern, a.NgramRange, a.StopWords)
	if err != nil {
		return nil, err
	}

	v := &TfidfVectorizer{
		kind:        kind,
		pre:         pre,
		analyzer:    an,
		vocabulary:  a.Vocabulary,
		filter:      newVocabFilter(a.Vocabulary),
		sublinearTF: a.SublinearTF,
		binary:      a.Binary,
	}

	switch {
	case a.Norm != nil:
		v.norm = *a.Norm
	case kind == KindTfidf:
		v.norm = NormL2
	}
	if v.norm != NormNone && v.norm != NormL1 && v.norm != NormL2 {
		return nil, fmt.Errorf("%w: norm %q", ErrInvalidArtifact, v.norm)
	}

	useIDF := kind == KindTfidf && (a.UseIDF == nil || *a.UseIDF)
	if useIDF {
		if len(a.IDF) != len(a.Vocabulary) {
			return nil, fmt.Errorf("%w: %d idf weights for %d vocabulary terms", ErrInvalidArtifact, len(a.IDF), len(a.Vocabulary))
		}
		v.idf = a.IDF
	}
	return v, nil
}

// Dimensions returns the length of the produced feature vectors.
func (v *TfidfVectorizer) Dimensions() int { return len(v.vocabulary) }

// VocabularySize is the number of known terms.
func (v *TfidfVectorizer) VocabularySize() int { return len(v.vocabulary) }

// Kind reports whether the vectorizer applies idf weighting ("tfidf") or not ("count").
func (v *TfidfVectorizer) Kind() string { return v.kind }

// Transform returns one feature vector per document, in input order.
func (v *TfidfVectorizer) Transform(ctx context.Context, docs []string) ([]SparseVector, error) {
	out := make([]SparseVector, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := v.transformOne(doc)
		if err != nil {
			return nil, fmt.Errorf("transform document %d: %w", i, err)
		}
		out[i] = row
	}
	return out, nil
}

func (v *TfidfVectorizer) transformOne(doc string) (SparseVector, error) {
	doc, err := v.pre.apply(doc)
	if err != nil {
		return SparseVector{}, err
	}
	terms := v.analyzer.analyze(doc)

	counts := make(map[int]float64)
	hits := 0
	for _, term := range terms {
		if !v.filter.mayContain(term) {
			continue
		}
		idx, ok := v.vocabulary[term]
		if !ok {
			continue
		}
		counts[idx]++
		hits++
	}
	if len(terms) > 0 {
		metrics.VocabularyHitRatio.WithLabelValues(v.analyzer.kind).Set(float64(hits) / float64(len(terms)))
	}

	row := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		row.Indices = append(row.Indices, idx)
	}
	sort.Ints(row.Indices)

	for _, idx := range row.Indices {
		tf := counts[idx]
		switch {
		case v.binary:
			tf = 1
		case v.sublinearTF:
			tf = 1 + math.Log(tf)
		}
		if v.idf != nil {
			tf *= v.idf[idx]
		}
		row.Values = append(row.Values, tf)
	}
	normalize(row.Values, v.norm)
	return row, nil
}

func normalize(values []float64, norm string) {
	var total float64
	switch norm {
	case NormL2:
		for _, x := range values {
			total += x * x
		}
		total = math.Sqrt(total)
	case NormL1:
		for _, x := range values {
			total += math.Abs(x)
		}
	default:
		return
	}
	if total == 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}
