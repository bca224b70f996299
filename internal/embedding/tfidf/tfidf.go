package tfidf

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"ragindex/internal/tokenizer"
)

var (
	// ErrInvalidConfig is returned for a non-positive feature cap.
	ErrInvalidConfig = errors.New("invalid tfidf config")
	// ErrNotFitted is returned by Transform and Embed before Fit was called.
	ErrNotFitted = errors.New("tfidf model not fitted")
	// ErrInvalidState is returned by FromState for inconsistent model data.
	ErrInvalidState = errors.New("invalid tfidf state")
)

// Model is a TF-IDF vectorizer over a bounded vocabulary.
// Vocabulary terms are ranked by document frequency; ties keep the order in
// which terms were first encountered in the corpus.
type Model struct {
	maxFeatures int
	vocabulary  map[string]int
	terms       []string
	idf         []float64
	fitted      bool
}

// State is the serializable form of a fitted model. Terms and IDF are
// indexed by vector column.
type State struct {
	MaxFeatures int
	Terms       []string
	IDF         []float64
}

// New creates an unfitted model keeping at most maxFeatures terms.
func New(maxFeatures int) (*Model, error) {
	if maxFeatures <= 0 {
		return nil, fmt.Errorf("%w: max features must be positive, got %d", ErrInvalidConfig, maxFeatures)
	}
	return &Model{maxFeatures: maxFeatures, vocabulary: make(map[string]int)}, nil
}

// Name returns the identifier of this embedder implementation.
func (m *Model) Name() string { return "tfidf" }

// Fit builds the vocabulary and IDF values from the corpus. An empty corpus
// leaves the model fitted with an empty vocabulary.
func (m *Model) Fit(corpus []string) {
	df := make(map[string]int)
	var order []string
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenizer.Tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			if df[tok] == 0 {
				order = append(order, tok)
			}
			df[tok]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return df[order[i]] > df[order[j]] })
	if len(order) > m.maxFeatures {
		order = order[:m.maxFeatures]
	}

	m.vocabulary = make(map[string]int, len(order))
	m.terms = order
	m.idf = make([]float64, len(order))
	n := float64(len(corpus))
	for i, term := range order {
		m.vocabulary[term] = i
		// Smoothed IDF, strictly positive even for terms in every chunk
		m.idf[i] = math.Log((n+1)/(float64(df[term])+1)) + 1
	}
	m.fitted = true
}

// Transform computes L2-normalized TF-IDF vectors. Term frequency is the
// vocabulary term count divided by the text's total token count. Texts
// sharing no vocabulary terms map to the zero vector.
func (m *Model) Transform(texts []string) ([][]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = m.vectorize(text)
	}
	return vectors, nil
}

// FitTransform fits on corpus and transforms the same corpus.
func (m *Model) FitTransform(corpus []string) [][]float64 {
	m.Fit(corpus)
	vectors := make([][]float64, len(corpus))
	for i, text := range corpus {
		vectors[i] = m.vectorize(text)
	}
	return vectors
}

// Embed computes the TF-IDF embedding for a single text.
func (m *Model) Embed(text string) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	return m.vectorize(text), nil
}

// Dimension returns the dimensionality of the produced vectors.
func (m *Model) Dimension() int { return len(m.terms) }

// MaxFeatures returns the vocabulary size cap.
func (m *Model) MaxFeatures() int { return m.maxFeatures }

// Fitted reports whether Fit or FromState has produced a usable vocabulary.
func (m *Model) Fitted() bool { return m.fitted }

// Vocabulary returns a copy of the term to column mapping.
func (m *Model) Vocabulary() map[string]int {
	out := make(map[string]int, len(m.vocabulary))
	for term, idx := range m.vocabulary {
		out[term] = idx
	}
	return out
}

// IDF returns the weight of term and whether it is in the vocabulary.
func (m *Model) IDF(term string) (float64, bool) {
	idx, ok := m.vocabulary[term]
	if !ok {
		return 0, false
	}
	return m.idf[idx], true
}

// State exports the fitted vocabulary and weights.
func (m *Model) State() State {
	return State{
		MaxFeatures: m.maxFeatures,
		Terms:       append([]string(nil), m.terms...),
		IDF:         append([]float64(nil), m.idf...),
	}
}

// FromState rebuilds a fitted model from an exported State.
func FromState(s State) (*Model, error) {
	m, err := New(s.MaxFeatures)
	if err != nil {
		return nil, err
	}
	if len(s.Terms) != len(s.IDF) {
		return nil, fmt.Errorf("%w: %d terms but %d idf weights", ErrInvalidState, len(s.Terms), len(s.IDF))
	}
	if len(s.Terms) > s.MaxFeatures {
		return nil, fmt.Errorf("%w: %d terms exceed max features %d", ErrInvalidState, len(s.Terms), s.MaxFeatures)
	}
	m.vocabulary = make(map[string]int, len(s.Terms))
	for i, term := range s.Terms {
		if _, dup := m.vocabulary[term]; dup {
			return nil, fmt.Errorf("%w: duplicate term %q", ErrInvalidState, term)
		}
		if !(s.IDF[i] > 0) || math.IsInf(s.IDF[i], 0) {
			return nil, fmt.Errorf("%w: idf for %q is %v", ErrInvalidState, term, s.IDF[i])
		}
		m.vocabulary[term] = i
	}
	m.terms = append([]string(nil), s.Terms...)
	m.idf = append([]float64(nil), s.IDF...)
	m.fitted = true
	return m, nil
}

func (m *Model) vectorize(text string) []float64 {
	vec := make([]float64, len(m.terms))
	tokens := tokenizer.Tokenize(text)
	if len(tokens) == 0 || len(vec) == 0 {
		return vec
	}
	tf := make(map[int]int)
	for _, tok := range tokens {
		if idx, ok := m.vocabulary[tok]; ok {
			tf[idx]++
		}
	}
	if len(tf) == 0 {
		return vec
	}
	total := float64(len(tokens))
	for idx, count := range tf {
		vec[idx] = float64(count) / total * m.idf[idx]
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
