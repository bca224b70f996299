package vectorstore

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"ragindex/internal/chunker"
	"ragindex/internal/domain"
	"ragindex/internal/embedding/tfidf"
)

var (
	// ErrInvalidConfig is returned when an Index is constructed with unusable parameters.
	ErrInvalidConfig = errors.New("invalid index config")
	// ErrNameCountMismatch is returned when names do not line up with documents.
	ErrNameCountMismatch = errors.New("document names and documents length mismatch")
)

// Config holds the chunking and vocabulary parameters of an Index.
type Config struct {
	ChunkSize   int
	Overlap     int
	MaxFeatures int
}

// DefaultConfig returns 50-token chunks with 10 tokens of overlap and a 200-term vocabulary.
func DefaultConfig() Config {
	return Config{ChunkSize: 50, Overlap: 10, MaxFeatures: 200}
}

// Validate reports the first unusable parameter.
func (c Config) Validate() error {
	if _, err := chunker.NewTokenChunker(c.ChunkSize, c.Overlap); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := tfidf.New(c.MaxFeatures); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Option customizes an Index.
type Option func(*Index)

// WithLogger sets the logger used for ingestion and restore messages.
func WithLogger(logger *logrus.Entry) Option {
	return func(ix *Index) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// Index is an in-memory TF-IDF vector store using brute-force cosine similarity.
// chunks, vectors and metadata are parallel slices; the model, vectors and
// metadata are always replaced together under the write lock.
type Index struct {
	mu       sync.RWMutex
	cfg      Config
	chunker  domain.Chunker
	model    *tfidf.Model
	chunks   []domain.Chunk
	vectors  [][]float64
	metadata []domain.Metadata
	docCount int
	logger   *logrus.Entry
}

// New creates an empty Index.
func New(cfg Config, opts ...Option) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ch, _ := chunker.NewTokenChunker(cfg.ChunkSize, cfg.Overlap)
	model, _ := tfidf.New(cfg.MaxFeatures)
	ix := &Index{
		cfg:     cfg,
		chunker: ch,
		model:   model,
		logger:  logrus.WithField("component", "vectorstore"),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// AddDocuments chunks documents, appends them to the corpus and rebuilds the
// vocabulary, IDF table and every vector over the whole accumulated corpus.
// A nil or empty names slice synthesizes doc_<n> names.
func (ix *Index) AddDocuments(documents []string, names []string) error {
	if len(names) != 0 && len(names) != len(documents) {
		return fmt.Errorf("%w: %d names for %d documents", ErrNameCountMismatch, len(names), len(documents))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	chunks := append([]domain.Chunk(nil), ix.chunks...)
	metadata := append([]domain.Metadata(nil), ix.metadata...)
	for i, content := range documents {
		docIndex := ix.docCount + i
		name := fmt.Sprintf("doc_%d", docIndex)
		if len(names) != 0 {
			name = names[i]
		}
		for _, ch := range ix.chunker.Chunk(domain.Document{Name: name, Content: content}, docIndex) {
			chunks = append(chunks, ch)
			metadata = append(metadata, domain.Metadata{
				DocumentName:  name,
				DocumentIndex: ch.DocumentIndex,
				ChunkIndex:    ch.ChunkIndex,
			})
		}
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	model, _ := tfidf.New(ix.cfg.MaxFeatures)
	vectors := model.FitTransform(texts)

	ix.chunks = chunks
	ix.metadata = metadata
	ix.vectors = vectors
	ix.model = model
	ix.docCount += len(documents)

	ix.logger.WithFields(logrus.Fields{
		"documents":  len(documents),
		"chunks":     len(chunks),
		"dimensions": model.Dimension(),
	}).Info("documents indexed")
	return nil
}

// Search returns the topK chunks most similar to query in descending score
// order. Equal scores keep corpus order. An empty index or a non-positive
// topK yields an empty result.
func (ix *Index) Search(query string, topK int) ([]domain.SearchResult, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.chunks) == 0 || topK <= 0 {
		return []domain.SearchResult{}, nil
	}
	qvec, err := ix.model.Embed(query)
	if err != nil {
		return nil, err
	}
	// compute cosine similarity (vectors are L2-normalized)
	scores := make([]float64, len(ix.vectors))
	for i := range ix.vectors {
		scores[i] = dot(ix.vectors[i], qvec)
	}
	idxs := argsortDesc(scores)
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, j := range idxs[:topK] {
		results = append(results, domain.SearchResult{
			Chunk:    ix.chunks[j],
			Score:    scores[j],
			Metadata: ix.metadata[j],
		})
	}
	return results, nil
}

// Clear drops every chunk and the fitted model, keeping the configuration.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.model, _ = tfidf.New(ix.cfg.MaxFeatures)
	ix.chunks = nil
	ix.vectors = nil
	ix.metadata = nil
	ix.docCount = 0
}

// Len returns the number of stored chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// Documents returns the number of documents ingested so far.
func (ix *Index) Documents() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docCount
}

// Dimension returns the vector dimensionality of the fitted model.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.model.Dimension()
}

// Config returns the active chunking and vocabulary parameters.
func (ix *Index) Config() Config {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.cfg
}

func dot(a, b []float64) float64 {
	n := min(len(a), len(b))
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return vals[idxs[a]] > vals[idxs[b]] })
	return idxs
}
