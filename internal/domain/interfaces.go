package domain

// Document represents a single text file loaded into the system.
type Document struct {
	Name    string
	Path    string
	Content string
}

// Chunk is a window of a document's token stream used for indexing.
type Chunk struct {
	Text          string
	DocumentIndex int
	ChunkIndex    int
}

// Metadata describes where a stored chunk came from.
type Metadata struct {
	DocumentName  string
	DocumentIndex int
	ChunkIndex    int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk    Chunk
	Score    float64
	Metadata Metadata
}

// Embedder converts free text into a numeric vector representation.
// Implementations require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Fit(corpus []string)
	Dimension() int
	Transform(texts []string) ([][]float64, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document, documentIndex int) []Chunk
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// RAGService defines the operations exposed by the application core.
type RAGService interface {
	IngestDocuments(paths []string) (summary string, err error)
	Query(query string, topK int) ([]SearchResult, error)
}
