package chunker

import (
	"errors"
	"fmt"
	"strings"

	"ragindex/internal/domain"
	"ragindex/internal/tokenizer"
)

// ErrInvalidConfig is returned when the window parameters cannot produce a positive stride.
var ErrInvalidConfig = errors.New("invalid chunker config")

// TokenChunker splits text into fixed-size token windows with overlap.
type TokenChunker struct {
	chunkSize int
	overlap   int
}

// NewTokenChunker requires chunkSize > 0 and 0 <= overlap < chunkSize.
func NewTokenChunker(chunkSize, overlap int) (*TokenChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidConfig, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidConfig, overlap, chunkSize)
	}
	return &TokenChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// ChunkSize returns the maximum number of tokens per chunk.
func (c *TokenChunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the number of tokens shared by consecutive chunks.
func (c *TokenChunker) Overlap() int { return c.overlap }

// Split tokenizes text and returns the space-joined windows in order.
func (c *TokenChunker) Split(text string) []string {
	tokens := tokenizer.Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	stride := c.chunkSize - c.overlap
	chunks := make([]string, 0, (len(tokens)+stride-1)/stride)
	for start := 0; start < len(tokens); start += stride {
		end := min(start+c.chunkSize, len(tokens))
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
	}
	return chunks
}

// Chunk splits a document and tags every window with its position.
func (c *TokenChunker) Chunk(document domain.Document, documentIndex int) []domain.Chunk {
	texts := c.Split(document.Content)
	if len(texts) == 0 {
		return nil
	}
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			Text:          text,
			DocumentIndex: documentIndex,
			ChunkIndex:    i,
		}
	}
	return chunks
}
