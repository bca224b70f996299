package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"ragindex/internal/domain"
	"ragindex/internal/loader"
	"ragindex/internal/vectorstore"
)

// ErrNoStorage is returned by Save and LoadSnapshot without a configured store.
var ErrNoStorage = errors.New("no snapshot storage configured")

// RAGServiceImpl ingests documents into an Index and answers queries against it.
type RAGServiceImpl struct {
	index               *vectorstore.Index
	store               vectorstore.Storage
	summarizer          domain.Summarizer
	summaryMaxSentences int
	logger              *logrus.Entry
}

// NewRAGService wires the index with an optional snapshot store.
func NewRAGService(index *vectorstore.Index, store vectorstore.Storage, summarizer domain.Summarizer, summaryMaxSentences int, logger *logrus.Entry) *RAGServiceImpl {
	if logger == nil {
		logger = logrus.WithField("component", "rag_service")
	}
	return &RAGServiceImpl{
		index:               index,
		store:               store,
		summarizer:          summarizer,
		summaryMaxSentences: summaryMaxSentences,
		logger:              logger,
	}
}

// IngestDocuments loads .txt documents from paths, indexes them and returns
// a short extractive summary of the loaded text.
func (s *RAGServiceImpl) IngestDocuments(paths []string) (string, error) {
	documents, err := loader.Load(paths)
	if err != nil {
		return "", err
	}
	contents := make([]string, len(documents))
	names := make([]string, len(documents))
	var all strings.Builder
	for i, d := range documents {
		contents[i] = d.Content
		names[i] = d.Name
		all.WriteString(d.Content)
		all.WriteString("\n")
	}
	s.logger.WithField("documents", len(documents)).Info("documents loaded")

	if err := s.index.AddDocuments(contents, names); err != nil {
		return "", fmt.Errorf("index documents: %w", err)
	}
	if s.summarizer == nil {
		return "", nil
	}
	summary, err := s.summarizer.Summarize(all.String(), s.summaryMaxSentences)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return summary, nil
}

// Query returns the topK chunks most similar to query.
func (s *RAGServiceImpl) Query(query string, topK int) ([]domain.SearchResult, error) {
	return s.index.Search(query, topK)
}

// Save persists the current index under name.
func (s *RAGServiceImpl) Save(name string) error {
	if s.store == nil {
		return ErrNoStorage
	}
	if err := s.index.SaveTo(s.store, name); err != nil {
		return fmt.Errorf("save index %s: %w", name, err)
	}
	return nil
}

// LoadSnapshot replaces the current index with the snapshot stored under name.
func (s *RAGServiceImpl) LoadSnapshot(name string) error {
	if s.store == nil {
		return ErrNoStorage
	}
	if err := s.index.LoadFrom(s.store, name); err != nil {
		return fmt.Errorf("load index %s: %w", name, err)
	}
	return nil
}

// Stats reports the size of the current index.
func (s *RAGServiceImpl) Stats() (documents, chunks, dimension int) {
	return s.index.Documents(), s.index.Len(), s.index.Dimension()
}
