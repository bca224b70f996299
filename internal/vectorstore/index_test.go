package vectorstore_test

import (
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragindex/internal/vectorstore"
)

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger.WithField("test", "vectorstore")
}

func newIndex(t *testing.T, size, overlap, features int) *vectorstore.Index {
	t.Helper()
	ix, err := vectorstore.New(vectorstore.Config{ChunkSize: size, Overlap: overlap, MaxFeatures: features},
		vectorstore.WithLogger(quietLogger()))
	require.NoError(t, err)
	return ix
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  vectorstore.Config
	}{
		{"Overlap equals chunk size", vectorstore.Config{ChunkSize: 10, Overlap: 10, MaxFeatures: 5}},
		{"Overlap exceeds chunk size", vectorstore.Config{ChunkSize: 10, Overlap: 11, MaxFeatures: 5}},
		{"Negative overlap", vectorstore.Config{ChunkSize: 10, Overlap: -1, MaxFeatures: 5}},
		{"Zero chunk size", vectorstore.Config{ChunkSize: 0, Overlap: 0, MaxFeatures: 5}},
		{"Zero features", vectorstore.Config{ChunkSize: 10, Overlap: 0, MaxFeatures: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := vectorstore.New(tt.cfg)
			assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
			assert.Nil(t, ix)
		})
	}

	ix, err := vectorstore.New(vectorstore.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, vectorstore.DefaultConfig(), ix.Config())
}

func TestSearchCatDogScenario(t *testing.T) {
	ix := newIndex(t, 10, 0, 10)
	require.NoError(t, ix.AddDocuments([]string{"the cat sat on the mat", "the dog sat on the log"}, nil))

	results, err := ix.Search("cat sat", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "the cat sat on the mat", results[0].Chunk.Text)
	assert.Equal(t, "doc_0", results[0].Metadata.DocumentName)

	all, err := ix.Search("cat sat", 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Greater(t, all[0].Score, all[1].Score)
	assert.Equal(t, "doc_1", all[1].Metadata.DocumentName)
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := newIndex(t, 10, 0, 10)

	results, err := ix.Search("anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, ix.AddDocuments([]string{}, nil))
	results, err = ix.Search("anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, ix.Len())
}

func TestSearchTopKLargerThanCorpus(t *testing.T) {
	ix := newIndex(t, 4, 1, 50)
	require.NoError(t, ix.AddDocuments([]string{
		"go programming language with goroutines and channels",
		"python programming language",
		"banana fruit split",
	}, []string{"go", "python", "fruit"}))

	n := ix.Len()
	results, err := ix.Search("programming language", 100)
	require.NoError(t, err)
	require.Len(t, results, n)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearchNonPositiveTopK(t *testing.T) {
	ix := newIndex(t, 10, 0, 10)
	require.NoError(t, ix.AddDocuments([]string{"alpha beta"}, nil))

	for _, k := range []int{0, -3} {
		results, err := ix.Search("alpha", k)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestSearchSelfMatchRanksFirst(t *testing.T) {
	ix := newIndex(t, 5, 0, 100)
	docs := []string{
		"rockets launch satellites into orbit around earth",
		"electric cars use lithium batteries and motors",
		"graphics processors accelerate neural network training",
	}
	require.NoError(t, ix.AddDocuments(docs, nil))

	results, err := ix.Search("electric cars use lithium batteries", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "electric cars use lithium batteries", results[0].Chunk.Text)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, 1, results[0].Metadata.DocumentIndex)
	assert.Equal(t, 0, results[0].Metadata.ChunkIndex)
}

func TestSearchTiesKeepCorpusOrder(t *testing.T) {
	ix := newIndex(t, 10, 0, 10)
	require.NoError(t, ix.AddDocuments([]string{"alpha", "beta", "gamma"}, nil))

	// No vocabulary overlap: every score is zero.
	results, err := ix.Search("delta", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, 0.0, r.Score)
		assert.Equal(t, i, r.Metadata.DocumentIndex)
	}
}

func TestAddDocumentsMetadata(t *testing.T) {
	ix := newIndex(t, 3, 1, 50)
	require.NoError(t, ix.AddDocuments([]string{"one two three four five", "six"}, []string{"first", "second"}))

	// first: [one two three] [three four five] [five]; second: [six]
	assert.Equal(t, 4, ix.Len())
	assert.Equal(t, 2, ix.Documents())

	results, err := ix.Search("six", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "second", results[0].Metadata.DocumentName)
	assert.Equal(t, 1, results[0].Metadata.DocumentIndex)
	assert.Equal(t, 0, results[0].Metadata.ChunkIndex)
	assert.Equal(t, results[0].Chunk.DocumentIndex, results[0].Metadata.DocumentIndex)
	assert.Equal(t, results[0].Chunk.ChunkIndex, results[0].Metadata.ChunkIndex)
}

func TestAddDocumentsNameMismatch(t *testing.T) {
	ix := newIndex(t, 10, 0, 10)
	err := ix.AddDocuments([]string{"a", "b"}, []string{"only one"})
	assert.ErrorIs(t, err, vectorstore.ErrNameCountMismatch)
	assert.Equal(t, 0, ix.Len())
}

func TestAddDocumentsEmptyNamesSynthesizes(t *testing.T) {
	ix := newIndex(t, 10, 0, 10)
	require.NoError(t, ix.AddDocuments([]string{"alpha beta", "gamma delta"}, []string{}))

	results, err := ix.Search("gamma", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc_1", results[0].Metadata.DocumentName)
}

func TestAddDocumentsRebuildsOverAccumulatedCorpus(t *testing.T) {
	ix := newIndex(t, 10, 0, 10)
	require.NoError(t, ix.AddDocuments([]string{"the cat sat on the mat"}, nil))
	first := ix.Dimension()

	require.NoError(t, ix.AddDocuments([]string{"the dog sat on the log"}, nil))
	assert.Equal(t, 2, ix.Len())
	assert.Greater(t, ix.Dimension(), first)

	// A term only in the first batch is still searchable after the rebuild.
	results, err := ix.Search("mat", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc_0", results[0].Metadata.DocumentName)

	// Numbering continues across calls.
	results, err = ix.Search("log", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc_1", results[0].Metadata.DocumentName)
	assert.Equal(t, 1, results[0].Metadata.DocumentIndex)
}

func TestClear(t *testing.T) {
	ix := newIndex(t, 10, 0, 10)
	require.NoError(t, ix.AddDocuments([]string{"alpha beta"}, nil))
	ix.Clear()

	assert.Equal(t, 0, ix.Len())
	assert.Equal(t, 0, ix.Documents())
	results, err := ix.Search("alpha", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestConcurrentSearch(t *testing.T) {
	ix := newIndex(t, 5, 1, 100)
	require.NoError(t, ix.AddDocuments([]string{
		"google was founded in 1998 by larry page and sergey brin",
		"microsoft was founded in 1975 by bill gates and paul allen",
		"nvidia designs graphics processing units",
	}, []string{"google", "microsoft", "nvidia"}))

	want, err := ix.Search("when was google founded", 3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := ix.Search("when was google founded", 3)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
