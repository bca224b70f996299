package bolt_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragindex/internal/vectorstore"
	"ragindex/internal/vectorstore/bolt"
)

func TestBoltStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag.db")

	store, err := bolt.NewStorage(path, nil)
	require.NoError(t, err)

	require.NoError(t, store.Save("companies", []byte{1, 2, 3}))
	loaded, err := store.Load("companies")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, loaded)

	_, err = store.Load("missing")
	assert.ErrorIs(t, err, vectorstore.ErrSnapshotNotFound)

	assert.Error(t, store.Save("", []byte{1}))

	// Reopen (persistence)
	require.NoError(t, store.Close())
	reopened, err := bolt.NewStorage(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err = reopened.Load("companies")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, loaded)
}

func TestBoltStorageIndexRoundTrip(t *testing.T) {
	store, err := bolt.NewStorage(filepath.Join(t.TempDir(), "rag.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	src, err := vectorstore.New(vectorstore.Config{ChunkSize: 4, Overlap: 1, MaxFeatures: 20})
	require.NoError(t, err)
	require.NoError(t, src.AddDocuments([]string{
		"Tesla builds electric vehicles and battery storage",
		"SpaceX builds reusable rockets",
	}, []string{"tesla", "spacex"}))
	require.NoError(t, src.SaveTo(store, "default"))

	dst, err := vectorstore.New(vectorstore.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, dst.LoadFrom(store, "default"))

	assert.Equal(t, src.Config(), dst.Config())
	want, err := src.Search("reusable rockets", 3)
	require.NoError(t, err)
	got, err := dst.Search("reusable rockets", 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBoltStorageCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "share", "rag", "rag.db")

	store, err := bolt.NewStorage(path, nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save("default", []byte{7}))
	assert.FileExists(t, path)
}
