package vectorstore

import "errors"

// ErrSnapshotNotFound is returned by Storage.Load for an unknown name.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Storage persists index snapshots by name.
type Storage interface {
	Save(name string, blob []byte) error
	Load(name string) ([]byte, error)
	Close() error
}

// SaveTo snapshots the index into store under name.
func (ix *Index) SaveTo(store Storage, name string) error {
	blob, err := ix.Snapshot()
	if err != nil {
		return err
	}
	return store.Save(name, blob)
}

// LoadFrom restores the index from the snapshot stored under name.
func (ix *Index) LoadFrom(store Storage, name string) error {
	blob, err := store.Load(name)
	if err != nil {
		return err
	}
	return ix.Restore(blob)
}
