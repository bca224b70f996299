package bolt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"ragindex/internal/vectorstore"
)

var bucketSnapshots = []byte("snapshots")

// Storage keeps snapshots in a bbolt database, one key per name.
type Storage struct {
	db     *bbolt.DB
	logger *logrus.Entry
}

// NewStorage opens (or creates) the database at path, creating missing parent directories.
func NewStorage(path string, logger *logrus.Entry) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	if logger == nil {
		logger = logrus.WithField("component", "bolt_storage")
	}
	return &Storage{db: db, logger: logger}, nil
}

// Save stores blob under name, replacing any previous snapshot.
func (s *Storage) Save(name string, blob []byte) error {
	if name == "" {
		return errors.New("empty snapshot name")
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put([]byte(name), blob)
	})
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", name, err)
	}
	s.logger.WithFields(logrus.Fields{"name": name, "bytes": len(blob)}).Info("snapshot saved")
	return nil
}

// Load returns a copy of the snapshot stored under name.
func (s *Storage) Load(name string) ([]byte, error) {
	var blob []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSnapshots).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %s", vectorstore.ErrSnapshotNotFound, name)
		}
		// data is only valid inside the transaction
		blob = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// Close releases the database file lock.
func (s *Storage) Close() error {
	return s.db.Close()
}
