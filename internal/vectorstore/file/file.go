package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"ragindex/internal/vectorstore"
)

const extension = ".idx"

// Storage keeps one snapshot file per name under a base directory.
type Storage struct {
	baseDir string
	mu      sync.RWMutex
	logger  *logrus.Entry
}

// NewStorage creates the base directory if needed.
func NewStorage(baseDir string, logger *logrus.Entry) (*Storage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if logger == nil {
		logger = logrus.WithField("component", "file_storage")
	}
	return &Storage{baseDir: baseDir, logger: logger}, nil
}

// Save writes blob to a temp file next to the target and renames it into
// place, so readers never observe a partial snapshot.
func (s *Storage) Save(name string, blob []byte) (err error) {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.baseDir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(blob); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"name": name, "bytes": len(blob)}).Info("snapshot saved")
	return nil
}

// Load reads the snapshot stored under name.
func (s *Storage) Load(name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", vectorstore.ErrSnapshotNotFound, name)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}

// Close is a no-op for file storage
func (s *Storage) Close() error {
	return nil
}

func (s *Storage) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}
	return filepath.Join(s.baseDir, name+extension), nil
}
