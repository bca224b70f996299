package vectorstore

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"ragindex/internal/chunker"
	"ragindex/internal/domain"
	"ragindex/internal/embedding/tfidf"
)

// SnapshotVersion is the snapshot format written by Snapshot and the only one
// accepted by Restore.
const SnapshotVersion uint16 = 1

var snapshotMagic = [4]byte{'T', 'F', 'I', 'X'}

// normTolerance bounds how far a stored vector's length may drift from 1.
const normTolerance = 1e-6

var (
	// ErrSnapshotCorrupt is returned for unreadable or inconsistent snapshots.
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
	// ErrSnapshotVersion is returned for snapshots written in another format version.
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
)

type snapshotRecord struct {
	ChunkSize   int
	Overlap     int
	MaxFeatures int
	Documents   int
	Chunks      []domain.Chunk
	Vectors     [][]float64
	Metadata    []domain.Metadata
	Terms       []string
	IDF         []float64
}

// Snapshot serializes the complete index state as one versioned blob.
func (ix *Index) Snapshot() ([]byte, error) {
	ix.mu.RLock()
	state := ix.model.State()
	rec := snapshotRecord{
		ChunkSize:   ix.cfg.ChunkSize,
		Overlap:     ix.cfg.Overlap,
		MaxFeatures: ix.cfg.MaxFeatures,
		Documents:   ix.docCount,
		Chunks:      ix.chunks,
		Vectors:     ix.vectors,
		Metadata:    ix.metadata,
		Terms:       state.Terms,
		IDF:         state.IDF,
	}
	var buf bytes.Buffer
	buf.Write(snapshotMagic[:])
	_ = binary.Write(&buf, binary.BigEndian, SnapshotVersion)
	err := gob.NewEncoder(&buf).Encode(&rec)
	ix.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Restore replaces the index state with a snapshot. The blob is fully decoded
// and validated before the index is touched; on error the index is unchanged.
func (ix *Index) Restore(blob []byte) error {
	rec, err := decodeSnapshot(blob)
	if err != nil {
		return err
	}
	cfg := Config{ChunkSize: rec.ChunkSize, Overlap: rec.Overlap, MaxFeatures: rec.MaxFeatures}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	model, err := tfidf.FromState(tfidf.State{MaxFeatures: rec.MaxFeatures, Terms: rec.Terms, IDF: rec.IDF})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if len(rec.Chunks) != len(rec.Vectors) || len(rec.Chunks) != len(rec.Metadata) {
		return fmt.Errorf("%w: %d chunks, %d vectors, %d metadata records",
			ErrSnapshotCorrupt, len(rec.Chunks), len(rec.Vectors), len(rec.Metadata))
	}
	for i, v := range rec.Vectors {
		if len(v) != model.Dimension() {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrSnapshotCorrupt, i, len(v), model.Dimension())
		}
		if err := checkUnitOrZero(v); err != nil {
			return fmt.Errorf("%w: vector %d: %v", ErrSnapshotCorrupt, i, err)
		}
		ch, md := rec.Chunks[i], rec.Metadata[i]
		if md.DocumentIndex != ch.DocumentIndex || md.ChunkIndex != ch.ChunkIndex {
			return fmt.Errorf("%w: metadata %d points at document %d chunk %d, chunk is document %d chunk %d",
				ErrSnapshotCorrupt, i, md.DocumentIndex, md.ChunkIndex, ch.DocumentIndex, ch.ChunkIndex)
		}
	}
	ch, _ := chunker.NewTokenChunker(cfg.ChunkSize, cfg.Overlap)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.cfg = cfg
	ix.chunker = ch
	ix.model = model
	ix.chunks = rec.Chunks
	ix.vectors = rec.Vectors
	ix.metadata = rec.Metadata
	ix.docCount = rec.Documents

	ix.logger.WithFields(logrus.Fields{
		"chunks":     len(rec.Chunks),
		"dimensions": model.Dimension(),
	}).Info("index restored")
	return nil
}

func decodeSnapshot(blob []byte) (*snapshotRecord, error) {
	header := len(snapshotMagic) + 2
	if len(blob) < header || !bytes.Equal(blob[:len(snapshotMagic)], snapshotMagic[:]) {
		return nil, fmt.Errorf("%w: missing header", ErrSnapshotCorrupt)
	}
	version := binary.BigEndian.Uint16(blob[len(snapshotMagic):header])
	if version != SnapshotVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSnapshotVersion, version, SnapshotVersion)
	}
	var rec snapshotRecord
	if err := gob.NewDecoder(bytes.NewReader(blob[header:])).Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	return &rec, nil
}

func checkUnitOrZero(v []float64) error {
	var sq float64
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return errors.New("non-finite component")
		}
		sq += x * x
	}
	if sq == 0 {
		return nil
	}
	if norm := math.Sqrt(sq); math.Abs(norm-1) > normTolerance {
		return fmt.Errorf("norm %g is neither 0 nor 1", norm)
	}
	return nil
}
