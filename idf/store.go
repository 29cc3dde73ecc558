package idf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	// SnapshotVersion is the durable format version.
	SnapshotVersion = 1

	// SnapshotFile is the file name of the durable table.
	SnapshotFile = "idf_scores.json"
)

// Snapshot is a durable copy of a table and its metadata.
type Snapshot struct {
	Version            int       `json:"version"`
	BuiltAt            time.Time `json:"built_at"`
	SourceProjectCount int       `json:"source_project_count"`
	TermCount          int       `json:"term_count"`
	Scores             Table     `json:"idf_scores"`
}

// Store persists table snapshots.
type Store interface {
	// Load returns the stored snapshot or ErrNoSnapshot.
	Load(ctx context.Context) (*Snapshot, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, snapshot *Snapshot) error

	// Clear removes the stored snapshot. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// FileStore keeps the snapshot as a JSON file in a directory.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the snapshot file path.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, SnapshotFile)
}

// Load reads the snapshot file.
func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, snapshot.Version)
	}
	if snapshot.Scores == nil {
		return nil, fmt.Errorf("%w: missing idf_scores", ErrCorruptSnapshot)
	}
	return &snapshot, nil
}

// Save writes the snapshot through a temporary file and renames it into place,
// so readers never observe a partial file.
func (s *FileStore) Save(ctx context.Context, snapshot *Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, SnapshotFile+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.Path())
}

// Clear removes the snapshot file.
func (s *FileStore) Clear(ctx context.Context) error {
	err := os.Remove(s.Path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
