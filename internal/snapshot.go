package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotVersion is written on save. Load accepts both versioned
// snapshots and the legacy shape without the field.
const SnapshotVersion = 1

type snapshotRecord struct {
	Source    string    `json:"source"`
	Embedding []float64 `json:"embedding"`
}

type snapshotFile struct {
	Version int                       `json:"version,omitempty"`
	Data    map[string]snapshotRecord `json:"data"`
}

// Save serializes the whole store to path as one JSON snapshot,
// replacing any prior file. The write goes through a temp file in the
// same directory followed by a rename, so a crash mid-write never
// leaves a truncated snapshot behind.
func (s *EmbeddingStore) Save(path string) error {
	snap := snapshotFile{
		Version: SnapshotVersion,
		Data:    make(map[string]snapshotRecord),
	}
	for _, rec := range s.Records() {
		snap.Data[rec.Content] = snapshotRecord{
			Source:    rec.Source,
			Embedding: rec.Embedding,
		}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}

	return nil
}

// Load replaces the store's contents with the snapshot at path. There
// is no merge: a successful load leaves exactly the snapshot's records
// in memory, and a failed load leaves the store untouched.
func (s *EmbeddingStore) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrSnapshot, path, err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrSnapshot, path, err)
	}
	if snap.Data == nil {
		return fmt.Errorf("%w: %s has no data field", ErrSnapshot, path)
	}

	records := make(map[string]VectorRecord, len(snap.Data))
	for content, rec := range snap.Data {
		if len(rec.Embedding) == 0 {
			return fmt.Errorf("%w: record %q has no embedding", ErrSnapshot, truncate(content, 40))
		}
		records[content] = VectorRecord{
			Content:   content,
			Source:    rec.Source,
			Embedding: rec.Embedding,
		}
	}

	if err := s.replace(records); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshot, err)
	}

	return nil
}

// SnapshotExists reports whether a snapshot file is present at path.
func SnapshotExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
