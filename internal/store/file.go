// Package store provides the persistence backends for the baseline
// calibration record: a JSON file and a single-row SQLite table.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"roadsense/internal/calibration"
)

// FileRepository persists the baseline record as a JSON file. Writes go
// through a temp file plus rename so a crash never leaves a partial
// record behind.
type FileRepository struct {
	path string
}

var _ calibration.RecordRepository = (*FileRepository)(nil)

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Save(ctx context.Context, rec calibration.BaselineRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal record: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".baseline-*.json")
	if err != nil {
		return fmt.Errorf("store: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: replace %s: %w", r.path, err)
	}
	return nil
}

func (r *FileRepository) Load(ctx context.Context) (*calibration.BaselineRecord, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", r.path, err)
	}
	var rec calibration.BaselineRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", r.path, err)
	}
	return &rec, nil
}

func (r *FileRepository) Exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(r.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: stat %s: %w", r.path, err)
	}
	return true, nil
}

func (r *FileRepository) Clear(ctx context.Context) error {
	err := os.Remove(r.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: remove %s: %w", r.path, err)
	}
	return nil
}
