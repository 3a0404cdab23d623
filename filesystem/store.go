// Package filesystem provides the default file-backed registry store: one
// JSON document holding the entire fingerprint map, rewritten atomically via
// a temp file and rename on every mutation.
package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/veriseal/veriseal"
)

// Store persists the registry map as a single JSON file.
type Store struct {
	path string
}

// NewStore creates a Store writing to the given file path. The parent
// directory must exist.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// ReadAll reads and decodes the full map. A missing, unreadable, or
// malformed file is returned as an error so the registry can fall back to
// its seed data.
func (s *Store) ReadAll(ctx context.Context) (map[string]veriseal.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}

	var records map[string]veriseal.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode registry file: %w", err)
	}
	if records == nil {
		records = map[string]veriseal.Record{}
	}

	return records, nil
}

// WriteAll serializes the full map and atomically replaces the registry file
// using a temp file in the same directory and a rename.
func (s *Store) WriteAll(ctx context.Context, records map[string]veriseal.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmpPath := filepath.Join(dir, tmpFileName())

	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write registry temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace registry file: %w", err)
	}

	return nil
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
