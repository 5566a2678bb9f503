package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Ramsey-B/laurel/pkg/models"
)

// File names within the output directory.
const (
	recordsFile = "deaths.jsonl"
	mirrorFile  = "deaths.json"
	indexFile   = "index.json"
	diffsDir    = "diffs"
)

// RecordsPath is the canonical JSONL dataset file.
func (r *Repository) RecordsPath() string {
	return filepath.Join(r.outDir, recordsFile)
}

// MirrorPath is the pretty-printed JSON mirror of the dataset.
func (r *Repository) MirrorPath() string {
	return filepath.Join(r.outDir, mirrorFile)
}

// IndexPath is the aggregate index file.
func (r *Repository) IndexPath() string {
	return filepath.Join(r.outDir, indexFile)
}

// DiffPath is the diff file for a given run date.
func (r *Repository) DiffPath(runDate time.Time) string {
	return filepath.Join(r.outDir, diffsDir, fmt.Sprintf("diff_%s.jsonl", runDate.UTC().Format("2006-01-02")))
}

// WriteOutputs writes every dataset file for a completed run. Each file is
// written to a temp file and renamed so readers never observe a partial
// write. When there are no diff entries the diffs directory is still
// created, marking the run as having happened.
func (r *Repository) WriteOutputs(ordered []*models.DeathRecord, index *models.AggregateIndex, diffs []models.DiffEntry, runDate time.Time) error {
	if err := writeJSONLAtomic(r.RecordsPath(), jsonlLines(ordered)); err != nil {
		return err
	}
	if err := writeJSONAtomic(r.MirrorPath(), ordered); err != nil {
		return err
	}
	if err := writeJSONAtomic(r.IndexPath(), index); err != nil {
		return err
	}

	diffPath := r.DiffPath(runDate)
	if len(diffs) == 0 {
		if err := os.MkdirAll(filepath.Dir(diffPath), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(diffPath), err)
		}
		return nil
	}
	lines := make([]any, len(diffs))
	for i := range diffs {
		lines[i] = diffs[i]
	}
	return writeJSONLAtomic(diffPath, lines)
}

func jsonlLines(records []*models.DeathRecord) []any {
	lines := make([]any, len(records))
	for i := range records {
		lines[i] = records[i]
	}
	return lines
}

func writeJSONLAtomic(path string, lines []any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	for _, line := range lines {
		if err := encoder.Encode(line); err != nil {
			tmp.Close()
			return fmt.Errorf("encode record: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func writeJSONAtomic(path string, payload any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
