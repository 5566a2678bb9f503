// Package store persists the death dataset: the JSONL record file, the JSON
// mirror, the aggregate index, and the per-run diff stream.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/models"
)

// Repository reads and writes the dataset files under a single output
// directory.
type Repository struct {
	logger ectologger.Logger
	outDir string
}

// NewRepository creates a repository rooted at outDir.
func NewRepository(logger ectologger.Logger, outDir string) *Repository {
	return &Repository{
		logger: logger,
		outDir: outDir,
	}
}

// OutDir returns the repository's output directory.
func (r *Repository) OutDir() string {
	return r.outDir
}

// LoadRaw reads the existing dataset as raw records keyed by id, in file
// order. A missing file is an empty dataset, not an error.
func (r *Repository) LoadRaw() (map[string]models.RawRecord, []string, error) {
	path := r.RecordsPath()
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]models.RawRecord{}, nil, nil
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	records := make(map[string]models.RawRecord)
	var order []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var record models.RawRecord
		if err := json.Unmarshal(text, &record); err != nil {
			return nil, nil, fmt.Errorf("parse %s line %d: %w", path, line, err)
		}
		id, _ := record["id"].(string)
		if id == "" {
			continue
		}
		if _, exists := records[id]; !exists {
			order = append(order, id)
		}
		records[id] = record
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, order, nil
}

// LoadRecords reads the dataset as typed records keyed by id. Used by the
// read API, which serves whatever the last batch wrote.
func (r *Repository) LoadRecords() (map[string]*models.DeathRecord, []*models.DeathRecord, error) {
	path := r.RecordsPath()
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*models.DeathRecord{}, nil, nil
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	byID := make(map[string]*models.DeathRecord)
	var ordered []*models.DeathRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var record models.DeathRecord
		if err := json.Unmarshal(text, &record); err != nil {
			return nil, nil, fmt.Errorf("parse %s line %d: %w", path, line, err)
		}
		if record.ID == "" {
			continue
		}
		byID[record.ID] = &record
		ordered = append(ordered, &record)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return byID, ordered, nil
}

// LoadIndex reads the aggregate index written by the last run.
func (r *Repository) LoadIndex() (*models.AggregateIndex, error) {
	data, err := os.ReadFile(r.IndexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", r.IndexPath(), err)
	}
	var index models.AggregateIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.IndexPath(), err)
	}
	return &index, nil
}
