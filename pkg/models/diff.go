package models

// Change types recorded in the per-run diff stream.
const (
	ChangeTypeAdded   = "added"
	ChangeTypeUpdated = "updated"
)

// ChangeLog describes a single field mutation applied during a merge.
type ChangeLog struct {
	Field         string `json:"field"`
	PreviousValue any    `json:"previous_value"`
	NewValue      any    `json:"new_value"`
}

// DiffEntry is one line of the run diff file: the post-merge record plus
// what happened to it this run.
type DiffEntry struct {
	DeathRecord
	ChangeType string      `json:"change_type"`
	ChangeLog  []ChangeLog `json:"change_log,omitempty"`
}

// RunSummary is the per-run tally logged and returned by the processor.
type RunSummary struct {
	Processed    int `json:"processed"`
	Added        int `json:"added"`
	Updated      int `json:"updated"`
	Collapsed    int `json:"collapsed"`
	Dropped      int `json:"dropped"`
	ManualReview int `json:"manual_review"`
	Total        int `json:"total"`
}

// IndexCounts groups record counts by common query dimensions.
type IndexCounts struct {
	Year           map[string]int `json:"year"`
	Context        map[string]int `json:"context"`
	HomicideStatus map[string]int `json:"homicide_status"`
}

// DateRange is the min/max date_of_death across the dataset.
type DateRange struct {
	Min *string `json:"min"`
	Max *string `json:"max"`
}

// AggregateIndex is the dataset-level summary written alongside the records.
type AggregateIndex struct {
	GeneratedAt string      `json:"generated_at"`
	Total       int         `json:"total"`
	Counts      IndexCounts `json:"counts"`
	DateRange   DateRange   `json:"date_range"`
}
