package merging

import (
	"sort"

	"github.com/Ramsey-B/laurel/pkg/models"
)

// FieldMerger folds one record's fields into another, respecting placeholder
// values and recording every change it makes.
type FieldMerger struct {
	changes []models.ChangeLog
}

// NewFieldMerger creates a merger for a single merge operation.
func NewFieldMerger() *FieldMerger {
	return &FieldMerger{}
}

// Changes returns everything recorded so far.
func (m *FieldMerger) Changes() []models.ChangeLog {
	return m.changes
}

// UpdateOptional overwrites a nullable field with a non-nil incoming value.
func (m *FieldMerger) UpdateOptional(field string, current **string, incoming *string) {
	if incoming == nil {
		return
	}
	if *current != nil && **current == *incoming {
		return
	}
	m.record(field, optionalString(*current), *incoming)
	*current = incoming
}

// UpdateString overwrites a required field unless the incoming value is a
// placeholder and the current value is not. Placeholders never clobber real
// data.
func (m *FieldMerger) UpdateString(field string, current *string, incoming string, placeholders map[string]bool) {
	if incoming == "" {
		return
	}
	if placeholders != nil && placeholders[incoming] && !placeholders[*current] {
		return
	}
	if incoming == *current {
		return
	}
	m.record(field, *current, incoming)
	*current = incoming
}

// UpdateOptionalFloat overwrites a nullable numeric field.
func (m *FieldMerger) UpdateOptionalFloat(field string, current **float64, incoming *float64) {
	if incoming == nil {
		return
	}
	if *current != nil && **current == *incoming {
		return
	}
	var previous any
	if *current != nil {
		previous = **current
	}
	m.record(field, previous, *incoming)
	*current = incoming
}

// UpdateOptionalBool overwrites a nullable boolean field.
func (m *FieldMerger) UpdateOptionalBool(field string, current **bool, incoming *bool) {
	if incoming == nil {
		return
	}
	if *current != nil && **current == *incoming {
		return
	}
	var previous any
	if *current != nil {
		previous = **current
	}
	m.record(field, previous, *incoming)
	*current = incoming
}

// MergeAliases unions alias lists into sorted order.
func (m *FieldMerger) MergeAliases(current *[]string, incoming []string) {
	if len(incoming) == 0 {
		return
	}
	seen := make(map[string]bool, len(*current)+len(incoming))
	for _, alias := range *current {
		seen[alias] = true
	}
	for _, alias := range incoming {
		seen[alias] = true
	}
	merged := make([]string, 0, len(seen))
	for alias := range seen {
		merged = append(merged, alias)
	}
	sort.Strings(merged)
	if equalStrings(merged, *current) {
		return
	}
	m.record("aliases", append([]string(nil), *current...), merged)
	*current = merged
}

// MergeSources appends incoming sources whose URL is not already cited.
func (m *FieldMerger) MergeSources(current *[]models.Source, incoming []models.Source) {
	merged := DedupeSources(*current, incoming)
	if len(merged) == len(*current) {
		return
	}
	m.record("sources", *current, merged)
	*current = merged
}

// MergeConfidence keeps the higher score.
func (m *FieldMerger) MergeConfidence(current *int, incoming int) {
	if incoming <= *current {
		return
	}
	m.record("confidence_score", *current, incoming)
	*current = incoming
}

// MergeManualReview is sticky once set.
func (m *FieldMerger) MergeManualReview(current *bool, incoming bool) {
	if !incoming || *current {
		return
	}
	m.record("manual_review", false, true)
	*current = true
}

func (m *FieldMerger) record(field string, previous, next any) {
	m.changes = append(m.changes, models.ChangeLog{Field: field, PreviousValue: previous, NewValue: next})
}

// DedupeSources unions two source lists by URL, preserving order and keeping
// the first occurrence of each URL.
func DedupeSources(existing, incoming []models.Source) []models.Source {
	seen := make(map[string]bool, len(existing))
	merged := append([]models.Source(nil), existing...)
	for _, source := range existing {
		if source.URL != "" {
			seen[source.URL] = true
		}
	}
	for _, source := range incoming {
		if source.URL == "" || seen[source.URL] {
			continue
		}
		merged = append(merged, source)
		seen[source.URL] = true
	}
	return merged
}

func optionalString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
