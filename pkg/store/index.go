package store

import (
	"time"

	"github.com/Ramsey-B/laurel/pkg/dates"
	"github.com/Ramsey-B/laurel/pkg/models"
)

// BuildIndex aggregates the published records into the dataset index:
// counts by year, context, and homicide status, plus the covered date range.
func BuildIndex(records []*models.DeathRecord, generatedAt time.Time) *models.AggregateIndex {
	index := &models.AggregateIndex{
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		Total:       len(records),
		Counts: models.IndexCounts{
			Year:           map[string]int{},
			Context:        map[string]int{},
			HomicideStatus: map[string]int{},
		},
	}

	var minDate, maxDate time.Time
	for _, record := range records {
		dateValue := ""
		if record.DateOfDeath != nil {
			dateValue = *record.DateOfDeath
		}
		if year := dates.Year(dateValue); year != "" {
			index.Counts.Year[year]++
		}

		context := record.Context()
		index.Counts.Context[context]++

		homicide := record.HomicideStatus
		if homicide == "" {
			homicide = models.Unknown
		}
		index.Counts.HomicideStatus[homicide]++

		if parsed, ok := dates.Parse(dateValue); ok {
			if minDate.IsZero() || parsed.Before(minDate) {
				minDate = parsed
			}
			if maxDate.IsZero() || parsed.After(maxDate) {
				maxDate = parsed
			}
		}
	}

	if !minDate.IsZero() {
		index.DateRange.Min = models.StringPtr(dates.ISODate(minDate))
	}
	if !maxDate.IsZero() {
		index.DateRange.Max = models.StringPtr(dates.ISODate(maxDate))
	}
	return index
}
