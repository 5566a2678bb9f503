package ingest

import (
	"context"
	"strconv"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/dates"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// newsroomRow is one scraped agency press release announcing a death.
type newsroomRow struct {
	Name               *string `json:"name"`
	DateOfDeath        *string `json:"date_of_death"`
	ReleaseDate        *string `json:"release_date"`
	ReleaseURL         *string `json:"release_url"`
	Facility           *string `json:"facility"`
	City               *string `json:"city"`
	State              *string `json:"state"`
	Summary            *string `json:"summary"`
	UnderInvestigation bool    `json:"under_investigation"`
}

// NewsroomFeed reads agency press releases announcing detainee deaths. The
// releases usually trail the matching death report, so callers pass the stop
// keys of records already in the dataset to avoid double-announcing.
type NewsroomFeed struct {
	logger  ectologger.Logger
	path    string
	minYear int
}

// NewNewsroomFeed creates a feed over a press release JSONL file.
func NewNewsroomFeed(path string, minYear int, logger ectologger.Logger) *NewsroomFeed {
	return &NewsroomFeed{
		logger:  logger,
		path:    path,
		minYear: minYear,
	}
}

// StopKeys builds the name|date keys the feed uses to skip releases that
// duplicate records already present.
func StopKeys(records map[string]*models.DeathRecord) map[string]bool {
	keys := make(map[string]bool, len(records))
	for _, record := range records {
		if record.PersonName == nil || record.DateOfDeath == nil {
			continue
		}
		keys[stopKey(*record.PersonName, *record.DateOfDeath)] = true
	}
	return keys
}

// Collect returns candidates for releases not covered by stopKeys.
func (f *NewsroomFeed) Collect(ctx context.Context, accessDate string, stopKeys map[string]bool) ([]models.RawRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.NewsroomFeed.Collect")
	defer span.End()

	log := f.logger.WithContext(ctx).WithField("path", f.path)

	rows, err := readJSONLines[newsroomRow](f.path)
	if err != nil {
		log.WithError(err).Error("Failed to read press release file")
		return nil, err
	}

	records := make([]models.RawRecord, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		name := deref(row.Name)
		dateOfDeath := deref(row.DateOfDeath)
		if name != "" && dateOfDeath != "" && stopKeys[stopKey(name, dateOfDeath)] {
			skipped++
			continue
		}
		record := f.toRecord(row, accessDate)
		if record != nil {
			records = append(records, record)
		}
	}
	log.WithFields(map[string]any{"releases": len(rows), "candidates": len(records), "skipped": skipped}).
		Info("Collected press release candidates")
	return records, nil
}

func (f *NewsroomFeed) toRecord(row newsroomRow, accessDate string) models.RawRecord {
	dateOfDeath := normalizers.CleanString(deref(row.DateOfDeath))
	if dateOfDeath == nil {
		return nil
	}
	year, err := strconv.Atoi(dates.Year(*dateOfDeath))
	if err != nil || year < f.minYear {
		return nil
	}

	url := deref(row.ReleaseURL)
	if url == "" {
		return nil
	}

	name := deref(row.Name)
	homicideStatus := models.Unknown
	if row.UnderInvestigation {
		homicideStatus = "under_investigation"
	}
	summary := deref(row.Summary)
	if summary == "" {
		summary = "ICE press release announcing detainee death"
	}

	return models.RawRecord{
		"person_name":          nilIfEmpty(name),
		"aliases":              []any{},
		"date_of_death":        *dateOfDeath,
		"city":                 optionalAny(row.City),
		"state":                optionalAny(row.State),
		"facility_or_location": optionalAny(row.Facility),
		"facility_name":        optionalAny(row.Facility),
		"death_context":        models.ContextDetention,
		"custody_status":       "ICE detention",
		"agency":               "ICE",
		"homicide_status":      homicideStatus,
		"summary_1_sentence":   summary,
		"confidence_score":     85.0,
		"manual_review":        name == "",
		"sources": []any{map[string]any{
			"url":              url,
			"publisher":        "ice.gov",
			"publish_date":     optionalAny(row.ReleaseDate),
			"access_date":      accessDate,
			"source_type":      models.SourceTypeOfficialRelease,
			"credibility_tier": models.TierHigh,
			"snippet":          optionalString(normalizers.TrimWords(&summary, 25)),
			"claim_tags":       []any{"ice_release"},
		}},
	}
}

func stopKey(name, dateOfDeath string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + strings.TrimSpace(dateOfDeath)
}
