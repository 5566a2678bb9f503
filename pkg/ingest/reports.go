package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/dates"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// reportRow is one parsed detainee death report.
type reportRow struct {
	Name           *string  `json:"name"`
	DateOfDeath    *string  `json:"date_of_death"`
	Facility       *string  `json:"facility"`
	City           *string  `json:"city"`
	State          *string  `json:"state"`
	CauseOfDeath   *string  `json:"cause_of_death"`
	MannerOfDeath  *string  `json:"manner_of_death"`
	Age            *float64 `json:"age"`
	Nationality    *string  `json:"nationality"`
	ReportURLs     []string `json:"report_urls"`
	ReportDate     *string  `json:"report_date"`
	HomicideStatus *string  `json:"homicide_status"`
}

// ReportFeed reads detainee death reports scraped off ice.gov. Each line of
// the file is one report.
type ReportFeed struct {
	logger  ectologger.Logger
	path    string
	minYear int
}

// NewReportFeed creates a feed over a death report JSONL file. Reports whose
// death date falls before minYear are skipped.
func NewReportFeed(path string, minYear int, logger ectologger.Logger) *ReportFeed {
	return &ReportFeed{
		logger:  logger,
		path:    path,
		minYear: minYear,
	}
}

// Collect returns candidates for every report in the file.
func (f *ReportFeed) Collect(ctx context.Context, accessDate string) ([]models.RawRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.ReportFeed.Collect")
	defer span.End()

	log := f.logger.WithContext(ctx).WithField("path", f.path)

	rows, err := readJSONLines[reportRow](f.path)
	if err != nil {
		log.WithError(err).Error("Failed to read death report file")
		return nil, err
	}

	records := make([]models.RawRecord, 0, len(rows))
	for _, row := range rows {
		record := f.toRecord(row, accessDate)
		if record != nil {
			records = append(records, record)
		}
	}
	log.WithFields(map[string]any{"reports": len(rows), "candidates": len(records)}).
		Info("Collected death report candidates")
	return records, nil
}

func (f *ReportFeed) toRecord(row reportRow, accessDate string) models.RawRecord {
	dateOfDeath := normalizers.CleanString(optionalString(row.DateOfDeath))
	if dateOfDeath == nil {
		return nil
	}
	year, err := strconv.Atoi(dates.Year(*dateOfDeath))
	if err != nil || year < f.minYear {
		return nil
	}

	sources := make([]any, 0, len(row.ReportURLs))
	for _, url := range row.ReportURLs {
		if url == "" {
			continue
		}
		sources = append(sources, map[string]any{
			"url":              url,
			"publisher":        "ice.gov",
			"publish_date":     optionalAny(row.ReportDate),
			"access_date":      accessDate,
			"source_type":      models.SourceTypeOfficialReport,
			"credibility_tier": models.TierHigh,
			"snippet":          "ICE detainee death report",
			"claim_tags":       []any{"ice_death_report"},
		})
	}
	if len(sources) == 0 {
		return nil
	}

	name := deref(row.Name)
	record := models.RawRecord{
		"person_name":             nilIfEmpty(name),
		"aliases":                 []any{},
		"date_of_death":           *dateOfDeath,
		"city":                    optionalAny(row.City),
		"state":                   optionalAny(row.State),
		"facility_or_location":    optionalAny(row.Facility),
		"facility_name":           optionalAny(row.Facility),
		"death_context":           models.ContextDetention,
		"custody_status":          "ICE detention",
		"agency":                  "ICE",
		"cause_of_death_reported": optionalAny(row.CauseOfDeath),
		"manner_of_death":         optionalAny(row.MannerOfDeath),
		"homicide_status":         stringOrUnknown(row.HomicideStatus),
		"nationality":             optionalAny(row.Nationality),
		"summary_1_sentence":      fmt.Sprintf("ICE detainee death report for %s", firstNonEmpty(name, "an unnamed detainee")),
		"confidence_score":        90.0,
		"manual_review":           name == "",
		"sources":                 sources,
	}
	if row.Age != nil {
		record["age"] = *row.Age
	}
	return record
}

func stringOrUnknown(value *string) string {
	if value == nil || *value == "" {
		return models.Unknown
	}
	return *value
}

// readJSONLines decodes a JSONL file into typed rows, skipping blank lines.
func readJSONLines[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var rows []T
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row T
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return rows, nil
}
