// Package ingest collects candidate death records from the three feeds:
// the news triplet index, parsed detainee death reports, and scraped agency
// press releases.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/Ramsey-B/laurel/pkg/dates"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
	"github.com/Ramsey-B/laurel/pkg/policy"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Years a triplet's publication date may fall in. The feed predates the
// dataset and is full of unrelated historical stories.
var tripletYears = map[int]bool{2025: true, 2026: true}

// Triplet is one row of the news extraction index.
type Triplet struct {
	StoryID       *string  `db:"story_id"`
	URL           *string  `db:"url"`
	Source        *string  `db:"source"`
	Title         *string  `db:"title"`
	Who           *string  `db:"who"`
	What          *string  `db:"what"`
	Target        *string  `db:"target"`
	WhereText     *string  `db:"where_text"`
	PublishedAt   *string  `db:"published_at"`
	Latitude      *float64 `db:"latitude"`
	Longitude     *float64 `db:"longitude"`
	GeocodeStatus *string  `db:"geocode_status"`
}

// TripletFeed reads recent triplets from the news index database and turns
// the ones describing enforcement-related deaths into candidates.
type TripletFeed struct {
	db     *sqlx.DB
	logger ectologger.Logger
	policy *policy.SourcePolicy
}

// NewTripletFeed creates a feed over the triplet index database.
func NewTripletFeed(db *sqlx.DB, logger ectologger.Logger, sourcePolicy *policy.SourcePolicy) *TripletFeed {
	return &TripletFeed{
		db:     db,
		logger: logger,
		policy: sourcePolicy,
	}
}

// Collect returns candidates from triplets published within windowDays.
func (f *TripletFeed) Collect(ctx context.Context, windowDays int, accessDate string) ([]models.RawRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.TripletFeed.Collect")
	defer span.End()

	log := f.logger.WithContext(ctx).WithField("window_days", windowDays)

	cutoff := time.Now().UTC().AddDate(0, 0, -windowDays)

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("story_id", "url", "source", "title", "who", "what", "target",
		"where_text", "published_at", "latitude", "longitude", "geocode_status")
	sb.From("triplets")
	sb.Where(sb.GreaterEqualThan("published_at", cutoff.Format(time.RFC3339)))
	sb.OrderBy("published_at", "story_id")

	query, args := sb.Build()
	var triplets []Triplet
	if err := f.db.SelectContext(ctx, &triplets, query, args...); err != nil {
		log.WithError(err).Error("Failed to query triplet index")
		return nil, fmt.Errorf("query triplets: %w", err)
	}

	records := make([]models.RawRecord, 0, len(triplets))
	for _, triplet := range triplets {
		record := f.toRecord(triplet, accessDate)
		if record != nil {
			records = append(records, record)
		}
	}
	log.WithFields(map[string]any{"triplets": len(triplets), "candidates": len(records)}).
		Info("Collected triplet candidates")
	return records, nil
}

// toRecord applies the feed gates and builds a candidate, or returns nil
// when the triplet does not describe a usable enforcement death.
func (f *TripletFeed) toRecord(triplet Triplet, accessDate string) models.RawRecord {
	title := deref(triplet.Title)
	who := deref(triplet.Who)
	what := deref(triplet.What)
	target := deref(triplet.Target)
	whereText := deref(triplet.WhereText)

	baseText := joinNonEmpty(title, who, what, target, whereText)
	if baseText == "" {
		return nil
	}
	if !isDeathLead(baseText) || !isICERelated(baseText) {
		return nil
	}

	publishedAt, ok := dates.Parse(deref(triplet.PublishedAt))
	if !ok || !tripletYears[publishedAt.Year()] {
		return nil
	}

	personName := ""
	if !normalizers.IsGenericActor(who) {
		personName = who
	}
	if personName == "" && target != "" && !normalizers.IsGenericActor(target) {
		personName = target
	}
	if personName == "" {
		return nil
	}

	source := f.buildSource(triplet, accessDate, baseText)
	if source == nil {
		return nil
	}

	city, county, state := parseLocation(whereText)
	confidence := scoreConfidence(baseText, personName)
	manner := inferManner(baseText)
	homicideStatus := models.Unknown
	if manner != "" {
		homicideStatus = "suspected"
	}

	record := models.RawRecord{
		"person_name":          personName,
		"aliases":              []any{},
		"date_of_death":        dates.ISODate(publishedAt),
		"date_precision":       models.PrecisionDay,
		"city":                 city,
		"county":               county,
		"state":                state,
		"facility_or_location": nilIfEmpty(whereText),
		"geocode_source":       optionalAny(triplet.GeocodeStatus),
		"death_context":        inferDeathContext(baseText),
		"custody_status":       inferCustodyStatus(baseText),
		"agency":               inferAgency(baseText),
		"contractor_involved":  models.Unknown,
		"manner_of_death":      nilIfEmpty(manner),
		"homicide_status":      homicideStatus,
		"summary_1_sentence":   nilIfEmpty(firstNonEmpty(title, what)),
		"confidence_score":     float64(confidence),
		"manual_review":        confidence < 70,
		"sources":              []any{source},
	}
	if triplet.Latitude != nil {
		record["lat"] = *triplet.Latitude
	}
	if triplet.Longitude != nil {
		record["lon"] = *triplet.Longitude
	}
	if isDeathLead(what) {
		record["cause_of_death_reported"] = what
	}

	f.enrichFromText(record, baseText)

	if whereText != "" {
		record["incident_location"] = whereText
	}
	return record
}

// enrichFromText pulls investigation and suspect details out of the story
// text when the phrasing is unambiguous.
func (f *TripletFeed) enrichFromText(record models.RawRecord, text string) {
	if status := extractInvestigationStatus(text); status != "" {
		record["investigation_status"] = status
	}
	if role, agency := extractSuspectRoleAndAgency(text); role != "" {
		record["suspect_role"] = role
		record["suspect_agency"] = agency
	}
	if identified := extractSuspectIdentified(text); identified != nil {
		record["suspect_identified"] = *identified
	}
	if status := extractSuspectStatus(text); status != "" {
		record["suspect_status"] = status
	}
}

func (f *TripletFeed) buildSource(triplet Triplet, accessDate, text string) map[string]any {
	url := deref(triplet.URL)
	if url == "" {
		url = deref(triplet.StoryID)
	}
	if url == "" {
		return nil
	}
	if policy.IsWikipedia(url) || !f.policy.IsAllowed(url) {
		return nil
	}
	snippet := deref(triplet.Title)
	if snippet == "" {
		snippet = text
	}
	snippet = optionalString(normalizers.TrimWords(&snippet, 25))
	return map[string]any{
		"url":              url,
		"publisher":        optionalAny(triplet.Source),
		"publish_date":     optionalAny(triplet.PublishedAt),
		"access_date":      accessDate,
		"source_type":      models.SourceTypeNews,
		"credibility_tier": models.Unknown,
		"snippet":          snippet,
		"claim_tags":       []any{},
	}
}

// parseLocation splits "City, State" style text into its parts.
func parseLocation(whereText string) (any, any, any) {
	parts := make([]string, 0, 3)
	for _, part := range strings.Split(whereText, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	var city, county, state any
	if len(parts) > 0 {
		city = parts[0]
	}
	if len(parts) > 1 {
		state = parts[1]
	}
	return city, county, state
}

func joinNonEmpty(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, " ")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func optionalString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func optionalAny(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nilIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
