// Package staging turns loosely typed candidate records from the feeds into
// fully normalized death records ready for matching and merging.
package staging

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/dates"
	"github.com/Ramsey-B/laurel/pkg/fingerprint"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
	"github.com/Ramsey-B/laurel/pkg/trust"
)

// newsStreetCap limits street records sourced from news whose name never
// resolved to a person.
const newsStreetCap = 35

// Normalizer cleans raw candidate records into canonical form.
type Normalizer struct {
	logger ectologger.Logger
	scorer *trust.Scorer
}

// NewNormalizer creates a normalizer backed by the given scorer.
func NewNormalizer(logger ectologger.Logger, scorer *trust.Scorer) *Normalizer {
	return &Normalizer{
		logger: logger,
		scorer: scorer,
	}
}

// Normalize cleans every field, derives the dependent ones, assigns the
// record's identity, and applies sourcing requirements. The same input
// always produces the same output.
func (n *Normalizer) Normalize(raw models.RawRecord, accessDate string) *models.DeathRecord {
	record := &models.DeathRecord{
		PersonName:             cleanField(raw, "person_name"),
		Aliases:                normalizers.NormalizeListAny(raw["aliases"]),
		Nationality:            cleanField(raw, "nationality"),
		Age:                    cleanField(raw, "age"),
		Gender:                 cleanField(raw, "gender"),
		DateOfDeath:            cleanField(raw, "date_of_death"),
		City:                   normalizers.SanitizeCity(cleanField(raw, "city")),
		County:                 cleanField(raw, "county"),
		State:                  normalizers.SanitizeState(cleanField(raw, "state")),
		InitialCustodyLocation: normalizers.SanitizeFacilityOrLocation(cleanField(raw, "initial_custody_location")),
		DeathLocation:          normalizers.SanitizeFacilityOrLocation(cleanField(raw, "death_location")),
		FacilityOrLocation:     normalizers.SanitizeFacilityOrLocation(cleanField(raw, "facility_or_location")),
		IncidentDate:           cleanField(raw, "incident_date"),
		IncidentTime:           cleanField(raw, "incident_time"),
		IncidentLocation:       cleanField(raw, "incident_location"),
		FacilityName:           cleanField(raw, "facility_name"),
		Lat:                    floatField(raw, "lat"),
		Lon:                    floatField(raw, "lon"),
		GeocodeSource:          cleanField(raw, "geocode_source"),
		CauseOfDeathReported:   cleanField(raw, "cause_of_death_reported"),
		MannerOfDeath:          cleanField(raw, "manner_of_death"),
		InvestigationStatus:    cleanField(raw, "investigation_status"),
		SuspectIdentified:      normalizers.NormalizeOptionalBool(raw["suspect_identified"]),
		SuspectName:            cleanField(raw, "suspect_name"),
		SuspectRole:            cleanField(raw, "suspect_role"),
		SuspectStatus:          cleanField(raw, "suspect_status"),
		Summary:                cleanField(raw, "summary_1_sentence"),
		ManualReview:           boolField(raw, "manual_review"),
		ConfidenceScore:        confidenceField(raw),
		Sources:                n.normalizeSources(raw["sources"], accessDate),
	}

	if id := cleanField(raw, "id"); id != nil {
		record.ID = *id
	}
	record.DatePrecision = stringOr(cleanField(raw, "date_precision"), "")
	record.DeathContext = enumOr(cleanField(raw, "death_context"), models.AllowedContexts, models.DefaultContext)
	record.CustodyStatus = enumOr(cleanField(raw, "custody_status"), models.AllowedCustody, models.Unknown)
	record.Agency = enumOr(cleanField(raw, "agency"), models.AllowedAgencies, models.Unknown)
	record.ContractorInvolved = stringOr(cleanField(raw, "contractor_involved"), models.Unknown)
	record.HomicideStatus = enumOr(cleanField(raw, "homicide_status"), models.AllowedHomicideStatuses, models.Unknown)
	record.SuspectAgency = enumOr(cleanField(raw, "suspect_agency"), models.AllowedAgencies, models.Unknown)
	record.LocationCategory = enumOr(cleanField(raw, "location_category"), models.AllowedLocationCategories, models.Unknown)

	if record.FacilityName == nil {
		record.FacilityName = deriveFacilityName(record)
	}
	if record.IncidentLocation == nil && record.FacilityOrLocation != nil {
		record.IncidentLocation = record.FacilityOrLocation
	}
	if record.LocationCategory == models.Unknown {
		record.LocationCategory = deriveLocationCategory(record)
	}

	n.demoteUnnamedNewsStreet(record)

	if record.SuspectIdentified == nil && (record.SuspectName != nil || record.SuspectRole != nil) {
		identified := true
		record.SuspectIdentified = &identified
	}

	if record.DatePrecision == "" {
		record.DatePrecision = dates.Precision(stringOr(record.DateOfDeath, ""))
	}

	if record.ConfidenceScore < 0 {
		record.ConfidenceScore = 0
	}
	if record.ConfidenceScore > 100 {
		record.ConfidenceScore = 100
	}

	if record.ID == "" {
		record.ID = fingerprint.ID(fingerprint.RecordIdentity{
			PersonName:  stringOr(record.PersonName, ""),
			DateOfDeath: stringOr(record.DateOfDeath, ""),
			LocationKey: record.LocationKey(),
			Context:     record.Context(),
		})
	}

	n.scorer.ApplySourceRequirements(record)
	n.scorer.ApplyTriangulation(record)
	record.PrimaryReportURL = n.scorer.DerivePrimaryReportURL(record)

	return record
}

// normalizeSources cleans citation entries, defaulting the access date and
// dropping anything from a disallowed domain.
func (n *Normalizer) normalizeSources(value any, accessDate string) []models.Source {
	items, ok := value.([]any)
	if !ok {
		if typed, isTyped := value.([]models.Source); isTyped {
			return n.normalizeTypedSources(typed, accessDate)
		}
		return []models.Source{}
	}
	sources := make([]models.Source, 0, len(items))
	for _, item := range items {
		entry, isMap := item.(map[string]any)
		if !isMap {
			continue
		}
		url := normalizers.CleanAny(entry["url"])
		if url == nil || !n.scorer.AcceptsURL(*url) {
			continue
		}
		source := models.Source{
			URL:             *url,
			Publisher:       normalizers.CleanAny(entry["publisher"]),
			PublishDate:     normalizers.CleanAny(entry["publish_date"]),
			AccessDate:      normalizers.CleanAny(entry["access_date"]),
			SourceType:      normalizers.CleanAny(entry["source_type"]),
			CredibilityTier: normalizers.CleanAny(entry["credibility_tier"]),
			Snippet:         normalizers.TrimWords(normalizers.CleanAny(entry["snippet"]), 25),
			ClaimTags:       normalizers.NormalizeListAny(entry["claim_tags"]),
		}
		if source.AccessDate == nil {
			source.AccessDate = normalizers.CleanString(accessDate)
		}
		sources = append(sources, source)
	}
	return sources
}

func (n *Normalizer) normalizeTypedSources(items []models.Source, accessDate string) []models.Source {
	sources := make([]models.Source, 0, len(items))
	for _, item := range items {
		if !n.scorer.AcceptsURL(item.URL) {
			continue
		}
		source := item.Clone()
		source.Snippet = normalizers.TrimWords(source.Snippet, 25)
		if source.AccessDate == nil {
			source.AccessDate = normalizers.CleanString(accessDate)
		}
		if source.ClaimTags == nil {
			source.ClaimTags = []string{}
		}
		sources = append(sources, source)
	}
	return sources
}

// demoteUnnamedNewsStreet strips the name from street records sourced from
// news when it does not read like a person, flagging them for review.
func (n *Normalizer) demoteUnnamedNewsStreet(record *models.DeathRecord) {
	if record.Context() != models.ContextStreet {
		return
	}
	if !record.HasSourceType(models.SourceTypeNews) {
		return
	}
	if normalizers.IsLikelyPersonName(stringOr(record.PersonName, "")) {
		return
	}
	record.PersonName = nil
	record.ManualReview = true
	if record.ConfidenceScore > newsStreetCap {
		record.ConfidenceScore = newsStreetCap
	}
}

// deriveFacilityName promotes facility_or_location to a facility name when
// the death happened in custody or the text reads like a facility.
func deriveFacilityName(record *models.DeathRecord) *string {
	if record.FacilityOrLocation == nil {
		return nil
	}
	if record.DeathContext == models.ContextDetention {
		return record.FacilityOrLocation
	}
	if normalizers.ContainsAnyKeyword(*record.FacilityOrLocation, normalizers.DetentionKeywords) {
		return record.FacilityOrLocation
	}
	if normalizers.ContainsAnyKeyword(*record.FacilityOrLocation, []string{"jail", "prison", "detention", "processing center"}) {
		return record.FacilityOrLocation
	}
	return nil
}

func deriveLocationCategory(record *models.DeathRecord) string {
	if record.FacilityName != nil {
		return models.LocationCategoryFacility
	}
	if record.DeathContext == models.ContextDetention {
		return models.LocationCategoryFacility
	}
	if record.FacilityOrLocation != nil || record.City != nil || record.County != nil || record.State != nil {
		return models.LocationCategoryStreet
	}
	return models.Unknown
}

func cleanField(raw models.RawRecord, key string) *string {
	return normalizers.CleanAny(raw[key])
}

func floatField(raw models.RawRecord, key string) *float64 {
	if value, ok := raw[key].(float64); ok {
		return &value
	}
	return nil
}

func boolField(raw models.RawRecord, key string) bool {
	value, ok := raw[key].(bool)
	return ok && value
}

func confidenceField(raw models.RawRecord) int {
	switch value := raw["confidence_score"].(type) {
	case float64:
		return int(value)
	case int:
		return value
	default:
		return 0
	}
}

func stringOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}

func enumOr(value *string, allowed map[string]bool, fallback string) string {
	if value != nil && allowed[*value] {
		return *value
	}
	return fallback
}
