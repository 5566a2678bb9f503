// Package models defines the canonical death record and its supporting types
package models

// Death context values
const (
	ContextDetention = "detention"
	ContextStreet    = "street"

	// DefaultContext is the sentinel used when no context can be determined.
	DefaultContext = ContextStreet
)

// Enum defaults
const (
	Unknown = "unknown"
)

// Credibility tiers
const (
	TierHigh = "high"
)

// Source types
const (
	SourceTypeOfficialReport  = "official_report"
	SourceTypeOfficialRelease = "official_release"
	SourceTypeNews            = "news"
)

// Location categories
const (
	LocationCategoryFacility = "facility"
	LocationCategoryStreet   = "street"
)

// Date precision values
const (
	PrecisionDay   = "day"
	PrecisionMonth = "month"
	PrecisionYear  = "year"
)

// AllowedContexts is the set of valid death_context values
var AllowedContexts = map[string]bool{
	ContextDetention: true,
	ContextStreet:    true,
}

// AllowedCustody is the set of valid custody_status values
var AllowedCustody = map[string]bool{
	"ICE detention": true,
	"ICE transport": true,
	"CBP encounter": true,
	Unknown:         true,
}

// AllowedAgencies is the set of valid agency values
var AllowedAgencies = map[string]bool{
	"ICE":   true,
	"CBP":   true,
	"HSI":   true,
	"DHS":   true,
	Unknown: true,
}

// AllowedHomicideStatuses is the set of valid homicide_status values
var AllowedHomicideStatuses = map[string]bool{
	"ruled_homicide":      true,
	"suspected":           true,
	"not_suspected":       true,
	"under_investigation": true,
	Unknown:               true,
}

// AllowedLocationCategories is the set of valid location_category values
var AllowedLocationCategories = map[string]bool{
	LocationCategoryFacility: true,
	LocationCategoryStreet:   true,
	Unknown:                  true,
}

// AllowedPrecisions is the set of valid date_precision values
var AllowedPrecisions = map[string]bool{
	PrecisionDay:   true,
	PrecisionMonth: true,
	PrecisionYear:  true,
	Unknown:        true,
}

// RawRecord is the loosely-typed candidate payload handed over by upstream
// collectors. Normalization never rejects one of these; it only degrades
// unusable fields to their defaults.
type RawRecord map[string]any

// DeathRecord is the canonical entity persisted between runs. Struct field
// order fixes the JSON key order of the published dataset.
type DeathRecord struct {
	ID                     string   `json:"id"`
	PersonName             *string  `json:"person_name"`
	Aliases                []string `json:"aliases"`
	Nationality            *string  `json:"nationality"`
	Age                    *string  `json:"age"`
	Gender                 *string  `json:"gender"`
	DateOfDeath            *string  `json:"date_of_death"`
	DatePrecision          string   `json:"date_precision"`
	City                   *string  `json:"city"`
	County                 *string  `json:"county"`
	State                  *string  `json:"state"`
	InitialCustodyLocation *string  `json:"initial_custody_location"`
	DeathLocation          *string  `json:"death_location"`
	FacilityOrLocation     *string  `json:"facility_or_location"`
	IncidentDate           *string  `json:"incident_date"`
	IncidentTime           *string  `json:"incident_time"`
	IncidentLocation       *string  `json:"incident_location"`
	FacilityName           *string  `json:"facility_name"`
	LocationCategory       string   `json:"location_category"`
	Lat                    *float64 `json:"lat"`
	Lon                    *float64 `json:"lon"`
	GeocodeSource          *string  `json:"geocode_source"`
	DeathContext           string   `json:"death_context"`
	CustodyStatus          string   `json:"custody_status"`
	Agency                 string   `json:"agency"`
	ContractorInvolved     string   `json:"contractor_involved"`
	CauseOfDeathReported   *string  `json:"cause_of_death_reported"`
	MannerOfDeath          *string  `json:"manner_of_death"`
	HomicideStatus         string   `json:"homicide_status"`
	InvestigationStatus    *string  `json:"investigation_status"`
	SuspectIdentified      *bool    `json:"suspect_identified"`
	SuspectName            *string  `json:"suspect_name"`
	SuspectRole            *string  `json:"suspect_role"`
	SuspectAgency          string   `json:"suspect_agency"`
	SuspectStatus          *string  `json:"suspect_status"`
	Summary                *string  `json:"summary_1_sentence"`
	ConfidenceScore        int      `json:"confidence_score"`
	ManualReview           bool     `json:"manual_review"`
	PrimaryReportURL       *string  `json:"primary_report_url"`
	Sources                []Source `json:"sources"`
}

// Context returns the record's death context, falling back to the default
// sentinel when unset.
func (r *DeathRecord) Context() string {
	if r.DeathContext == "" {
		return DefaultContext
	}
	return r.DeathContext
}

// LocationKey returns the first known location field, or "unknown".
// Used both for identity derivation and duplicate matching.
func (r *DeathRecord) LocationKey() string {
	for _, value := range []*string{r.FacilityOrLocation, r.City, r.County, r.State} {
		if value != nil && *value != "" {
			return *value
		}
	}
	return Unknown
}

// SourceURLSet returns the distinct URLs the record cites, including the
// primary report URL.
func (r *DeathRecord) SourceURLSet() map[string]bool {
	urls := make(map[string]bool)
	for _, source := range r.Sources {
		if source.URL != "" {
			urls[source.URL] = true
		}
	}
	if r.PrimaryReportURL != nil && *r.PrimaryReportURL != "" {
		urls[*r.PrimaryReportURL] = true
	}
	return urls
}

// HasSourceType reports whether any source carries the given source_type.
func (r *DeathRecord) HasSourceType(sourceType string) bool {
	for _, source := range r.Sources {
		if source.SourceType != nil && *source.SourceType == sourceType {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record.
func (r *DeathRecord) Clone() *DeathRecord {
	copied := *r
	copied.Aliases = append([]string(nil), r.Aliases...)
	copied.Sources = make([]Source, len(r.Sources))
	for i, source := range r.Sources {
		copied.Sources[i] = source.Clone()
	}
	copied.PersonName = cloneString(r.PersonName)
	copied.Nationality = cloneString(r.Nationality)
	copied.Age = cloneString(r.Age)
	copied.Gender = cloneString(r.Gender)
	copied.DateOfDeath = cloneString(r.DateOfDeath)
	copied.City = cloneString(r.City)
	copied.County = cloneString(r.County)
	copied.State = cloneString(r.State)
	copied.InitialCustodyLocation = cloneString(r.InitialCustodyLocation)
	copied.DeathLocation = cloneString(r.DeathLocation)
	copied.FacilityOrLocation = cloneString(r.FacilityOrLocation)
	copied.IncidentDate = cloneString(r.IncidentDate)
	copied.IncidentTime = cloneString(r.IncidentTime)
	copied.IncidentLocation = cloneString(r.IncidentLocation)
	copied.FacilityName = cloneString(r.FacilityName)
	copied.Lat = cloneFloat(r.Lat)
	copied.Lon = cloneFloat(r.Lon)
	copied.GeocodeSource = cloneString(r.GeocodeSource)
	copied.CauseOfDeathReported = cloneString(r.CauseOfDeathReported)
	copied.MannerOfDeath = cloneString(r.MannerOfDeath)
	copied.InvestigationStatus = cloneString(r.InvestigationStatus)
	copied.SuspectIdentified = cloneBool(r.SuspectIdentified)
	copied.SuspectName = cloneString(r.SuspectName)
	copied.SuspectRole = cloneString(r.SuspectRole)
	copied.SuspectStatus = cloneString(r.SuspectStatus)
	copied.Summary = cloneString(r.Summary)
	copied.PrimaryReportURL = cloneString(r.PrimaryReportURL)
	return &copied
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

// StringPtr returns a pointer to s. Convenience for building records.
func StringPtr(s string) *string {
	return &s
}
