// Package merging folds candidate death records into existing ones and
// reconciles collapsed duplicates.
package merging

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/dates"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
	"github.com/Ramsey-B/laurel/pkg/trust"
)

// Placeholder sets per field. A placeholder never overwrites real data but
// real data always overwrites a placeholder.
var (
	unknownPlaceholder = map[string]bool{models.Unknown: true}
	contextPlaceholder = map[string]bool{models.DefaultContext: true}
)

// Engine merges incoming candidate records into the dataset's records.
type Engine struct {
	logger ectologger.Logger
	scorer *trust.Scorer
}

// NewEngine creates a merge engine.
func NewEngine(logger ectologger.Logger, scorer *trust.Scorer) *Engine {
	return &Engine{
		logger: logger,
		scorer: scorer,
	}
}

// MergeInto folds an incoming candidate into the current record in place and
// returns the change log. Sourcing requirements are re-applied after the
// merge since the source list may have grown.
func (e *Engine) MergeInto(current, incoming *models.DeathRecord) []models.ChangeLog {
	merger := NewFieldMerger()

	merger.UpdateOptional("person_name", &current.PersonName, incoming.PersonName)
	merger.MergeAliases(&current.Aliases, incoming.Aliases)
	merger.UpdateOptional("nationality", &current.Nationality, incoming.Nationality)
	merger.UpdateOptional("age", &current.Age, incoming.Age)
	merger.UpdateOptional("gender", &current.Gender, incoming.Gender)
	merger.UpdateOptional("date_of_death", &current.DateOfDeath, incoming.DateOfDeath)
	merger.UpdateString("date_precision", &current.DatePrecision, incoming.DatePrecision, nil)
	merger.UpdateOptional("city", &current.City, incoming.City)
	merger.UpdateOptional("county", &current.County, incoming.County)
	merger.UpdateOptional("state", &current.State, incoming.State)
	merger.UpdateOptional("initial_custody_location", &current.InitialCustodyLocation, incoming.InitialCustodyLocation)
	merger.UpdateOptional("death_location", &current.DeathLocation, incoming.DeathLocation)
	merger.UpdateOptional("facility_or_location", &current.FacilityOrLocation, incoming.FacilityOrLocation)
	merger.UpdateOptional("incident_date", &current.IncidentDate, incoming.IncidentDate)
	merger.UpdateOptional("incident_time", &current.IncidentTime, incoming.IncidentTime)
	merger.UpdateOptional("incident_location", &current.IncidentLocation, incoming.IncidentLocation)
	merger.UpdateOptional("facility_name", &current.FacilityName, incoming.FacilityName)
	merger.UpdateString("location_category", &current.LocationCategory, incoming.LocationCategory, unknownPlaceholder)
	merger.UpdateOptionalFloat("lat", &current.Lat, incoming.Lat)
	merger.UpdateOptionalFloat("lon", &current.Lon, incoming.Lon)
	merger.UpdateOptional("geocode_source", &current.GeocodeSource, incoming.GeocodeSource)
	merger.UpdateString("death_context", &current.DeathContext, incoming.DeathContext, contextPlaceholder)
	merger.UpdateString("custody_status", &current.CustodyStatus, incoming.CustodyStatus, unknownPlaceholder)
	merger.UpdateString("agency", &current.Agency, incoming.Agency, unknownPlaceholder)
	merger.UpdateString("contractor_involved", &current.ContractorInvolved, incoming.ContractorInvolved, unknownPlaceholder)
	merger.UpdateOptional("cause_of_death_reported", &current.CauseOfDeathReported, incoming.CauseOfDeathReported)
	merger.UpdateOptional("manner_of_death", &current.MannerOfDeath, incoming.MannerOfDeath)
	merger.UpdateString("homicide_status", &current.HomicideStatus, incoming.HomicideStatus, unknownPlaceholder)
	merger.UpdateOptional("investigation_status", &current.InvestigationStatus, incoming.InvestigationStatus)
	merger.UpdateOptionalBool("suspect_identified", &current.SuspectIdentified, incoming.SuspectIdentified)
	merger.UpdateOptional("suspect_name", &current.SuspectName, incoming.SuspectName)
	merger.UpdateOptional("suspect_role", &current.SuspectRole, incoming.SuspectRole)
	merger.UpdateString("suspect_agency", &current.SuspectAgency, incoming.SuspectAgency, unknownPlaceholder)
	merger.UpdateOptional("suspect_status", &current.SuspectStatus, incoming.SuspectStatus)
	merger.UpdateOptional("summary_1_sentence", &current.Summary, incoming.Summary)
	merger.UpdateOptional("primary_report_url", &current.PrimaryReportURL, incoming.PrimaryReportURL)

	merger.MergeConfidence(&current.ConfidenceScore, incoming.ConfidenceScore)
	merger.MergeManualReview(&current.ManualReview, incoming.ManualReview)
	merger.MergeSources(&current.Sources, incoming.Sources)

	changes := merger.Changes()
	changes = append(changes, e.scorer.Apply(current)...)
	return changes
}

// MergeDuplicate reconciles two records the collapser decided are the same
// death. The survivor's fields win except where it is missing data; dates
// prefer the earlier parseable value, names prefer the one that reads like a
// person.
func (e *Engine) MergeDuplicate(primary, duplicate *models.DeathRecord) *models.DeathRecord {
	merged := primary.Clone()

	merged.DateOfDeath = preferDateOfDeath(merged.DateOfDeath, duplicate.DateOfDeath)
	merged.PersonName = preferPersonName(merged.PersonName, duplicate.PersonName)

	fillOptional(&merged.Nationality, duplicate.Nationality)
	fillOptional(&merged.Age, duplicate.Age)
	fillOptional(&merged.Gender, duplicate.Gender)
	fillString(&merged.DatePrecision, duplicate.DatePrecision)
	fillOptional(&merged.City, duplicate.City)
	fillOptional(&merged.County, duplicate.County)
	fillOptional(&merged.State, duplicate.State)
	fillOptional(&merged.InitialCustodyLocation, duplicate.InitialCustodyLocation)
	fillOptional(&merged.DeathLocation, duplicate.DeathLocation)
	fillOptional(&merged.FacilityOrLocation, duplicate.FacilityOrLocation)
	fillOptional(&merged.IncidentDate, duplicate.IncidentDate)
	fillOptional(&merged.IncidentTime, duplicate.IncidentTime)
	fillOptional(&merged.IncidentLocation, duplicate.IncidentLocation)
	fillOptional(&merged.FacilityName, duplicate.FacilityName)
	fillString(&merged.LocationCategory, duplicate.LocationCategory)
	fillFloat(&merged.Lat, duplicate.Lat)
	fillFloat(&merged.Lon, duplicate.Lon)
	fillOptional(&merged.GeocodeSource, duplicate.GeocodeSource)
	fillString(&merged.DeathContext, duplicate.DeathContext)
	fillString(&merged.CustodyStatus, duplicate.CustodyStatus)
	fillString(&merged.Agency, duplicate.Agency)
	fillString(&merged.ContractorInvolved, duplicate.ContractorInvolved)
	fillOptional(&merged.CauseOfDeathReported, duplicate.CauseOfDeathReported)
	fillOptional(&merged.MannerOfDeath, duplicate.MannerOfDeath)
	fillString(&merged.HomicideStatus, duplicate.HomicideStatus)
	fillOptional(&merged.InvestigationStatus, duplicate.InvestigationStatus)
	fillBool(&merged.SuspectIdentified, duplicate.SuspectIdentified)
	fillOptional(&merged.SuspectName, duplicate.SuspectName)
	fillOptional(&merged.SuspectRole, duplicate.SuspectRole)
	fillString(&merged.SuspectAgency, duplicate.SuspectAgency)
	fillOptional(&merged.SuspectStatus, duplicate.SuspectStatus)
	fillOptional(&merged.Summary, duplicate.Summary)

	merged.ManualReview = merged.ManualReview || duplicate.ManualReview
	if duplicate.ConfidenceScore > merged.ConfidenceScore {
		merged.ConfidenceScore = duplicate.ConfidenceScore
	}

	aliasMerger := NewFieldMerger()
	aliasMerger.MergeAliases(&merged.Aliases, duplicate.Aliases)
	merged.Sources = DedupeSources(merged.Sources, duplicate.Sources)
	merged.PrimaryReportURL = e.scorer.DerivePrimaryReportURL(merged)
	return merged
}

// preferDateOfDeath keeps the earlier date when both parse, otherwise the
// more specific string.
func preferDateOfDeath(current, incoming *string) *string {
	if current == nil {
		return incoming
	}
	if incoming == nil {
		return current
	}
	currentDate, currentOK := dates.Parse(*current)
	incomingDate, incomingOK := dates.Parse(*incoming)
	if currentOK && incomingOK {
		if currentDate.After(incomingDate) {
			return incoming
		}
		return current
	}
	if len(*incoming) > len(*current) {
		return incoming
	}
	return current
}

func preferPersonName(current, incoming *string) *string {
	currentName := ""
	if current != nil {
		currentName = *current
	}
	incomingName := ""
	if incoming != nil {
		incomingName = *incoming
	}
	if !normalizers.IsLikelyPersonName(currentName) && normalizers.IsLikelyPersonName(incomingName) {
		return incoming
	}
	if current == nil && incoming != nil {
		return incoming
	}
	return current
}

func fillOptional(current **string, incoming *string) {
	if *current == nil && incoming != nil {
		*current = incoming
	}
}

func fillString(current *string, incoming string) {
	if *current == "" && incoming != "" {
		*current = incoming
	}
}

func fillFloat(current **float64, incoming *float64) {
	if *current == nil && incoming != nil {
		*current = incoming
	}
}

func fillBool(current **bool, incoming *bool) {
	if *current == nil && incoming != nil {
		*current = incoming
	}
}
