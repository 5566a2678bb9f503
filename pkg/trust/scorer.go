// Package trust enforces sourcing requirements on death records: domain
// filtering, corroboration minimums, and triangulation for street deaths
// reported only by news outlets.
package trust

import (
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
	"github.com/Ramsey-B/laurel/pkg/policy"
)

const (
	// singleSourceCap is the highest confidence a record can hold with
	// fewer than two surviving sources.
	singleSourceCap = 45
	// corroborationBoost rewards records citing both an official and a
	// secondary source.
	corroborationBoost = 5
	// triangulationBoost rewards street records corroborated by every
	// required wire outlet.
	triangulationBoost = 10
	// triangulationCap limits street records that cite news coverage but
	// miss a required outlet.
	triangulationCap = 45
)

// Scorer applies the source policy to records.
type Scorer struct {
	policy *policy.SourcePolicy
}

// NewScorer creates a scorer over the given domain policy.
func NewScorer(sourcePolicy *policy.SourcePolicy) *Scorer {
	return &Scorer{policy: sourcePolicy}
}

// AcceptsURL reports whether a citation URL may appear on a record at all.
func (s *Scorer) AcceptsURL(url string) bool {
	if url == "" {
		return false
	}
	if policy.IsWikipedia(url) {
		return false
	}
	return s.policy.IsAllowed(url)
}

// Apply runs every post-merge adjustment on the record in place and returns
// the field changes it made.
func (s *Scorer) Apply(record *models.DeathRecord) []models.ChangeLog {
	changes := s.ApplySourceRequirements(record)
	changes = append(changes, s.ApplyTriangulation(record)...)

	derived := s.DerivePrimaryReportURL(record)
	if !equalOptional(derived, record.PrimaryReportURL) {
		changes = append(changes, models.ChangeLog{
			Field:         "primary_report_url",
			PreviousValue: optionalValue(record.PrimaryReportURL),
			NewValue:      optionalValue(derived),
		})
		record.PrimaryReportURL = derived
	}
	return changes
}

// ApplySourceRequirements drops sources from disallowed domains, then flags
// under-sourced records and rewards corroborated ones.
func (s *Scorer) ApplySourceRequirements(record *models.DeathRecord) []models.ChangeLog {
	var changes []models.ChangeLog

	filtered := make([]models.Source, 0, len(record.Sources))
	for _, source := range record.Sources {
		if !s.AcceptsURL(source.URL) {
			continue
		}
		filtered = append(filtered, source)
	}
	if len(filtered) != len(record.Sources) {
		changes = append(changes, models.ChangeLog{
			Field:         "sources",
			PreviousValue: record.Sources,
			NewValue:      filtered,
		})
		record.Sources = filtered
	}

	official := 0
	secondary := 0
	for _, source := range record.Sources {
		if s.policy.IsOfficial(source.URL) {
			official++
		} else {
			secondary++
		}
	}

	total := official + secondary
	if total < 2 {
		if !record.ManualReview {
			changes = append(changes, models.ChangeLog{Field: "manual_review", PreviousValue: false, NewValue: true})
			record.ManualReview = true
		}
		if record.ConfidenceScore > singleSourceCap {
			changes = append(changes, models.ChangeLog{
				Field:         "confidence_score",
				PreviousValue: record.ConfidenceScore,
				NewValue:      singleSourceCap,
			})
			record.ConfidenceScore = singleSourceCap
		}
	} else if official > 0 && secondary > 0 {
		boosted := min(100, record.ConfidenceScore+corroborationBoost)
		if boosted != record.ConfidenceScore {
			changes = append(changes, models.ChangeLog{
				Field:         "confidence_score",
				PreviousValue: record.ConfidenceScore,
				NewValue:      boosted,
			})
			record.ConfidenceScore = boosted
		}
	}
	return changes
}

// ApplyTriangulation handles street deaths covered by news: without every
// required wire outlet the record is flagged and capped, with them it earns
// a boost.
func (s *Scorer) ApplyTriangulation(record *models.DeathRecord) []models.ChangeLog {
	var changes []models.ChangeLog
	if record.Context() != models.ContextStreet {
		return changes
	}
	if !record.HasSourceType(models.SourceTypeNews) {
		return changes
	}
	domains := s.SourceDomains(record)
	if len(domains) == 0 {
		return changes
	}

	if !s.policy.HasAllTriangulationDomains(domains) {
		if !record.ManualReview {
			changes = append(changes, models.ChangeLog{Field: "manual_review", PreviousValue: false, NewValue: true})
			record.ManualReview = true
		}
		if record.ConfidenceScore > triangulationCap {
			changes = append(changes, models.ChangeLog{
				Field:         "confidence_score",
				PreviousValue: record.ConfidenceScore,
				NewValue:      triangulationCap,
			})
			record.ConfidenceScore = triangulationCap
		}
		return changes
	}

	boosted := min(100, record.ConfidenceScore+triangulationBoost)
	if boosted != record.ConfidenceScore {
		changes = append(changes, models.ChangeLog{
			Field:         "confidence_score",
			PreviousValue: record.ConfidenceScore,
			NewValue:      boosted,
		})
		record.ConfidenceScore = boosted
	}
	return changes
}

// SourceDomains collects the host of every citation, falling back to the
// publisher field when the URL has no parseable host.
func (s *Scorer) SourceDomains(record *models.DeathRecord) map[string]bool {
	domains := make(map[string]bool)
	for _, source := range record.Sources {
		domain := policy.ExtractDomain(source.URL)
		if domain == "" && source.Publisher != nil {
			domain = policy.NormalizeDomain(*source.Publisher)
		}
		if domain != "" {
			domains[domain] = true
		}
	}
	return domains
}

// DerivePrimaryReportURL picks the best official link for a record: a
// detainee death report first, then an agency press release, then whatever
// allowed URL the record already carried.
func (s *Scorer) DerivePrimaryReportURL(record *models.DeathRecord) *string {
	if url := s.selectPrimary(record.Sources, models.SourceTypeOfficialReport, "ice_death_report"); url != nil {
		return url
	}
	if url := s.selectPrimary(record.Sources, models.SourceTypeOfficialRelease, "ice_release"); url != nil {
		return url
	}
	if record.PrimaryReportURL != nil && s.AcceptsURL(*record.PrimaryReportURL) {
		return record.PrimaryReportURL
	}
	return nil
}

func (s *Scorer) selectPrimary(sources []models.Source, sourceType, claimTag string) *string {
	for _, source := range sources {
		typed := source.SourceType != nil && *source.SourceType == sourceType
		if !typed && !source.HasClaimTag(claimTag) {
			continue
		}
		if s.AcceptsURL(source.URL) {
			return normalizers.CleanString(source.URL)
		}
	}
	return nil
}

// ShouldDrop reports whether a record is unfit for publication: a news or
// press-release sourced record whose name never resolved to a person.
func ShouldDrop(record *models.DeathRecord) bool {
	name := ""
	if record.PersonName != nil {
		name = *record.PersonName
	}
	if normalizers.IsLikelyPersonName(name) {
		return false
	}
	for _, source := range record.Sources {
		if source.SourceType == nil {
			continue
		}
		if *source.SourceType == models.SourceTypeNews || *source.SourceType == models.SourceTypeOfficialRelease {
			return true
		}
	}
	if record.Context() == models.ContextStreet && record.HasSourceType(models.SourceTypeNews) {
		return true
	}
	return false
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func optionalValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
