// Package collapse finds records that describe the same death under
// different identifiers and folds them into a single survivor.
package collapse

import (
	"sort"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/dates"
	"github.com/Ramsey-B/laurel/pkg/merging"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
)

// Windows bound how far apart two records' dates may sit and still describe
// the same death. Street incidents are usually covered for days; detention
// reports can lag much longer.
const (
	StreetWindowDays    = 14
	DetentionWindowDays = 180
)

// Collapser deduplicates the record set after a merge pass.
type Collapser struct {
	logger ectologger.Logger
	merger *merging.Engine
}

// NewCollapser creates a collapser that reconciles duplicates with the given
// merge engine.
func NewCollapser(logger ectologger.Logger, merger *merging.Engine) *Collapser {
	return &Collapser{
		logger: logger,
		merger: merger,
	}
}

// Collapse mutates the records map in place, merging duplicate clusters into
// their highest-quality member. Returns the number of records removed.
func (c *Collapser) Collapse(records map[string]*models.DeathRecord) int {
	grouped := make(map[groupKey][]string)
	for id, record := range records {
		canonical := normalizers.CanonicalPersonName(optional(record.PersonName))
		if canonical == "" {
			continue
		}
		grouped[groupKey{canonical, record.Context()}] = append(grouped[groupKey{canonical, record.Context()}], id)
	}

	removed := 0
	for _, ids := range grouped {
		if len(ids) < 2 {
			continue
		}
		// map iteration order is random; sort for a stable outcome
		sort.Strings(ids)
		consumed := make(map[string]bool)
		for _, seedID := range ids {
			if consumed[seedID] {
				continue
			}
			if _, ok := records[seedID]; !ok {
				continue
			}
			cluster := []string{seedID}
			consumed[seedID] = true
			// Transitive closure: a record joins when it pairs with ANY
			// current member, so chained duplicates A-B, B-C land in one
			// cluster even when A-C alone would not pair. Re-scan until
			// no candidate links.
			for grew := true; grew; {
				grew = false
				for _, candidateID := range ids {
					if consumed[candidateID] {
						continue
					}
					candidate, exists := records[candidateID]
					if !exists {
						continue
					}
					for _, memberID := range cluster {
						if isDuplicatePair(records[memberID], candidate) {
							cluster = append(cluster, candidateID)
							consumed[candidateID] = true
							grew = true
							break
						}
					}
				}
			}
			if len(cluster) < 2 {
				continue
			}

			survivorID := selectSurvivor(cluster, records)
			merged := records[survivorID]
			for _, id := range cluster {
				if id == survivorID {
					continue
				}
				merged = c.merger.MergeDuplicate(merged, records[id])
			}
			merged.ID = survivorID
			records[survivorID] = merged
			for _, id := range cluster {
				if id == survivorID {
					continue
				}
				delete(records, id)
				removed++
			}
		}
	}
	return removed
}

type groupKey struct {
	canonical string
	context   string
}

// isDuplicatePair decides whether two same-name, same-context records
// describe one death.
func isDuplicatePair(first, second *models.DeathRecord) bool {
	firstURLs := first.SourceURLSet()
	secondURLs := second.SourceURLSet()
	if len(firstURLs) > 0 && len(secondURLs) > 0 && intersects(firstURLs, secondURLs) {
		return true
	}

	firstDate := optional(first.DateOfDeath)
	secondDate := optional(second.DateOfDeath)
	firstLocation := strings.ToLower(first.LocationKey())
	secondLocation := strings.ToLower(second.LocationKey())

	if firstDate != "" && firstDate == secondDate {
		if first.Context() == models.ContextDetention {
			return true
		}
		if firstLocation == models.Unknown || secondLocation == models.Unknown || firstLocation == secondLocation {
			return true
		}
	}

	if firstLocation != models.Unknown && secondLocation != models.Unknown && firstLocation == secondLocation {
		window := StreetWindowDays
		if first.Context() == models.ContextDetention {
			window = DetentionWindowDays
		}
		if dates.WithinDays(firstDate, secondDate, window) {
			return true
		}
	}

	return false
}

// selectSurvivor picks the cluster member with the best quality tuple:
// official-report sourcing, then a known location, then confidence.
func selectSurvivor(cluster []string, records map[string]*models.DeathRecord) string {
	best := cluster[0]
	bestScore := qualityScore(records[best])
	for _, id := range cluster[1:] {
		score := qualityScore(records[id])
		if scoreLess(bestScore, score) {
			best = id
			bestScore = score
		}
	}
	return best
}

type quality struct {
	hasOfficialReport int
	hasKnownLocation  int
	confidence        int
}

func qualityScore(record *models.DeathRecord) quality {
	score := quality{confidence: record.ConfidenceScore}
	if record.HasSourceType(models.SourceTypeOfficialReport) {
		score.hasOfficialReport = 1
	}
	if record.LocationKey() != models.Unknown {
		score.hasKnownLocation = 1
	}
	return score
}

func scoreLess(a, b quality) bool {
	if a.hasOfficialReport != b.hasOfficialReport {
		return a.hasOfficialReport < b.hasOfficialReport
	}
	if a.hasKnownLocation != b.hasKnownLocation {
		return a.hasKnownLocation < b.hasKnownLocation
	}
	return a.confidence < b.confidence
}

func intersects(a, b map[string]bool) bool {
	for url := range a {
		if b[url] {
			return true
		}
	}
	return false
}

func optional(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
