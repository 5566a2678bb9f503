// Package matching resolves incoming candidate records against the existing
// dataset. Strategies run in priority order; the first hit wins.
package matching

import (
	"sort"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/dates"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
)

// Engine indexes the dataset's records and answers identity lookups.
type Engine struct {
	logger ectologger.Logger
	config EngineConfig

	// Lookup indexes. nameDate and nameDateLocation map to a single id;
	// the rest fan out to candidate lists checked in insertion order.
	nameDate         map[string]string
	nameDateLocation map[string]string
	canonicalName    map[string][]string
	mergeName        map[string][]string
	sourceURL        map[string][]string

	records map[string]*models.DeathRecord
}

// EngineConfig contains configuration for the match engine.
type EngineConfig struct {
	// NameVariantWindowDays bounds how far apart two reports of the same
	// person's death may be dated and still match.
	NameVariantWindowDays int
}

// DefaultConfig returns default engine configuration.
func DefaultConfig() EngineConfig {
	return EngineConfig{
		NameVariantWindowDays: 7,
	}
}

// NewEngine creates a match engine over the given records. The records map
// is shared with the caller; use Index and Reindex to keep lookups current
// as records change.
func NewEngine(logger ectologger.Logger, records map[string]*models.DeathRecord, config EngineConfig) *Engine {
	engine := &Engine{
		logger:           logger,
		config:           config,
		nameDate:         make(map[string]string),
		nameDateLocation: make(map[string]string),
		canonicalName:    make(map[string][]string),
		mergeName:        make(map[string][]string),
		sourceURL:        make(map[string][]string),
		records:          records,
	}
	// index in sorted id order so candidate lists are deterministic
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		engine.indexRecord(id, records[id])
	}
	return engine
}

// Resolve returns the id of the existing record the candidate describes, or
// "" when it is a new death.
func (e *Engine) Resolve(candidate *models.DeathRecord) string {
	name := optional(candidate.PersonName)
	dateValue := optional(candidate.DateOfDeath)
	locationKey := candidate.LocationKey()
	canonical := normalizers.CanonicalPersonName(name)

	if name != "" && dateValue != "" {
		if id, ok := e.nameDate[nameDateKey(name, dateValue)]; ok {
			return id
		}
		mergeKey := normalizers.NameMergeKey(name)
		if mergeKey != "" && locationKey != models.Unknown {
			if id, ok := e.nameDateLocation[nameDateLocationKey(mergeKey, dateValue, locationKey)]; ok {
				return id
			}
		}
	}

	if canonical != "" {
		if id := e.matchByName(e.canonicalName[canonical], candidate, dateValue, locationKey); id != "" {
			return id
		}
	}

	if name != "" {
		if mergeKey := normalizers.NameMergeKey(name); mergeKey != "" {
			if id := e.matchByName(e.mergeName[mergeKey], candidate, dateValue, locationKey); id != "" {
				return id
			}
		}
	}

	if canonical != "" {
		if id := e.matchBySharedSource(candidate, canonical); id != "" {
			return id
		}
	}

	return ""
}

// Index registers a newly inserted record.
func (e *Engine) Index(id string, record *models.DeathRecord) {
	e.indexRecord(id, record)
}

// Reindex refreshes the fan-out indexes for a record whose fields changed
// during a merge. The single-value indexes are first-write so they keep
// their original owner.
func (e *Engine) Reindex(id string, record *models.DeathRecord) {
	name := optional(record.PersonName)
	if canonical := normalizers.CanonicalPersonName(name); canonical != "" {
		e.appendUnique(e.canonicalName, canonical, id)
	}
	if mergeKey := normalizers.NameMergeKey(name); mergeKey != "" {
		e.appendUnique(e.mergeName, mergeKey, id)
	}
	for url := range record.SourceURLSet() {
		e.appendUnique(e.sourceURL, url, id)
	}
}

// matchByName checks candidates sharing a name key for compatible context,
// location, and date.
func (e *Engine) matchByName(candidateIDs []string, candidate *models.DeathRecord, dateValue, locationKey string) string {
	context := candidate.Context()
	for _, candidateID := range candidateIDs {
		existing, ok := e.records[candidateID]
		if !ok {
			continue
		}
		if context != "" && existing.Context() != context {
			continue
		}
		existingLocation := existing.LocationKey()
		if locationKey != models.Unknown && existingLocation != models.Unknown &&
			!strings.EqualFold(existingLocation, locationKey) {
			continue
		}
		if !dates.WithinDays(optional(existing.DateOfDeath), dateValue, e.config.NameVariantWindowDays) {
			continue
		}
		return candidateID
	}
	return ""
}

// matchBySharedSource matches candidates that cite the same URL as an
// existing record with the same canonical name and context.
func (e *Engine) matchBySharedSource(candidate *models.DeathRecord, canonical string) string {
	urls := candidate.SourceURLSet()
	if len(urls) == 0 {
		return ""
	}
	context := candidate.Context()
	seen := make(map[string]bool)
	for url := range urls {
		for _, candidateID := range e.sourceURL[url] {
			if seen[candidateID] {
				continue
			}
			seen[candidateID] = true
			existing, ok := e.records[candidateID]
			if !ok {
				continue
			}
			if normalizers.CanonicalPersonName(optional(existing.PersonName)) != canonical {
				continue
			}
			if context != "" && existing.Context() != context {
				continue
			}
			return candidateID
		}
	}
	return ""
}

func (e *Engine) indexRecord(id string, record *models.DeathRecord) {
	name := optional(record.PersonName)
	dateValue := optional(record.DateOfDeath)
	if name != "" && dateValue != "" {
		key := nameDateKey(name, dateValue)
		if _, exists := e.nameDate[key]; !exists {
			e.nameDate[key] = id
		}
		mergeKey := normalizers.NameMergeKey(name)
		locationKey := record.LocationKey()
		if mergeKey != "" && locationKey != models.Unknown {
			fuzzyKey := nameDateLocationKey(mergeKey, dateValue, locationKey)
			if _, exists := e.nameDateLocation[fuzzyKey]; !exists {
				e.nameDateLocation[fuzzyKey] = id
			}
		}
		if mergeKey != "" {
			e.appendUnique(e.mergeName, mergeKey, id)
		}
		if canonical := normalizers.CanonicalPersonName(name); canonical != "" {
			e.appendUnique(e.canonicalName, canonical, id)
		}
	}
	// URL entries go in for every record; matchBySharedSource still
	// requires a canonical-name agreement before a URL hit counts.
	for url := range record.SourceURLSet() {
		e.appendUnique(e.sourceURL, url, id)
	}
}

func (e *Engine) appendUnique(index map[string][]string, key, id string) {
	for _, existing := range index[key] {
		if existing == id {
			return
		}
	}
	index[key] = append(index[key], id)
}

func nameDateKey(name, dateValue string) string {
	return strings.ToLower(name) + "|" + dateValue
}

func nameDateLocationKey(mergeKey, dateValue, locationKey string) string {
	return mergeKey + "|" + dateValue + "|" + strings.ToLower(locationKey)
}

func optional(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
