package matching

import (
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/laurel/pkg/models"
)

func newTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func record(id, name, date, city, context string) *models.DeathRecord {
	rec := &models.DeathRecord{
		ID:           id,
		DeathContext: context,
		Aliases:      []string{},
		Sources:      []models.Source{},
	}
	if name != "" {
		rec.PersonName = &name
	}
	if date != "" {
		rec.DateOfDeath = &date
	}
	if city != "" {
		rec.City = &city
	}
	return rec
}

func withSource(rec *models.DeathRecord, url string) *models.DeathRecord {
	rec.Sources = append(rec.Sources, models.Source{URL: url, ClaimTags: []string{}})
	return rec
}

func newEngineWith(records ...*models.DeathRecord) *Engine {
	byID := make(map[string]*models.DeathRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	return NewEngine(newTestLogger(), byID, DefaultConfig())
}

func TestResolve_ExactNameAndDate(t *testing.T) {
	engine := newEngineWith(record("a", "Juan Perez", "2025-06-15", "Phoenix", "street"))

	candidate := record("x", "juan perez", "2025-06-15", "", "street")
	assert.Equal(t, "a", engine.Resolve(candidate))
}

func TestResolve_MiddleNameVariantWithLocation(t *testing.T) {
	engine := newEngineWith(record("a", "Juan Perez", "2025-06-15", "Phoenix", "street"))

	candidate := record("x", "Juan Pablo Perez", "2025-06-15", "Phoenix", "street")
	assert.Equal(t, "a", engine.Resolve(candidate))
}

func TestResolve_MiddleNameVariantNeedsKnownLocation(t *testing.T) {
	engine := newEngineWith(record("a", "Juan Perez", "2025-06-15", "Phoenix", "street"))

	// no location and a different date keeps the fuzzy key from matching,
	// but the canonical-name pass still allows a nearby date
	candidate := record("x", "Juan Pablo Perez", "2025-06-25", "", "street")
	assert.Equal(t, "", engine.Resolve(candidate))
}

func TestResolve_CanonicalNameWithinWindow(t *testing.T) {
	engine := newEngineWith(record("a", "José García", "2025-06-15", "Phoenix", "street"))

	candidate := record("x", "Jose Garcia", "2025-06-18", "Phoenix", "street")
	assert.Equal(t, "a", engine.Resolve(candidate))
}

func TestResolve_CanonicalNameOutsideWindow(t *testing.T) {
	engine := newEngineWith(record("a", "José García", "2025-06-15", "Phoenix", "street"))

	candidate := record("x", "Jose Garcia", "2025-06-30", "Phoenix", "street")
	assert.Equal(t, "", engine.Resolve(candidate))
}

func TestResolve_ContextMustAgree(t *testing.T) {
	engine := newEngineWith(record("a", "José García", "2025-06-15", "Phoenix", "street"))

	candidate := record("x", "Jose Garcia", "2025-06-15", "Phoenix", "detention")
	assert.Equal(t, "", engine.Resolve(candidate))
}

func TestResolve_LocationConflictBlocksMatch(t *testing.T) {
	engine := newEngineWith(record("a", "José García", "2025-06-15", "Phoenix", "street"))

	candidate := record("x", "Jose Garcia", "2025-06-15", "Tucson", "street")
	assert.Equal(t, "", engine.Resolve(candidate))
}

func TestResolve_UnknownLocationIsCompatible(t *testing.T) {
	engine := newEngineWith(record("a", "José García", "2025-06-15", "Phoenix", "street"))

	candidate := record("x", "Jose Garcia", "2025-06-16", "", "street")
	assert.Equal(t, "a", engine.Resolve(candidate))
}

func TestResolve_SharedSourceURL(t *testing.T) {
	existing := withSource(record("a", "Juan Perez", "", "", "street"), "https://reuters.com/article")
	engine := newEngineWith(existing)

	// no dates at all, but the same article about the same canonical name
	candidate := withSource(record("x", "juan perez", "", "", "street"), "https://reuters.com/article")
	assert.Equal(t, "a", engine.Resolve(candidate))
}

func TestResolve_SharedSourceRequiresSameName(t *testing.T) {
	existing := withSource(record("a", "Juan Perez", "", "", "street"), "https://reuters.com/article")
	engine := newEngineWith(existing)

	candidate := withSource(record("x", "Maria Lopez", "", "", "street"), "https://reuters.com/article")
	assert.Equal(t, "", engine.Resolve(candidate))
}

func TestResolve_NoMatchForNewDeath(t *testing.T) {
	engine := newEngineWith(record("a", "Juan Perez", "2025-06-15", "Phoenix", "street"))

	candidate := record("x", "Maria Lopez", "2025-06-15", "Phoenix", "street")
	assert.Equal(t, "", engine.Resolve(candidate))
}

func TestIndex_NewRecordsBecomeResolvable(t *testing.T) {
	engine := newEngineWith()
	rec := record("a", "Juan Perez", "2025-06-15", "Phoenix", "street")
	engine.Index("a", rec)

	candidate := record("x", "Juan Perez", "2025-06-15", "", "street")
	assert.Equal(t, "a", engine.Resolve(candidate))
}
