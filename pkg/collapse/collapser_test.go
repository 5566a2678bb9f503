package collapse

import (
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/merging"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/policy"
	"github.com/Ramsey-B/laurel/pkg/trust"
)

func newTestCollapser() *Collapser {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewCollapser(logger, merging.NewEngine(logger, trust.NewScorer(policy.Default())))
}

func detentionRecord(id, name, date, facility string, confidence int) *models.DeathRecord {
	rec := &models.DeathRecord{
		ID:              id,
		PersonName:      models.StringPtr(name),
		DeathContext:    models.ContextDetention,
		ConfidenceScore: confidence,
		Aliases:         []string{},
		Sources:         []models.Source{},
	}
	if date != "" {
		rec.DateOfDeath = models.StringPtr(date)
	}
	if facility != "" {
		rec.FacilityOrLocation = models.StringPtr(facility)
	}
	return rec
}

func streetRecord(id, name, date, city string, confidence int) *models.DeathRecord {
	rec := detentionRecord(id, name, date, "", confidence)
	rec.DeathContext = models.ContextStreet
	if city != "" {
		rec.City = models.StringPtr(city)
	}
	return rec
}

func asMap(records ...*models.DeathRecord) map[string]*models.DeathRecord {
	byID := make(map[string]*models.DeathRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	return byID
}

func TestCollapse_DetentionSameDate(t *testing.T) {
	collapser := newTestCollapser()
	records := asMap(
		detentionRecord("a", "Juan Perez", "2025-06-15", "Eloy Detention Center", 90),
		detentionRecord("b", "Juan Perez", "2025-06-15", "", 50),
	)

	removed := collapser.Collapse(records)
	assert.Equal(t, 1, removed)
	require.Len(t, records, 1)

	survivor, ok := records["a"]
	require.True(t, ok, "record with a known location survives")
	assert.Equal(t, "a", survivor.ID)
	assert.Equal(t, 90, survivor.ConfidenceScore)
}

func TestCollapse_StreetFollowupWithinWindow(t *testing.T) {
	collapser := newTestCollapser()
	records := asMap(
		streetRecord("a", "Juan Perez", "2025-06-15", "Phoenix", 60),
		streetRecord("b", "Juan Perez", "2025-06-25", "Phoenix", 50),
	)

	removed := collapser.Collapse(records)
	assert.Equal(t, 1, removed)
	survivor := records["a"]
	require.NotNil(t, survivor)
	// duplicate merge prefers the earlier date
	assert.Equal(t, "2025-06-15", *survivor.DateOfDeath)
}

func TestCollapse_ChainedDuplicatesCollapseTogether(t *testing.T) {
	collapser := newTestCollapser()
	// a-b (9 days) and b-c (10 days) pair inside the street window, a-c
	// (19 days) does not; the chain must still collapse to one survivor.
	records := asMap(
		streetRecord("a", "Juan Perez", "2025-06-01", "Phoenix", 60),
		streetRecord("b", "Juan Perez", "2025-06-10", "Phoenix", 50),
		streetRecord("c", "Juan Perez", "2025-06-20", "Phoenix", 40),
	)

	removed := collapser.Collapse(records)
	assert.Equal(t, 2, removed)
	require.Len(t, records, 1)

	survivor, ok := records["a"]
	require.True(t, ok, "highest-confidence record survives the chain")
	assert.Equal(t, "2025-06-01", *survivor.DateOfDeath)
}

func TestCollapse_StreetOutsideWindowKept(t *testing.T) {
	collapser := newTestCollapser()
	records := asMap(
		streetRecord("a", "Juan Perez", "2025-06-15", "Phoenix", 60),
		streetRecord("b", "Juan Perez", "2025-07-15", "Phoenix", 50),
	)

	removed := collapser.Collapse(records)
	assert.Zero(t, removed)
	assert.Len(t, records, 2)
}

func TestCollapse_DetentionLongLag(t *testing.T) {
	collapser := newTestCollapser()
	records := asMap(
		detentionRecord("a", "Juan Perez", "2025-06-15", "Eloy Detention Center", 60),
		detentionRecord("b", "Juan Perez", "2025-10-01", "Eloy Detention Center", 90),
	)

	removed := collapser.Collapse(records)
	assert.Equal(t, 1, removed)
}

func TestCollapse_DifferentContextsNeverCollapse(t *testing.T) {
	collapser := newTestCollapser()
	street := streetRecord("a", "Juan Perez", "2025-06-15", "Phoenix", 60)
	detention := detentionRecord("b", "Juan Perez", "2025-06-15", "Phoenix", 60)
	records := asMap(street, detention)

	removed := collapser.Collapse(records)
	assert.Zero(t, removed)
	assert.Len(t, records, 2)
}

func TestCollapse_SharedSourceURL(t *testing.T) {
	collapser := newTestCollapser()
	first := streetRecord("a", "Juan Perez", "", "Phoenix", 60)
	first.Sources = []models.Source{{URL: "https://reuters.com/article", ClaimTags: []string{}}}
	second := streetRecord("b", "Juan Perez", "", "Tucson", 50)
	second.Sources = []models.Source{{URL: "https://reuters.com/article", ClaimTags: []string{}}}
	records := asMap(first, second)

	removed := collapser.Collapse(records)
	assert.Equal(t, 1, removed)
}

func TestCollapse_SurvivorPrefersOfficialReport(t *testing.T) {
	collapser := newTestCollapser()
	cited := detentionRecord("b", "Juan Perez", "2025-06-15", "Eloy Detention Center", 50)
	cited.Sources = []models.Source{{
		URL:        "https://www.ice.gov/detainee-death-report",
		SourceType: models.StringPtr(models.SourceTypeOfficialReport),
		ClaimTags:  []string{},
	}}
	uncited := detentionRecord("a", "Juan Perez", "2025-06-15", "Eloy Detention Center", 90)
	records := asMap(cited, uncited)

	removed := collapser.Collapse(records)
	assert.Equal(t, 1, removed)
	survivor, ok := records["b"]
	require.True(t, ok, "officially sourced record survives despite lower confidence")
	assert.Equal(t, 90, survivor.ConfidenceScore)
}

func TestCollapse_UnnamedRecordsLeftAlone(t *testing.T) {
	collapser := newTestCollapser()
	first := detentionRecord("a", "", "2025-06-15", "Eloy Detention Center", 60)
	first.PersonName = nil
	second := detentionRecord("b", "", "2025-06-15", "Eloy Detention Center", 60)
	second.PersonName = nil
	records := asMap(first, second)

	removed := collapser.Collapse(records)
	assert.Zero(t, removed)
	assert.Len(t, records, 2)
}
