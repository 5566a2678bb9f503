package staging

import (
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/policy"
	"github.com/Ramsey-B/laurel/pkg/trust"
)

const accessDate = "2026-01-10"

func newTestNormalizer() *Normalizer {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewNormalizer(logger, trust.NewScorer(policy.Default()))
}

func officialRaw() models.RawRecord {
	return models.RawRecord{
		"person_name":          "Juan Perez",
		"date_of_death":        "2025-06-15",
		"death_context":        "detention",
		"custody_status":       "ICE detention",
		"agency":               "ICE",
		"facility_or_location": "Eloy Detention Center",
		"confidence_score":     float64(90),
		"sources": []any{
			map[string]any{
				"url":         "https://www.ice.gov/detainee-death-report",
				"source_type": "official_report",
				"claim_tags":  []any{"ice_death_report"},
			},
			map[string]any{
				"url":         "https://reuters.com/article",
				"source_type": "news",
			},
		},
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	normalizer := newTestNormalizer()
	first := normalizer.Normalize(officialRaw(), accessDate)
	second := normalizer.Normalize(officialRaw(), accessDate)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first.ID)
}

func TestNormalize_DerivedFields(t *testing.T) {
	normalizer := newTestNormalizer()
	record := normalizer.Normalize(officialRaw(), accessDate)

	require.NotNil(t, record.FacilityName)
	assert.Equal(t, "Eloy Detention Center", *record.FacilityName)
	assert.Equal(t, models.LocationCategoryFacility, record.LocationCategory)
	require.NotNil(t, record.IncidentLocation)
	assert.Equal(t, "Eloy Detention Center", *record.IncidentLocation)
	assert.Equal(t, models.PrecisionDay, record.DatePrecision)

	require.NotNil(t, record.PrimaryReportURL)
	assert.Equal(t, "https://www.ice.gov/detainee-death-report", *record.PrimaryReportURL)
}

func TestNormalize_SourceDefaults(t *testing.T) {
	normalizer := newTestNormalizer()
	record := normalizer.Normalize(officialRaw(), accessDate)

	require.Len(t, record.Sources, 2)
	for _, source := range record.Sources {
		require.NotNil(t, source.AccessDate)
		assert.Equal(t, accessDate, *source.AccessDate)
	}
}

func TestNormalize_RejectsDisallowedSources(t *testing.T) {
	normalizer := newTestNormalizer()
	raw := officialRaw()
	raw["sources"] = []any{
		map[string]any{"url": "https://en.wikipedia.org/wiki/Case"},
		map[string]any{"url": "https://someone.substack.com/p/post"},
		map[string]any{"url": "https://www.ice.gov/detainee-death-report", "source_type": "official_report"},
	}
	record := normalizer.Normalize(raw, accessDate)
	require.Len(t, record.Sources, 1)
	assert.Equal(t, "https://www.ice.gov/detainee-death-report", record.Sources[0].URL)
}

func TestNormalize_InvalidEnumsFallBack(t *testing.T) {
	normalizer := newTestNormalizer()
	raw := officialRaw()
	raw["death_context"] = "riot"
	raw["custody_status"] = "house arrest"
	raw["agency"] = "FBI"
	raw["homicide_status"] = "definitely"

	record := normalizer.Normalize(raw, accessDate)
	assert.Equal(t, models.DefaultContext, record.DeathContext)
	assert.Equal(t, models.Unknown, record.CustodyStatus)
	assert.Equal(t, models.Unknown, record.Agency)
	assert.Equal(t, models.Unknown, record.HomicideStatus)
}

func TestNormalize_NewsStreetDemotion(t *testing.T) {
	normalizer := newTestNormalizer()
	raw := models.RawRecord{
		"person_name":      "ICE Spokesperson",
		"date_of_death":    "2025-06-15",
		"death_context":    "street",
		"city":             "Phoenix",
		"confidence_score": float64(80),
		"sources": []any{
			map[string]any{"url": "https://reuters.com/article", "source_type": "news"},
		},
	}
	record := normalizer.Normalize(raw, accessDate)

	assert.Nil(t, record.PersonName)
	assert.True(t, record.ManualReview)
	assert.LessOrEqual(t, record.ConfidenceScore, 35)
}

func TestNormalize_UnnamedIDUsesContext(t *testing.T) {
	normalizer := newTestNormalizer()
	street := models.RawRecord{"date_of_death": "2025-06-15", "city": "Phoenix", "death_context": "street"}
	detention := models.RawRecord{"date_of_death": "2025-06-15", "city": "Phoenix", "death_context": "detention"}

	streetRecord := normalizer.Normalize(street, accessDate)
	detentionRecord := normalizer.Normalize(detention, accessDate)
	assert.NotEqual(t, streetRecord.ID, detentionRecord.ID)
}

func TestNormalize_SuspectIdentifiedInference(t *testing.T) {
	normalizer := newTestNormalizer()
	raw := officialRaw()
	raw["suspect_name"] = "Officer Smith"

	record := normalizer.Normalize(raw, accessDate)
	require.NotNil(t, record.SuspectIdentified)
	assert.True(t, *record.SuspectIdentified)
}

func TestNormalize_ConfidenceClamped(t *testing.T) {
	normalizer := newTestNormalizer()
	raw := officialRaw()
	raw["confidence_score"] = float64(250)
	record := normalizer.Normalize(raw, accessDate)
	assert.LessOrEqual(t, record.ConfidenceScore, 100)

	raw["confidence_score"] = float64(-10)
	record = normalizer.Normalize(raw, accessDate)
	assert.GreaterOrEqual(t, record.ConfidenceScore, 0)
}

func TestNormalize_SanitizersApplied(t *testing.T) {
	normalizer := newTestNormalizer()
	raw := officialRaw()
	raw["city"] = "died in custody near Phoenix"
	raw["state"] = "Arizona 85001"

	record := normalizer.Normalize(raw, accessDate)
	assert.Nil(t, record.City)
	assert.Nil(t, record.State)
}
