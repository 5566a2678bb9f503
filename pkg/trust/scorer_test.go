package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/policy"
)

func newTestScorer() *Scorer {
	return NewScorer(policy.Default())
}

func newsSource(url string) models.Source {
	return models.Source{URL: url, SourceType: models.StringPtr(models.SourceTypeNews), ClaimTags: []string{}}
}

func officialSource(url string) models.Source {
	return models.Source{URL: url, SourceType: models.StringPtr(models.SourceTypeOfficialReport), ClaimTags: []string{}}
}

func TestApplySourceRequirements(t *testing.T) {
	scorer := newTestScorer()

	t.Run("single source capped and flagged", func(t *testing.T) {
		record := &models.DeathRecord{
			DeathContext:    models.ContextDetention,
			ConfidenceScore: 90,
			Sources:         []models.Source{officialSource("https://www.ice.gov/report")},
		}
		changes := scorer.ApplySourceRequirements(record)
		assert.True(t, record.ManualReview)
		assert.Equal(t, 45, record.ConfidenceScore)
		assert.Len(t, changes, 2)
	})

	t.Run("official plus secondary boosted", func(t *testing.T) {
		record := &models.DeathRecord{
			DeathContext:    models.ContextDetention,
			ConfidenceScore: 90,
			Sources: []models.Source{
				officialSource("https://www.ice.gov/report"),
				newsSource("https://reuters.com/article"),
			},
		}
		scorer.ApplySourceRequirements(record)
		assert.False(t, record.ManualReview)
		assert.Equal(t, 95, record.ConfidenceScore)
	})

	t.Run("boost never exceeds 100", func(t *testing.T) {
		record := &models.DeathRecord{
			DeathContext:    models.ContextDetention,
			ConfidenceScore: 98,
			Sources: []models.Source{
				officialSource("https://www.ice.gov/report"),
				newsSource("https://reuters.com/article"),
			},
		}
		scorer.ApplySourceRequirements(record)
		assert.Equal(t, 100, record.ConfidenceScore)
	})

	t.Run("disallowed domains filtered", func(t *testing.T) {
		record := &models.DeathRecord{
			DeathContext:    models.ContextDetention,
			ConfidenceScore: 50,
			Sources: []models.Source{
				officialSource("https://www.ice.gov/report"),
				newsSource("https://someone.substack.com/p/post"),
				newsSource("https://en.wikipedia.org/wiki/Case"),
			},
		}
		scorer.ApplySourceRequirements(record)
		require.Len(t, record.Sources, 1)
		assert.Equal(t, "https://www.ice.gov/report", record.Sources[0].URL)
	})
}

func TestApplyTriangulation(t *testing.T) {
	scorer := newTestScorer()

	t.Run("street news without both wires capped", func(t *testing.T) {
		record := &models.DeathRecord{
			DeathContext:    models.ContextStreet,
			ConfidenceScore: 80,
			Sources: []models.Source{
				newsSource("https://apnews.com/article"),
				newsSource("https://reuters.com/article"),
			},
		}
		scorer.ApplyTriangulation(record)
		assert.True(t, record.ManualReview)
		assert.Equal(t, 45, record.ConfidenceScore)
	})

	t.Run("street news with both wires boosted", func(t *testing.T) {
		record := &models.DeathRecord{
			DeathContext:    models.ContextStreet,
			ConfidenceScore: 80,
			Sources: []models.Source{
				newsSource("https://apnews.com/article"),
				newsSource("https://www.nbcnews.com/article"),
			},
		}
		scorer.ApplyTriangulation(record)
		assert.False(t, record.ManualReview)
		assert.Equal(t, 90, record.ConfidenceScore)
	})

	t.Run("detention records untouched", func(t *testing.T) {
		record := &models.DeathRecord{
			DeathContext:    models.ContextDetention,
			ConfidenceScore: 80,
			Sources:         []models.Source{newsSource("https://reuters.com/article")},
		}
		changes := scorer.ApplyTriangulation(record)
		assert.Empty(t, changes)
		assert.Equal(t, 80, record.ConfidenceScore)
	})

	t.Run("street without news untouched", func(t *testing.T) {
		record := &models.DeathRecord{
			DeathContext:    models.ContextStreet,
			ConfidenceScore: 80,
			Sources:         []models.Source{officialSource("https://www.ice.gov/report")},
		}
		changes := scorer.ApplyTriangulation(record)
		assert.Empty(t, changes)
	})
}

func TestDerivePrimaryReportURL(t *testing.T) {
	scorer := newTestScorer()

	t.Run("official report wins over release", func(t *testing.T) {
		release := models.Source{
			URL:        "https://www.ice.gov/newsroom/release",
			SourceType: models.StringPtr(models.SourceTypeOfficialRelease),
			ClaimTags:  []string{"ice_release"},
		}
		report := models.Source{
			URL:        "https://www.ice.gov/detainee-death-report",
			SourceType: models.StringPtr(models.SourceTypeOfficialReport),
			ClaimTags:  []string{"ice_death_report"},
		}
		record := &models.DeathRecord{Sources: []models.Source{release, report}}
		url := scorer.DerivePrimaryReportURL(record)
		require.NotNil(t, url)
		assert.Equal(t, "https://www.ice.gov/detainee-death-report", *url)
	})

	t.Run("claim tag alone qualifies", func(t *testing.T) {
		source := newsSource("https://www.ice.gov/detainee-death-report")
		source.ClaimTags = []string{"ice_death_report"}
		record := &models.DeathRecord{Sources: []models.Source{source}}
		url := scorer.DerivePrimaryReportURL(record)
		require.NotNil(t, url)
	})

	t.Run("no official sources clears disallowed existing url", func(t *testing.T) {
		record := &models.DeathRecord{
			PrimaryReportURL: models.StringPtr("https://someone.substack.com/p/post"),
			Sources:          []models.Source{newsSource("https://reuters.com/article")},
		}
		assert.Nil(t, scorer.DerivePrimaryReportURL(record))
	})
}

func TestShouldDrop(t *testing.T) {
	t.Run("news source with role noun name", func(t *testing.T) {
		record := &models.DeathRecord{
			PersonName:   models.StringPtr("ICE Spokesperson"),
			DeathContext: models.ContextDetention,
			Sources:      []models.Source{newsSource("https://reuters.com/article")},
		}
		assert.True(t, ShouldDrop(record))
	})

	t.Run("named record kept", func(t *testing.T) {
		record := &models.DeathRecord{
			PersonName:   models.StringPtr("Juan Perez"),
			DeathContext: models.ContextStreet,
			Sources:      []models.Source{newsSource("https://reuters.com/article")},
		}
		assert.False(t, ShouldDrop(record))
	})

	t.Run("unnamed official report kept", func(t *testing.T) {
		record := &models.DeathRecord{
			DeathContext: models.ContextDetention,
			Sources:      []models.Source{officialSource("https://www.ice.gov/report")},
		}
		assert.False(t, ShouldDrop(record))
	})
}
