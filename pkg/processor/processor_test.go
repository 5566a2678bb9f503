package processor

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/collapse"
	"github.com/Ramsey-B/laurel/pkg/matching"
	"github.com/Ramsey-B/laurel/pkg/merging"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/policy"
	"github.com/Ramsey-B/laurel/pkg/staging"
	"github.com/Ramsey-B/laurel/pkg/store"
	"github.com/Ramsey-B/laurel/pkg/trust"
)

type capturingPublisher struct {
	entries []models.DiffEntry
}

func (c *capturingPublisher) PublishDiff(_ context.Context, entry models.DiffEntry) error {
	c.entries = append(c.entries, entry)
	return nil
}

func newTestProcessor(t *testing.T) (*Processor, *store.Repository, *capturingPublisher) {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	scorer := trust.NewScorer(policy.Default())
	merger := merging.NewEngine(logger, scorer)
	repo := store.NewRepository(logger, t.TempDir())
	publisher := &capturingPublisher{}
	proc := New(
		logger,
		staging.NewNormalizer(logger, scorer),
		merger,
		collapse.NewCollapser(logger, merger),
		repo,
		matching.DefaultConfig(),
		publisher,
	)
	return proc, repo, publisher
}

func officialCandidate() models.RawRecord {
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

func newsCandidate() models.RawRecord {
	return models.RawRecord{
		"person_name":             "Juan Pablo Perez",
		"date_of_death":           "2025-06-15",
		"death_context":           "detention",
		"facility_or_location":    "Eloy Detention Center",
		"cause_of_death_reported": "cardiac arrest",
		"confidence_score":        float64(70),
		"sources": []any{
			map[string]any{
				"url":         "https://www.npr.org/story",
				"source_type": "news",
			},
			map[string]any{
				"url":         "https://reuters.com/article",
				"source_type": "news",
			},
		},
	}
}

func TestRun_AddsNewRecords(t *testing.T) {
	proc, repo, publisher := newTestProcessor(t)

	summary, err := proc.Run(context.Background(), []models.RawRecord{officialCandidate()}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Added)
	assert.Zero(t, summary.Updated)
	assert.Equal(t, 1, summary.Total)

	_, ordered, err := repo.LoadRecords()
	require.NoError(t, err)
	require.Len(t, ordered, 1)
	assert.Equal(t, "Juan Perez", *ordered[0].PersonName)

	require.Len(t, publisher.entries, 1)
	assert.Equal(t, models.ChangeTypeAdded, publisher.entries[0].ChangeType)
}

func TestRun_Idempotent(t *testing.T) {
	proc, repo, _ := newTestProcessor(t)
	candidates := []models.RawRecord{officialCandidate()}

	_, err := proc.Run(context.Background(), candidates, Options{})
	require.NoError(t, err)

	// corroboration boosts re-apply on load, so scores converge before
	// the dataset goes fully stable
	summary, err := proc.Run(context.Background(), candidates, Options{})
	require.NoError(t, err)
	assert.Zero(t, summary.Added)
	assert.Zero(t, summary.Updated)

	_, second, err := repo.LoadRecords()
	require.NoError(t, err)

	summary, err = proc.Run(context.Background(), candidates, Options{})
	require.NoError(t, err)
	assert.Zero(t, summary.Added)
	assert.Zero(t, summary.Updated)

	_, third, err := repo.LoadRecords()
	require.NoError(t, err)
	assert.Equal(t, second, third)
}

func TestRun_MergesNameVariantSameFacility(t *testing.T) {
	proc, repo, _ := newTestProcessor(t)

	_, err := proc.Run(context.Background(), []models.RawRecord{officialCandidate()}, Options{})
	require.NoError(t, err)

	summary, err := proc.Run(context.Background(), []models.RawRecord{newsCandidate()}, Options{})
	require.NoError(t, err)
	assert.Zero(t, summary.Added)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Total)

	_, ordered, err := repo.LoadRecords()
	require.NoError(t, err)
	require.Len(t, ordered, 1)

	record := ordered[0]
	// merged record keeps the fuller name and picks up the news details
	assert.Equal(t, "Juan Pablo Perez", *record.PersonName)
	require.NotNil(t, record.CauseOfDeathReported)
	assert.Equal(t, "cardiac arrest", *record.CauseOfDeathReported)
	assert.Len(t, record.Sources, 3)
	assert.GreaterOrEqual(t, record.ConfidenceScore, 90)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	proc, repo, _ := newTestProcessor(t)

	summary, err := proc.Run(context.Background(), []models.RawRecord{officialCandidate()}, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Added)

	_, ordered, err := repo.LoadRecords()
	require.NoError(t, err)
	assert.Empty(t, ordered)
}

func TestRun_DropsUnnamedNewsRecords(t *testing.T) {
	proc, repo, _ := newTestProcessor(t)
	raw := models.RawRecord{
		"person_name":      "ICE agents",
		"date_of_death":    "2025-06-15",
		"death_context":    "street",
		"city":             "Phoenix",
		"confidence_score": float64(80),
		"sources": []any{
			map[string]any{"url": "https://reuters.com/article", "source_type": "news"},
		},
	}

	summary, err := proc.Run(context.Background(), []models.RawRecord{raw}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Dropped)
	assert.Zero(t, summary.Total)

	_, ordered, err := repo.LoadRecords()
	require.NoError(t, err)
	assert.Empty(t, ordered)
}

func TestRun_OutputOrdering(t *testing.T) {
	proc, repo, _ := newTestProcessor(t)

	later := officialCandidate()
	later["person_name"] = "Maria Lopez"
	later["date_of_death"] = "2025-07-01"
	later["facility_or_location"] = "Otero Processing Center"

	_, err := proc.Run(context.Background(), []models.RawRecord{later, officialCandidate()}, Options{})
	require.NoError(t, err)

	_, ordered, err := repo.LoadRecords()
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, "Juan Perez", *ordered[0].PersonName)
	assert.Equal(t, "Maria Lopez", *ordered[1].PersonName)
}

func TestRun_CollapsesDuplicateIdentities(t *testing.T) {
	proc, repo, _ := newTestProcessor(t)

	// a late follow-up at the same facility: the report dates sit outside
	// the matcher's window but inside the detention collapse window
	late := officialCandidate()
	late["date_of_death"] = "2025-07-20"
	late["sources"] = []any{
		map[string]any{
			"url":         "https://www.npr.org/story",
			"source_type": "news",
		},
		map[string]any{
			"url":         "https://apnews.com/article",
			"source_type": "news",
		},
	}

	summary, err := proc.Run(context.Background(), []models.RawRecord{officialCandidate(), late}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Collapsed)
	assert.Equal(t, 1, summary.Total)

	_, ordered, err := repo.LoadRecords()
	require.NoError(t, err)
	require.Len(t, ordered, 1)
	require.NotNil(t, ordered[0].DateOfDeath)
	assert.Equal(t, "2025-06-15", *ordered[0].DateOfDeath)
}
