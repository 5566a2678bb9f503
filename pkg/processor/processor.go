// Package processor runs the batch pipeline: load the existing dataset,
// resolve and merge candidates, collapse duplicates, and write the outputs.
package processor

import (
	"context"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/collapse"
	"github.com/Ramsey-B/laurel/pkg/dates"
	"github.com/Ramsey-B/laurel/pkg/matching"
	"github.com/Ramsey-B/laurel/pkg/merging"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/staging"
	"github.com/Ramsey-B/laurel/pkg/store"
	"github.com/Ramsey-B/laurel/pkg/tracing"
	"github.com/Ramsey-B/laurel/pkg/trust"
)

// DiffPublisher receives the diff stream as it is produced. Implementations
// must tolerate being called once per changed record.
type DiffPublisher interface {
	PublishDiff(ctx context.Context, entry models.DiffEntry) error
}

// Options control a single run.
type Options struct {
	// DryRun computes everything but writes no files.
	DryRun bool
}

// Processor owns one batch pipeline over a dataset directory.
type Processor struct {
	logger      ectologger.Logger
	normalizer  *staging.Normalizer
	merger      *merging.Engine
	collapser   *collapse.Collapser
	repo        *store.Repository
	matchConfig matching.EngineConfig
	publisher   DiffPublisher
}

// New creates a processor. publisher may be nil when no event stream is
// configured.
func New(
	logger ectologger.Logger,
	normalizer *staging.Normalizer,
	merger *merging.Engine,
	collapser *collapse.Collapser,
	repo *store.Repository,
	matchConfig matching.EngineConfig,
	publisher DiffPublisher,
) *Processor {
	return &Processor{
		logger:      logger,
		normalizer:  normalizer,
		merger:      merger,
		collapser:   collapser,
		repo:        repo,
		matchConfig: matchConfig,
		publisher:   publisher,
	}
}

// Run executes one batch over the candidate records. Runs are idempotent:
// replaying the same candidates against the resulting dataset changes
// nothing.
func (p *Processor) Run(ctx context.Context, candidates []models.RawRecord, opts Options) (*models.RunSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.Run")
	defer span.End()

	runTime := time.Now().UTC()
	accessDate := dates.ISODate(runTime)

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"candidates":  len(candidates),
		"access_date": accessDate,
		"dry_run":     opts.DryRun,
	})
	log.Info("Starting deaths batch run")

	rawExisting, order, err := p.repo.LoadRaw()
	if err != nil {
		return nil, err
	}

	// Re-normalizing on load picks up policy changes since the last run.
	records := make(map[string]*models.DeathRecord, len(rawExisting))
	for _, id := range order {
		record := p.normalizer.Normalize(rawExisting[id], accessDate)
		record.ID = id
		records[id] = record
	}

	engine := matching.NewEngine(p.logger, records, p.matchConfig)

	summary := &models.RunSummary{Processed: len(candidates)}
	var diffs []models.DiffEntry

	for _, raw := range candidates {
		candidate := p.normalizer.Normalize(raw, accessDate)
		id := candidate.ID
		if _, exists := records[id]; !exists {
			if matchID := engine.Resolve(candidate); matchID != "" {
				id = matchID
				candidate.ID = matchID
			}
		}

		current, exists := records[id]
		if !exists {
			records[id] = candidate
			engine.Index(id, candidate)
			summary.Added++
			diffs = p.appendDiff(ctx, diffs, models.DiffEntry{
				DeathRecord: *candidate.Clone(),
				ChangeType:  models.ChangeTypeAdded,
			})
			continue
		}

		changes := p.merger.MergeInto(current, candidate)
		engine.Reindex(id, current)
		if len(changes) == 0 {
			continue
		}
		summary.Updated++
		diffs = p.appendDiff(ctx, diffs, models.DiffEntry{
			DeathRecord: *current.Clone(),
			ChangeType:  models.ChangeTypeUpdated,
			ChangeLog:   changes,
		})
	}

	summary.Collapsed = p.collapser.Collapse(records)

	ordered := make([]*models.DeathRecord, 0, len(records))
	for _, record := range records {
		if trust.ShouldDrop(record) {
			summary.Dropped++
			continue
		}
		ordered = append(ordered, record)
	}
	sortRecords(ordered)

	for _, record := range ordered {
		if record.ManualReview {
			summary.ManualReview++
		}
	}
	summary.Total = len(ordered)

	if !opts.DryRun {
		index := store.BuildIndex(ordered, runTime)
		if err := p.repo.WriteOutputs(ordered, index, diffs, runTime); err != nil {
			return nil, err
		}
	}

	log.WithFields(map[string]any{
		"records":       summary.Total,
		"added":         summary.Added,
		"updated":       summary.Updated,
		"collapsed":     summary.Collapsed,
		"dropped":       summary.Dropped,
		"manual_review": summary.ManualReview,
	}).Info("Deaths batch run complete")

	return summary, nil
}

func (p *Processor) appendDiff(ctx context.Context, diffs []models.DiffEntry, entry models.DiffEntry) []models.DiffEntry {
	if p.publisher != nil {
		if err := p.publisher.PublishDiff(ctx, entry); err != nil {
			p.logger.WithContext(ctx).WithError(err).Warn("Failed to publish diff event")
		}
	}
	return append(diffs, entry)
}

// sortRecords orders the dataset by date of death, then name, then id, so
// output files are stable across runs.
func sortRecords(records []*models.DeathRecord) {
	sort.Slice(records, func(i, j int) bool {
		left, right := records[i], records[j]
		leftDate, rightDate := optional(left.DateOfDeath), optional(right.DateOfDeath)
		if leftDate != rightDate {
			return leftDate < rightDate
		}
		leftName, rightName := optional(left.PersonName), optional(right.PersonName)
		if leftName != rightName {
			return leftName < rightName
		}
		return left.ID < right.ID
	})
}

func optional(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
