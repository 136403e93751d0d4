// Package merging turns the raw upstream document pair into canonical agency records
package merging

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/myndigheter/pkg/expressions"
	"github.com/Ramsey-B/myndigheter/pkg/metrics"
	"github.com/Ramsey-B/myndigheter/pkg/models"
	"github.com/Ramsey-B/myndigheter/pkg/tracing"
)

// MergeStats counts what happened to the entries of one merge run
type MergeStats struct {
	Entries   int `json:"entries"`
	Skipped   int `json:"skipped"`
	Inserted  int `json:"inserted"`
	Replaced  int `json:"replaced"`
	Discarded int `json:"discarded"`
	Records   int `json:"records"`
}

// Duplicates is the number of entries that collided with an earlier agency.
func (s MergeStats) Duplicates() int {
	return s.Replaced + s.Discarded
}

// Engine builds canonical agency records
type Engine struct {
	logger    ectologger.Logger
	evaluator *expressions.Evaluator
}

// NewEngine creates a merge engine. All rule paths are compiled up front.
func NewEngine(logger ectologger.Logger) (*Engine, error) {
	evaluator := expressions.NewEvaluator()
	for _, path := range rulePaths() {
		if err := evaluator.Validate(path); err != nil {
			return nil, fmt.Errorf("invalid field rule path %q: %w", path, err)
		}
	}

	return &Engine{
		logger:    logger,
		evaluator: evaluator,
	}, nil
}

// Merge builds one record per agency from the document pair. The result is
// deterministic for a given input.
func (e *Engine) Merge(ctx context.Context, docs models.Documents) []models.Agency {
	records, _ := e.MergeWithStats(ctx, docs)
	return records
}

// MergeWithStats is Merge plus per-entry counters.
func (e *Engine) MergeWithStats(ctx context.Context, docs models.Documents) ([]models.Agency, MergeStats) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.Merge")
	defer span.End()

	start := time.Now()
	log := e.logger.WithContext(ctx)

	wikidata, err := decodeWikidata(docs.Wikidata)
	if err != nil {
		log.WithError(err).Warn("Ignoring malformed wikidata document")
	}

	var stats MergeStats
	deduper := NewDeduper()

	skipped, err := EachEntry(docs.Merged, func(name string, bundle map[string]any) {
		stats.Entries++
		rec := e.buildRecord(name, bundle, wikidata[name])

		switch deduper.Add(rec) {
		case OutcomeInserted:
			stats.Inserted++
		case OutcomeReplaced:
			stats.Replaced++
		case OutcomeDiscarded:
			stats.Discarded++
		}
	})
	if err != nil {
		log.WithError(err).Warn("Merged document could not be read, producing no records")
		return []models.Agency{}, MergeStats{}
	}

	stats.Entries += skipped
	stats.Skipped = skipped
	records := deduper.Records()
	stats.Records = len(records)

	metrics.RecordMerge(time.Since(start).Seconds(), stats.Inserted, stats.Replaced, stats.Discarded, stats.Skipped)

	log.WithFields(map[string]any{
		"entries":    stats.Entries,
		"skipped":    stats.Skipped,
		"duplicates": stats.Duplicates(),
		"records":    stats.Records,
	}).Debug("Merged agency documents")

	return records, stats
}

// buildRecord applies the field rule table to one document entry.
func (e *Engine) buildRecord(name string, bundle map[string]any, wikidata any) models.Agency {
	scope := make(map[string]any, len(models.Sources)+1)
	for _, source := range models.Sources {
		scope[source] = bundle[source]
	}
	scope[models.SourceWikidata] = wikidata

	rec := models.Agency{Name: name}
	for _, rule := range fieldRules {
		rule.apply(&rec, e.evaluator.Lookup(scope, rule.paths...))
	}
	return rec
}
