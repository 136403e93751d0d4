package fetcher

import (
	"context"
	"time"

	"github.com/Ramsey-B/myndigheter/pkg/metrics"
	"github.com/Ramsey-B/myndigheter/pkg/models"
	"github.com/Ramsey-B/myndigheter/pkg/tracing"
)

// Progress checkpoints reported by ProgressStrategy
const (
	ProgressStart    = 0
	ProgressMerged   = 40
	ProgressWikidata = 70
	ProgressCombined = 80
	ProgressCached   = 90
	ProgressComplete = 100
)

// ProgressStrategy fetches the merged document and then the wikidata
// document, reporting progress after each stage.
type ProgressStrategy struct {
	fetcher *Fetcher
	cache   CacheWriter
}

// NewProgressStrategy creates a ProgressStrategy. cache may be nil.
func NewProgressStrategy(fetcher *Fetcher, cache CacheWriter) *ProgressStrategy {
	return &ProgressStrategy{fetcher: fetcher, cache: cache}
}

func (s *ProgressStrategy) Name() string { return "progress" }

func (s *ProgressStrategy) FetchAll(ctx context.Context, progress ProgressFunc) (*models.Documents, error) {
	ctx, span := tracing.StartSpan(ctx, "fetcher.ProgressStrategy.FetchAll")
	defer span.End()

	start := time.Now()
	cfg := s.fetcher.Config()

	report(progress, ProgressStart, "Downloading agency data")

	merged, err := s.fetcher.FetchDocument(ctx, cfg.MergedDocument)
	if err != nil {
		return nil, err
	}
	report(progress, ProgressMerged, "Agency data received, downloading Wikidata")

	wikidata, err := s.fetcher.FetchDocument(ctx, cfg.WikidataDocument)
	if err != nil {
		return nil, err
	}
	report(progress, ProgressWikidata, "Wikidata received")

	docs := models.Documents{Merged: merged, Wikidata: wikidata}
	report(progress, ProgressCombined, "Combining documents")

	if s.cache != nil {
		s.cache.Write(ctx, docs)
	}
	report(progress, ProgressCached, "Saved to cache")

	metrics.RecordFetch(s.Name(), time.Since(start).Seconds())
	report(progress, ProgressComplete, "Download complete")

	return &docs, nil
}
