package fetcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Ramsey-B/myndigheter/pkg/metrics"
	"github.com/Ramsey-B/myndigheter/pkg/models"
	"github.com/Ramsey-B/myndigheter/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

// SilentStrategy fetches both documents concurrently and reports no progress.
// If either request fails the other is cancelled and nothing is returned.
type SilentStrategy struct {
	fetcher *Fetcher
	cache   CacheWriter
}

// NewSilentStrategy creates a SilentStrategy. cache may be nil.
func NewSilentStrategy(fetcher *Fetcher, cache CacheWriter) *SilentStrategy {
	return &SilentStrategy{fetcher: fetcher, cache: cache}
}

func (s *SilentStrategy) Name() string { return "silent" }

func (s *SilentStrategy) FetchAll(ctx context.Context, _ ProgressFunc) (*models.Documents, error) {
	ctx, span := tracing.StartSpan(ctx, "fetcher.SilentStrategy.FetchAll")
	defer span.End()

	start := time.Now()
	cfg := s.fetcher.Config()

	var merged, wikidata json.RawMessage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := s.fetcher.FetchDocument(gctx, cfg.MergedDocument)
		merged = doc
		return err
	})
	g.Go(func() error {
		doc, err := s.fetcher.FetchDocument(gctx, cfg.WikidataDocument)
		wikidata = doc
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := models.Documents{Merged: merged, Wikidata: wikidata}
	if s.cache != nil {
		s.cache.Write(ctx, docs)
	}

	metrics.RecordFetch(s.Name(), time.Since(start).Seconds())
	return &docs, nil
}
