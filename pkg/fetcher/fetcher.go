// Package fetcher retrieves the upstream agency documents.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/myndigheter/pkg/httpclient"
	"github.com/Ramsey-B/myndigheter/pkg/metrics"
	"github.com/Ramsey-B/myndigheter/pkg/models"
	"github.com/Ramsey-B/myndigheter/pkg/tracing"
)

// Config names the upstream location of both documents
type Config struct {
	BaseURL          string
	MergedDocument   string
	WikidataDocument string
}

// DefaultConfig points at the public myndighetsdata repository
func DefaultConfig() Config {
	return Config{
		BaseURL:          "https://raw.githubusercontent.com/civictechsweden/myndighetsdata/master/data",
		MergedDocument:   "merged.json",
		WikidataDocument: "wd.json",
	}
}

// ProgressFunc receives a completion percentage (0-100) and a status message
type ProgressFunc func(percent int, message string)

// CacheWriter stores a successfully fetched document pair
type CacheWriter interface {
	Write(ctx context.Context, docs models.Documents)
}

// Strategy fetches both documents. Implementations write the pair to the
// cache only after both documents were retrieved, and return the first error
// unchanged without retrying.
type Strategy interface {
	Name() string
	FetchAll(ctx context.Context, progress ProgressFunc) (*models.Documents, error)
}

// Fetcher retrieves single documents
type Fetcher struct {
	client *httpclient.Client
	config Config
	logger ectologger.Logger
}

// New creates a Fetcher
func New(client *httpclient.Client, config Config, logger ectologger.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		config: config,
		logger: logger,
	}
}

// Config returns the upstream configuration
func (f *Fetcher) Config() Config {
	return f.config
}

// URL returns the address of a named document
func (f *Fetcher) URL(name string) string {
	return strings.TrimSuffix(f.config.BaseURL, "/") + "/" + strings.TrimPrefix(name, "/")
}

// FetchDocument retrieves one document and checks that it is JSON.
func (f *Fetcher) FetchDocument(ctx context.Context, name string) (json.RawMessage, error) {
	ctx, span := tracing.StartSpan(ctx, "fetcher.Fetcher.FetchDocument")
	defer span.End()

	url := f.URL(name)
	log := f.logger.WithContext(ctx).WithFields(map[string]any{
		"document": name,
		"url":      url,
	})

	resp, err := f.client.Get(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		metrics.RecordDocumentFetch(name, "error")
		fetchErr := &FetchError{Document: name, URL: url, Err: err}
		tracing.RecordError(span, fetchErr)
		return nil, fetchErr
	}

	if !resp.IsSuccess() {
		metrics.RecordDocumentFetch(name, "error")
		log.WithField("status", resp.StatusCode).Warn("Upstream returned a non-success status")
		fetchErr := &FetchError{Document: name, URL: url, Status: resp.StatusCode}
		tracing.RecordError(span, fetchErr)
		return nil, fetchErr
	}

	if !json.Valid(resp.Body) {
		metrics.RecordDocumentFetch(name, "invalid")
		parseErr := &ParseError{Document: name, Err: errors.New("response body is not valid JSON")}
		tracing.RecordError(span, parseErr)
		return nil, parseErr
	}

	metrics.RecordDocumentFetch(name, "success")
	log.WithField("bytes", len(resp.Body)).Debug("Fetched document")

	return json.RawMessage(resp.Body), nil
}

func report(progress ProgressFunc, percent int, message string) {
	if progress != nil {
		progress(percent, message)
	}
}
