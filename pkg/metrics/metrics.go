// Package metrics provides Prometheus metrics for the myndigheter service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal tracks inbound API requests
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "myndigheter",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status",
		},
		[]string{"method", "route", "status_code"},
	)

	// APIRequestDuration tracks inbound API request duration
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "myndigheter",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPRequestsTotal tracks outbound HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "myndigheter",
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Total number of outbound HTTP requests",
		},
		[]string{"method", "status_code"},
	)

	// HTTPRequestDuration tracks outbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "myndigheter",
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)

	// FetchDocumentsTotal tracks upstream document fetches by outcome
	FetchDocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "myndigheter",
			Subsystem: "fetcher",
			Name:      "documents_total",
			Help:      "Total number of upstream document fetches by document and status",
		},
		[]string{"document", "status"},
	)

	// FetchDuration tracks the duration of a full fetch of both documents
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "myndigheter",
			Subsystem: "fetcher",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of fetching the document pair in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"strategy"},
	)

	// CacheLookupsTotal tracks cache reads by result
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "myndigheter",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of cache reads by result (hit, miss, expired, corrupt)",
		},
		[]string{"backend", "result"},
	)

	// CacheWritesTotal tracks cache writes by status
	CacheWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "myndigheter",
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Total number of cache writes by status",
		},
		[]string{"backend", "status"},
	)

	// MergeDuration tracks merge engine runs
	MergeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "myndigheter",
			Subsystem: "merging",
			Name:      "merge_duration_seconds",
			Help:      "Duration of merging the document pair into records in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// MergeEntriesTotal tracks merged document entries by outcome
	MergeEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "myndigheter",
			Subsystem: "merging",
			Name:      "entries_total",
			Help:      "Total number of document entries by outcome (inserted, replaced, discarded, skipped)",
		},
		[]string{"outcome"},
	)

	// DatasetLoadsTotal tracks facade loads by source and status
	DatasetLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "myndigheter",
			Subsystem: "dataset",
			Name:      "loads_total",
			Help:      "Total number of dataset loads by source (cache, remote) and status",
		},
		[]string{"source", "status"},
	)

	// DatasetRecords tracks the number of records currently served
	DatasetRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "myndigheter",
			Subsystem: "dataset",
			Name:      "records",
			Help:      "Number of agency records currently loaded",
		},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "myndigheter",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)
)

// RecordAPIRequest records an inbound API request
func RecordAPIRequest(method, route, statusCode string, durationSeconds float64) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// RecordHTTPRequest records an outbound HTTP request
func RecordHTTPRequest(method, statusCode string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordDocumentFetch records the outcome of fetching one upstream document
func RecordDocumentFetch(document, status string) {
	FetchDocumentsTotal.WithLabelValues(document, status).Inc()
}

// RecordFetch records the duration of a full fetch
func RecordFetch(strategy string, durationSeconds float64) {
	FetchDuration.WithLabelValues(strategy).Observe(durationSeconds)
}

// RecordCacheLookup records a cache read
func RecordCacheLookup(backend, result string) {
	CacheLookupsTotal.WithLabelValues(backend, result).Inc()
}

// RecordCacheWrite records a cache write
func RecordCacheWrite(backend, status string) {
	CacheWritesTotal.WithLabelValues(backend, status).Inc()
}

// RecordMerge records a merge run and its per-entry outcomes
func RecordMerge(durationSeconds float64, inserted, replaced, discarded, skipped int) {
	MergeDuration.Observe(durationSeconds)
	MergeEntriesTotal.WithLabelValues("inserted").Add(float64(inserted))
	MergeEntriesTotal.WithLabelValues("replaced").Add(float64(replaced))
	MergeEntriesTotal.WithLabelValues("discarded").Add(float64(discarded))
	MergeEntriesTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordDatasetLoad records a facade load
func RecordDatasetLoad(source, status string) {
	DatasetLoadsTotal.WithLabelValues(source, status).Inc()
}

// SetDatasetRecords sets the number of loaded records
func SetDatasetRecords(n int) {
	DatasetRecords.Set(float64(n))
}

// RecordKafkaPublish records a Kafka publish
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
