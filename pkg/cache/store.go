package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/myndigheter/pkg/metrics"
	"github.com/Ramsey-B/myndigheter/pkg/models"
	"github.com/Ramsey-B/myndigheter/pkg/tracing"
	"github.com/jonboulle/clockwork"
)

// DefaultTTL is how long a stored document pair stays fresh
const DefaultTTL = 24 * time.Hour

// DefaultKey is the versioned key the document pair is stored under
const DefaultKey = "myndigheter:dataset:v1"

// CorruptError means a stored entry could not be decoded
type CorruptError struct {
	Err error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt cache entry: %v", e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Config configures a Store
type Config struct {
	Key string
	TTL time.Duration
}

// Store persists the document pair under a single key. Storage failures never
// propagate: a read that cannot be served is a miss and a failed write is
// logged and counted. Concurrent writers are last-write-wins.
type Store struct {
	backend Backend
	key     string
	ttl     time.Duration
	clock   clockwork.Clock
	logger  ectologger.Logger
}

// NewStore creates a Store on top of backend. A nil clock uses the real clock.
func NewStore(backend Backend, cfg Config, clock clockwork.Clock, logger ectologger.Logger) *Store {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Store{
		backend: backend,
		key:     cfg.Key,
		ttl:     cfg.TTL,
		clock:   clock,
		logger:  logger,
	}
}

// Backend returns the underlying backend
func (s *Store) Backend() Backend {
	return s.backend
}

// TTL returns the freshness window
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Read returns the stored document pair if it is present, decodable and
// younger than the TTL. An expired entry is deleted.
func (s *Store) Read(ctx context.Context) (*models.Documents, bool) {
	ctx, span := tracing.StartSpan(ctx, "cache.Store.Read")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"backend": s.backend.Name(),
		"key":     s.key,
	})

	entry, err := s.load(ctx)
	if err != nil {
		var corrupt *CorruptError
		switch {
		case errors.Is(err, ErrNotFound):
			metrics.RecordCacheLookup(s.backend.Name(), "miss")
		case errors.As(err, &corrupt):
			log.WithError(err).Warn("Ignoring corrupt cache entry")
			metrics.RecordCacheLookup(s.backend.Name(), "corrupt")
		default:
			log.WithError(err).Warn("Failed to read cache")
			metrics.RecordCacheLookup(s.backend.Name(), "error")
		}
		return nil, false
	}

	age := s.age(entry)
	if age >= s.ttl {
		log.WithField("age", age.String()).Debug("Cache entry expired")
		metrics.RecordCacheLookup(s.backend.Name(), "expired")
		if err := s.backend.Delete(ctx, s.key); err != nil {
			log.WithError(err).Warn("Failed to delete expired cache entry")
		}
		return nil, false
	}

	metrics.RecordCacheLookup(s.backend.Name(), "hit")
	log.WithField("age", age.String()).Debug("Cache hit")

	docs := entry.Data
	return &docs, true
}

// Write stores the document pair stamped with the current time.
func (s *Store) Write(ctx context.Context, docs models.Documents) {
	ctx, span := tracing.StartSpan(ctx, "cache.Store.Write")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"backend": s.backend.Name(),
		"key":     s.key,
	})

	payload, err := json.Marshal(models.CacheEntry{
		Data:      docs,
		Timestamp: s.clock.Now().UnixMilli(),
	})
	if err != nil {
		log.WithError(err).Warn("Failed to encode cache entry")
		metrics.RecordCacheWrite(s.backend.Name(), "error")
		return
	}

	if err := s.backend.Set(ctx, s.key, payload); err != nil {
		log.WithError(err).Warn("Failed to write cache")
		metrics.RecordCacheWrite(s.backend.Name(), "error")
		return
	}

	metrics.RecordCacheWrite(s.backend.Name(), "success")
	log.WithField("bytes", len(payload)).Debug("Cached document pair")
}

// Clear removes the stored entry.
func (s *Store) Clear(ctx context.Context) {
	if err := s.backend.Delete(ctx, s.key); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to clear cache")
		return
	}
	s.logger.WithContext(ctx).Debug("Cleared cache")
}

// Info describes the stored entry without modifying it. An entry past its TTL
// still exists until the next Read, with zero hours left.
func (s *Store) Info(ctx context.Context) models.CacheInfo {
	entry, err := s.load(ctx)
	if err != nil {
		return models.CacheInfo{Exists: false}
	}

	age := s.age(entry)
	ageHours := age.Hours()
	expiresInHours := max(s.ttl-age, 0).Hours()

	return models.CacheInfo{
		Exists:         true,
		AgeHours:       &ageHours,
		ExpiresInHours: &expiresInHours,
	}
}

func (s *Store) load(ctx context.Context) (*models.CacheEntry, error) {
	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, &CorruptError{Err: err}
	}
	if isMissing(entry.Data.Merged) || isMissing(entry.Data.Wikidata) {
		return nil, &CorruptError{Err: errors.New("entry is missing a document")}
	}
	return &entry, nil
}

func (s *Store) age(entry *models.CacheEntry) time.Duration {
	return s.clock.Since(time.UnixMilli(entry.Timestamp))
}

func isMissing(doc json.RawMessage) bool {
	trimmed := bytes.TrimSpace(doc)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
