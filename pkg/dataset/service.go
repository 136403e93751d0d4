// Package dataset loads agency records through the cache, the fetcher and the
// merge engine, and tracks the loading state for callers.
package dataset

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/myndigheter/pkg/fetcher"
	"github.com/Ramsey-B/myndigheter/pkg/metrics"
	"github.com/Ramsey-B/myndigheter/pkg/models"
	"github.com/Ramsey-B/myndigheter/pkg/tracing"
	"github.com/jonboulle/clockwork"
)

// State is the loading state of the service
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Progress checkpoints added on top of the fetch stages, which are scaled into 0-90
const (
	ProgressFromCache  = 90
	ProgressProcessing = 95
	ProgressDone       = 100
)

// Cache is the document pair store
type Cache interface {
	Read(ctx context.Context) (*models.Documents, bool)
	Write(ctx context.Context, docs models.Documents)
	Clear(ctx context.Context)
}

// Merger builds records from a document pair
type Merger interface {
	Merge(ctx context.Context, docs models.Documents) []models.Agency
}

// Publisher is notified after records were built from a fresh upstream fetch
type Publisher interface {
	DatasetRefreshed(ctx context.Context, records []models.Agency) error
}

// Result is the outcome of one load
type Result struct {
	Records   []models.Agency
	Documents models.Documents
	FromCache bool
	LoadedAt  time.Time
}

// Snapshot is a copy of the service state
type Snapshot struct {
	State           State             `json:"state"`
	Error           string            `json:"error,omitempty"`
	Progress        int               `json:"progress"`
	ProgressMessage string            `json:"progress_message,omitempty"`
	RecordCount     int               `json:"record_count"`
	FromCache       bool              `json:"from_cache"`
	LoadedAt        *time.Time        `json:"loaded_at,omitempty"`
	Records         []models.Agency   `json:"-"`
	Documents       *models.Documents `json:"-"`
}

// StateChange is delivered to subscribers on every state transition
type StateChange struct {
	From  State
	To    State
	Error string
}

// Service is the data access facade
type Service struct {
	cache     Cache
	silent    fetcher.Strategy
	progress  fetcher.Strategy
	merger    Merger
	publisher Publisher
	clock     clockwork.Clock
	logger    ectologger.Logger

	mu              sync.RWMutex
	state           State
	lastErr         string
	progressPercent int
	progressMessage string
	records         []models.Agency
	documents       *models.Documents
	fromCache       bool
	loadedAt        time.Time

	subMu       sync.Mutex
	nextSubID   int
	subscribers map[int]func(StateChange)
}

// NewService creates the facade. silent serves Load and progress serves
// LoadWithProgress.
func NewService(cache Cache, silent, progress fetcher.Strategy, merger Merger, logger ectologger.Logger) *Service {
	return &Service{
		cache:       cache,
		silent:      silent,
		progress:    progress,
		merger:      merger,
		clock:       clockwork.NewRealClock(),
		logger:      logger,
		state:       StateIdle,
		subscribers: map[int]func(StateChange){},
	}
}

// SetPublisher registers a publisher for refresh events
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// SetClock replaces the clock used for load timestamps
func (s *Service) SetClock(c clockwork.Clock) {
	s.clock = c
}

// Load returns the records, serving them from the cache when it is fresh.
// forceRefresh clears the cache first.
func (s *Service) Load(ctx context.Context, forceRefresh bool) (*Result, error) {
	return s.load(ctx, forceRefresh, s.silent, nil)
}

// LoadWithProgress is Load with staged progress reporting. Percentages are
// non-decreasing and end at 100 on success.
func (s *Service) LoadWithProgress(ctx context.Context, forceRefresh bool, progress fetcher.ProgressFunc) (*Result, error) {
	return s.load(ctx, forceRefresh, s.progress, progress)
}

func (s *Service) load(ctx context.Context, forceRefresh bool, strategy fetcher.Strategy, progress fetcher.ProgressFunc) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "dataset.Service.Load")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"force_refresh": forceRefresh,
		"strategy":      strategy.Name(),
	})

	reporter := s.newReporter(progress)
	s.transition(StateLoading, "")

	if forceRefresh {
		log.Debug("Clearing cache before refresh")
		s.cache.Clear(ctx)
	}

	var docs *models.Documents
	fromCache := false
	if !forceRefresh {
		docs, fromCache = s.cache.Read(ctx)
	}

	if fromCache {
		reporter.report(ProgressFromCache, "Loaded from cache")
	} else {
		fetched, err := strategy.FetchAll(ctx, func(percent int, message string) {
			reporter.report(percent*9/10, message)
		})
		if err != nil {
			tracing.RecordError(span, err)
			log.WithError(err).Error("Failed to load dataset")
			metrics.RecordDatasetLoad("remote", "error")
			s.transition(StateError, err.Error())
			return nil, err
		}
		docs = fetched
	}

	reporter.report(ProgressProcessing, "Processing data")
	records := s.merger.Merge(ctx, *docs)
	loadedAt := s.clock.Now()

	s.mu.Lock()
	s.records = records
	s.documents = docs
	s.fromCache = fromCache
	s.loadedAt = loadedAt
	s.mu.Unlock()

	reporter.report(ProgressDone, "Done")
	s.transition(StateReady, "")

	source := "remote"
	if fromCache {
		source = "cache"
	}
	metrics.RecordDatasetLoad(source, "success")
	metrics.SetDatasetRecords(len(records))
	log.WithFields(map[string]any{
		"source":  source,
		"records": len(records),
	}).Info("Dataset loaded")

	if !fromCache && s.publisher != nil {
		if err := s.publisher.DatasetRefreshed(ctx, records); err != nil {
			log.WithError(err).Warn("Failed to publish dataset refresh")
		}
	}

	return &Result{
		Records:   cloneRecords(records),
		Documents: *docs,
		FromCache: fromCache,
		LoadedAt:  loadedAt,
	}, nil
}

// Snapshot returns a copy of the current state. Records survive a failed load.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		State:           s.state,
		Error:           s.lastErr,
		Progress:        s.progressPercent,
		ProgressMessage: s.progressMessage,
		RecordCount:     len(s.records),
		FromCache:       s.fromCache,
		Records:         cloneRecords(s.records),
	}
	if s.documents != nil {
		docs := *s.documents
		snap.Documents = &docs
	}
	if !s.loadedAt.IsZero() {
		loadedAt := s.loadedAt
		snap.LoadedAt = &loadedAt
	}
	return snap
}

// Find returns the loaded record whose normalized name matches name.
func (s *Service) Find(name string) (models.Agency, bool) {
	key := models.NormalizeName(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if models.NormalizeName(rec.Name) == key {
			return rec.Clone(), true
		}
	}
	return models.Agency{}, false
}

// Subscribe registers fn for state changes and returns a function that removes it.
func (s *Service) Subscribe(fn func(StateChange)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Service) transition(to State, errMsg string) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.lastErr = errMsg
	if to == StateLoading {
		s.progressPercent = 0
		s.progressMessage = ""
	}
	s.mu.Unlock()

	s.subMu.Lock()
	subscribers := make([]func(StateChange), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.subMu.Unlock()

	change := StateChange{From: from, To: to, Error: errMsg}
	for _, fn := range subscribers {
		fn(change)
	}
}

func (s *Service) setProgress(percent int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progressPercent = percent
	s.progressMessage = message
}

// reporter forwards progress to the caller, never letting it go backwards
type reporter struct {
	service  *Service
	progress fetcher.ProgressFunc
	last     int
}

func (s *Service) newReporter(progress fetcher.ProgressFunc) *reporter {
	return &reporter{service: s, progress: progress, last: -1}
}

func (r *reporter) report(percent int, message string) {
	if percent < r.last {
		percent = r.last
	}
	r.last = percent
	r.service.setProgress(percent, message)
	if r.progress != nil {
		r.progress(percent, message)
	}
}

func cloneRecords(records []models.Agency) []models.Agency {
	if records == nil {
		return nil
	}
	out := make([]models.Agency, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out
}
