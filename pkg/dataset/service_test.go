package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/myndigheter/pkg/cache"
	"github.com/Ramsey-B/myndigheter/pkg/fetcher"
	"github.com/Ramsey-B/myndigheter/pkg/merging"
	"github.com/Ramsey-B/myndigheter/pkg/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upstreamDocs = models.Documents{
	Merged:   json.RawMessage(`{"Skatteverket":{"stkt":{"structure":"Styrelse"}},"Polisen":{"scb":{"web":"polisen.se"}}}`),
	Wikidata: json.RawMessage(`{"Skatteverket":{"start":"2004-01-01"}}`),
}

// fakeStrategy emulates a fetch strategy, writing the cache on success
type fakeStrategy struct {
	mu     sync.Mutex
	docs   models.Documents
	err    error
	cache  fetcher.CacheWriter
	stages []int
	calls  int
}

func (f *fakeStrategy) Name() string { return "fake" }

func (f *fakeStrategy) FetchAll(ctx context.Context, progress fetcher.ProgressFunc) (*models.Documents, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if progress != nil {
		progress(0, "start")
	}
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.stages {
		if progress != nil {
			progress(p, "stage")
		}
	}
	if f.cache != nil {
		f.cache.Write(ctx, f.docs)
	}
	docs := f.docs
	return &docs, nil
}

type fakePublisher struct {
	calls int
	err   error
}

func (p *fakePublisher) DatasetRefreshed(context.Context, []models.Agency) error {
	p.calls++
	return p.err
}

type fixture struct {
	service  *Service
	store    *cache.Store
	strategy *fakeStrategy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	store := cache.NewStore(cache.NewMemoryBackend(), cache.Config{}, clockwork.NewFakeClock(), logger)
	strategy := &fakeStrategy{
		docs:   upstreamDocs,
		cache:  store,
		stages: []int{40, 70, 80, 90, 100},
	}
	engine, err := merging.NewEngine(logger)
	require.NoError(t, err)

	return &fixture{
		service:  NewService(store, strategy, strategy, engine, logger),
		store:    store,
		strategy: strategy,
	}
}

func TestService_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("should fetch on a cache miss and serve the cache afterwards", func(t *testing.T) {
		f := newFixture(t)

		first, err := f.service.Load(ctx, false)
		require.NoError(t, err)
		assert.False(t, first.FromCache)
		assert.Len(t, first.Records, 2)
		assert.Equal(t, "Skatteverket", first.Records[0].Name)

		second, err := f.service.Load(ctx, false)
		require.NoError(t, err)
		assert.True(t, second.FromCache)
		assert.Equal(t, first.Records, second.Records)
		assert.Equal(t, 1, f.strategy.calls)
	})

	t.Run("should bypass and clear the cache on forced refresh", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Load(ctx, false)
		require.NoError(t, err)

		result, err := f.service.Load(ctx, true)
		require.NoError(t, err)
		assert.False(t, result.FromCache)
		assert.Equal(t, 2, f.strategy.calls)
	})

	t.Run("should leave no cache after a failed forced refresh", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Load(ctx, false)
		require.NoError(t, err)

		f.strategy.err = errors.New("network down")
		_, err = f.service.Load(ctx, true)
		require.Error(t, err)

		_, ok := f.store.Read(ctx)
		assert.False(t, ok)
	})

	t.Run("should keep previously loaded records when a load fails", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Load(ctx, false)
		require.NoError(t, err)

		f.strategy.err = errors.New("upstream unavailable")
		_, err = f.service.Load(ctx, true)
		require.EqualError(t, err, "upstream unavailable")

		snap := f.service.Snapshot()
		assert.Equal(t, StateError, snap.State)
		assert.Equal(t, "upstream unavailable", snap.Error)
		assert.Len(t, snap.Records, 2)
		assert.NotNil(t, snap.Documents)
	})

	t.Run("should return the fetch error unchanged", func(t *testing.T) {
		f := newFixture(t)
		fetchErr := &fetcher.FetchError{Document: "wd.json", Status: 502}
		f.strategy.err = fetchErr

		_, err := f.service.Load(ctx, false)
		var got *fetcher.FetchError
		require.ErrorAs(t, err, &got)
		assert.Same(t, fetchErr, got)
		assert.Equal(t, StateError, f.service.Snapshot().State)
	})

	t.Run("should publish only after a remote fetch", func(t *testing.T) {
		f := newFixture(t)
		publisher := &fakePublisher{}
		f.service.SetPublisher(publisher)

		_, err := f.service.Load(ctx, false)
		require.NoError(t, err)
		_, err = f.service.Load(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 1, publisher.calls)
	})

	t.Run("should not fail a load when publishing fails", func(t *testing.T) {
		f := newFixture(t)
		f.service.SetPublisher(&fakePublisher{err: errors.New("broker down")})

		_, err := f.service.Load(ctx, false)
		assert.NoError(t, err)
	})
}

func TestService_LoadWithProgress(t *testing.T) {
	ctx := context.Background()

	collect := func(percents *[]int) fetcher.ProgressFunc {
		return func(p int, _ string) { *percents = append(*percents, p) }
	}

	t.Run("should scale fetch stages and finish at 100", func(t *testing.T) {
		f := newFixture(t)

		var percents []int
		_, err := f.service.LoadWithProgress(ctx, false, collect(&percents))
		require.NoError(t, err)

		assert.Equal(t, []int{0, 36, 63, 72, 81, 90, 95, 100}, percents)
	})

	t.Run("should report the cache stage on a hit", func(t *testing.T) {
		f := newFixture(t)
		f.store.Write(ctx, upstreamDocs)

		var percents []int
		result, err := f.service.LoadWithProgress(ctx, false, collect(&percents))
		require.NoError(t, err)
		assert.True(t, result.FromCache)
		assert.Equal(t, []int{90, 95, 100}, percents)
	})

	t.Run("should never report decreasing progress", func(t *testing.T) {
		f := newFixture(t)
		f.strategy.stages = []int{50, 30, 100}

		var percents []int
		_, err := f.service.LoadWithProgress(ctx, false, collect(&percents))
		require.NoError(t, err)

		for i := 1; i < len(percents); i++ {
			assert.GreaterOrEqual(t, percents[i], percents[i-1])
		}
		assert.Equal(t, 100, percents[len(percents)-1])
	})

	t.Run("should not reach 100 on failure", func(t *testing.T) {
		f := newFixture(t)
		f.strategy.err = errors.New("boom")

		var percents []int
		_, err := f.service.LoadWithProgress(ctx, false, collect(&percents))
		require.Error(t, err)
		assert.NotContains(t, percents, 100)
	})
}

func TestService_State(t *testing.T) {
	ctx := context.Background()

	t.Run("should start idle", func(t *testing.T) {
		f := newFixture(t)
		snap := f.service.Snapshot()
		assert.Equal(t, StateIdle, snap.State)
		assert.Empty(t, snap.Records)
		assert.Nil(t, snap.Documents)
		assert.Nil(t, snap.LoadedAt)
	})

	t.Run("should notify subscribers of transitions", func(t *testing.T) {
		f := newFixture(t)

		var changes []StateChange
		unsubscribe := f.service.Subscribe(func(c StateChange) { changes = append(changes, c) })

		_, err := f.service.Load(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, []StateChange{
			{From: StateIdle, To: StateLoading},
			{From: StateLoading, To: StateReady},
		}, changes)

		unsubscribe()
		_, err = f.service.Load(ctx, false)
		require.NoError(t, err)
		assert.Len(t, changes, 2)
	})

	t.Run("should hand out copies of the records", func(t *testing.T) {
		f := newFixture(t)
		result, err := f.service.Load(ctx, false)
		require.NoError(t, err)

		result.Records[0].Name = "changed"
		assert.Equal(t, "Skatteverket", f.service.Snapshot().Records[0].Name)
	})

	t.Run("should share no histories or counts with callers", func(t *testing.T) {
		f := newFixture(t)
		f.strategy.docs = models.Documents{
			Merged:   json.RawMessage(`{"Skatteverket":{"esv":{"employees":{"2021":10800}},"agv":{"total":{"2021":10700}},"sfs":{"regulations":["2017:154"]}}}`),
			Wikidata: json.RawMessage(`{}`),
		}
		result, err := f.service.Load(ctx, false)
		require.NoError(t, err)
		require.NotNil(t, result.Records[0].Employees)

		*result.Records[0].Employees = 1
		result.Records[0].EmployeeHistory["2021"] = 1
		result.Records[0].Regulations[0] = "changed"

		found, ok := f.service.Find("skatteverket")
		require.True(t, ok)
		found.EmployeeHistory["2021"] = 2

		snap := f.service.Snapshot().Records[0]
		assert.Equal(t, 10800.0, *snap.Employees)
		assert.Equal(t, map[string]float64{"2021": 10700}, snap.EmployeeHistory)
		assert.Equal(t, []string{"2017:154"}, snap.Regulations)
	})

	t.Run("should find records by normalized name", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Load(ctx, false)
		require.NoError(t, err)

		rec, ok := f.service.Find("  POLISEN ")
		require.True(t, ok)
		assert.Equal(t, "polisen.se", rec.Website)

		_, ok = f.service.Find("Okänt verk")
		assert.False(t, ok)
	})
}
