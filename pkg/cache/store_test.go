package cache

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/myndigheter/pkg/models"
	"github.com/Ramsey-B/myndigheter/pkg/redis"
	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDocs = models.Documents{
	Merged:   json.RawMessage(`{"Skatteverket":{"stkt":{"structure":"Styrelse"}},"Arbetsförmedlingen":{}}`),
	Wikidata: json.RawMessage(`{"Skatteverket":{"start":"2004-01-01"}}`),
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// failingBackend fails every operation
type failingBackend struct{ MemoryBackend }

var errBackend = errors.New("backend unavailable")

func (b *failingBackend) Get(context.Context, string) ([]byte, error) { return nil, errBackend }
func (b *failingBackend) Set(context.Context, string, []byte) error   { return errBackend }
func (b *failingBackend) Delete(context.Context, string) error        { return errBackend }

func backends(t *testing.T) map[string]func(t *testing.T) Backend {
	return map[string]func(t *testing.T) Backend{
		BackendMemory: func(t *testing.T) Backend {
			return NewMemoryBackend()
		},
		BackendSQLite: func(t *testing.T) Backend {
			b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "cache.db"), testLogger())
			require.NoError(t, err)
			t.Cleanup(func() { _ = b.Close() })
			return b
		},
		BackendRedis: func(t *testing.T) Backend {
			mr := miniredis.RunT(t)
			port, err := strconv.Atoi(mr.Port())
			require.NoError(t, err)
			client, err := redis.NewClient(redis.Config{Host: mr.Host(), Port: port}, testLogger())
			require.NoError(t, err)
			t.Cleanup(func() { _ = client.Close() })
			return NewRedisBackend(client)
		},
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	for name, newBackend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("should return the payload written", func(t *testing.T) {
				store := NewStore(newBackend(t), Config{}, clockwork.NewFakeClock(), testLogger())
				store.Write(ctx, testDocs)

				docs, ok := store.Read(ctx)
				require.True(t, ok)
				assert.JSONEq(t, string(testDocs.Merged), string(docs.Merged))
				assert.JSONEq(t, string(testDocs.Wikidata), string(docs.Wikidata))
			})

			t.Run("should preserve agency order", func(t *testing.T) {
				store := NewStore(newBackend(t), Config{}, clockwork.NewFakeClock(), testLogger())
				store.Write(ctx, testDocs)

				docs, ok := store.Read(ctx)
				require.True(t, ok)
				assert.Equal(t, string(testDocs.Merged), string(docs.Merged))
			})

			t.Run("should expire and delete entries past the TTL", func(t *testing.T) {
				backend := newBackend(t)
				clock := clockwork.NewFakeClock()
				store := NewStore(backend, Config{TTL: 24 * time.Hour}, clock, testLogger())
				store.Write(ctx, testDocs)

				clock.Advance(24*time.Hour + time.Millisecond)

				_, ok := store.Read(ctx)
				assert.False(t, ok)

				_, err := backend.Get(ctx, DefaultKey)
				assert.ErrorIs(t, err, ErrNotFound)
				assert.False(t, store.Info(ctx).Exists)
			})

			t.Run("should serve entries just inside the TTL", func(t *testing.T) {
				clock := clockwork.NewFakeClock()
				store := NewStore(newBackend(t), Config{TTL: time.Hour}, clock, testLogger())
				store.Write(ctx, testDocs)

				clock.Advance(59 * time.Minute)

				_, ok := store.Read(ctx)
				assert.True(t, ok)
			})

			t.Run("should treat a corrupt entry as a miss", func(t *testing.T) {
				backend := newBackend(t)
				require.NoError(t, backend.Set(ctx, DefaultKey, []byte(`{"data": `)))
				store := NewStore(backend, Config{}, clockwork.NewFakeClock(), testLogger())

				_, ok := store.Read(ctx)
				assert.False(t, ok)
				assert.Equal(t, models.CacheInfo{Exists: false}, store.Info(ctx))
			})

			t.Run("should treat an entry without both documents as corrupt", func(t *testing.T) {
				backend := newBackend(t)
				require.NoError(t, backend.Set(ctx, DefaultKey, []byte(`{"data": {"merged": {}, "wd": null}, "timestamp": 1}`)))
				store := NewStore(backend, Config{}, clockwork.NewFakeClock(), testLogger())

				_, ok := store.Read(ctx)
				assert.False(t, ok)
			})

			t.Run("should clear the entry", func(t *testing.T) {
				store := NewStore(newBackend(t), Config{}, clockwork.NewFakeClock(), testLogger())
				store.Write(ctx, testDocs)
				store.Clear(ctx)

				_, ok := store.Read(ctx)
				assert.False(t, ok)
			})
		})
	}
}

func TestStore_Info(t *testing.T) {
	ctx := context.Background()

	t.Run("should report nothing for an empty cache", func(t *testing.T) {
		store := NewStore(NewMemoryBackend(), Config{}, clockwork.NewFakeClock(), testLogger())
		info := store.Info(ctx)
		assert.False(t, info.Exists)
		assert.Nil(t, info.AgeHours)
		assert.Nil(t, info.ExpiresInHours)
	})

	t.Run("should report age and remaining hours", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		store := NewStore(NewMemoryBackend(), Config{TTL: 24 * time.Hour}, clock, testLogger())
		store.Write(ctx, testDocs)
		clock.Advance(6 * time.Hour)

		info := store.Info(ctx)
		require.True(t, info.Exists)
		assert.InDelta(t, 6, *info.AgeHours, 0.0001)
		assert.InDelta(t, 18, *info.ExpiresInHours, 0.0001)
	})

	t.Run("should clamp remaining hours of an expired entry without deleting it", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		backend := NewMemoryBackend()
		store := NewStore(backend, Config{TTL: time.Hour}, clock, testLogger())
		store.Write(ctx, testDocs)
		clock.Advance(3 * time.Hour)

		info := store.Info(ctx)
		require.True(t, info.Exists)
		assert.Equal(t, 0.0, *info.ExpiresInHours)

		_, err := backend.Get(ctx, DefaultKey)
		assert.NoError(t, err)
	})

	t.Run("should encode the documented field names", func(t *testing.T) {
		age, left := 1.5, 22.5
		encoded, err := json.Marshal(models.CacheInfo{Exists: true, AgeHours: &age, ExpiresInHours: &left})
		require.NoError(t, err)
		assert.JSONEq(t, `{"exists": true, "ageHours": 1.5, "expiresInHours": 22.5}`, string(encoded))
	})
}

func TestStore_BackendFailures(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&failingBackend{}, Config{}, clockwork.NewFakeClock(), testLogger())

	t.Run("should absorb failures", func(t *testing.T) {
		assert.NotPanics(t, func() {
			store.Write(ctx, testDocs)
			store.Clear(ctx)
		})

		_, ok := store.Read(ctx)
		assert.False(t, ok)
		assert.False(t, store.Info(ctx).Exists)
	})
}

func TestNewBackend(t *testing.T) {
	t.Run("should reject unknown backends", func(t *testing.T) {
		_, err := NewBackend(BackendConfig{Kind: "etcd"}, testLogger())
		assert.Error(t, err)
	})

	t.Run("should create a memory backend", func(t *testing.T) {
		b, err := NewBackend(BackendConfig{Kind: BackendMemory}, testLogger())
		require.NoError(t, err)
		assert.Equal(t, BackendMemory, b.Name())
	})

	t.Run("should write the envelope format", func(t *testing.T) {
		backend := NewMemoryBackend()
		clock := clockwork.NewFakeClockAt(time.UnixMilli(1700000000000))
		NewStore(backend, Config{}, clock, testLogger()).Write(context.Background(), testDocs)

		raw, err := backend.Get(context.Background(), DefaultKey)
		require.NoError(t, err)

		var envelope map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &envelope))
		assert.Equal(t, "1700000000000", string(envelope["timestamp"]))
		assert.Contains(t, envelope, "data")
	})
}

func TestSQLiteBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("should keep entries when the file is reopened", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.db")

		first, err := NewSQLiteBackend(path, testLogger())
		require.NoError(t, err)
		require.NoError(t, first.Set(ctx, "k", []byte("v1")))
		require.NoError(t, first.Set(ctx, "k", []byte("v2")))
		require.NoError(t, first.Close())

		second, err := NewSQLiteBackend(path, testLogger())
		require.NoError(t, err)
		t.Cleanup(func() { _ = second.Close() })

		value, err := second.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), value)

		require.NoError(t, second.Delete(ctx, "k"))
		_, err = second.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
