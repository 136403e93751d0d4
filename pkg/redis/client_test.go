package redis

import (
	"context"
	"strconv"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	client, err := NewClient(Config{Host: mr.Host(), Port: port}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("should round-trip bytes", func(t *testing.T) {
		client := newTestClient(t)
		require.NoError(t, client.Set(ctx, "k", []byte(`{"a":1}`), 0))

		got, err := client.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(got))

		exists, err := client.Exists(ctx, "k")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("should report missing keys as nil", func(t *testing.T) {
		client := newTestClient(t)
		_, err := client.Get(ctx, "missing")
		assert.True(t, IsNil(err))
	})

	t.Run("should delete keys", func(t *testing.T) {
		client := newTestClient(t)
		require.NoError(t, client.Set(ctx, "k", []byte("v"), 0))
		require.NoError(t, client.Del(ctx, "k"))

		exists, err := client.Exists(ctx, "k")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("should fail to connect to an unreachable server", func(t *testing.T) {
		logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
		_, err := NewClient(Config{Host: "127.0.0.1", Port: 1}, logger)
		assert.Error(t, err)
	})
}
