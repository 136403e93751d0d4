package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/Ramsey-B/myndigheter/pkg/context"
)

func newTestClient(cfg Config) *Client {
	return NewClient(cfg, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func TestClient_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("should return body and status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()

		resp, err := newTestClient(DefaultConfig()).Get(ctx, server.URL, map[string]string{"Accept": "application/json"})
		require.NoError(t, err)
		assert.True(t, resp.IsSuccess())
		assert.Equal(t, `{"ok":true}`, string(resp.Body))
		assert.Equal(t, "application/json", resp.ContentType)
	})

	t.Run("should forward the api request id upstream", func(t *testing.T) {
		var got string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Get(RequestIDHeader)
		}))
		defer server.Close()

		reqCtx := appctx.WithRequest(ctx, appctx.Request{ID: "req-42"})
		_, err := newTestClient(DefaultConfig()).Get(reqCtx, server.URL, nil)
		require.NoError(t, err)
		assert.Equal(t, "req-42", got)
	})

	t.Run("should return non-2xx responses without error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		resp, err := newTestClient(DefaultConfig()).Get(ctx, server.URL, nil)
		require.NoError(t, err)
		assert.False(t, resp.IsSuccess())
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("should reject bodies over the size limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// no Content-Length, forces the streaming check
			w.Header().Set("Transfer-Encoding", "chunked")
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.MaxResponseSize = 16
		_, err := newTestClient(cfg).Get(ctx, server.URL, nil)
		assert.ErrorContains(t, err, "too large")
	})

	t.Run("should fail on transport errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := newTestClient(DefaultConfig()).Get(ctx, url, nil)
		assert.ErrorContains(t, err, "request failed")
	})
}
