package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequest(t *testing.T) {
	t.Run("should return stored request metadata", func(t *testing.T) {
		ctx := WithRequest(context.Background(), Request{
			ID:       "req-1",
			Method:   "GET",
			Path:     "/api/v1/agencies",
			RemoteIP: "10.0.0.1",
		})

		assert.Equal(t, "req-1", GetRequestID(ctx))
		assert.Equal(t, "GET", GetMethod(ctx))
		assert.Equal(t, "/api/v1/agencies", GetPath(ctx))
		assert.Equal(t, "10.0.0.1", GetRemoteIP(ctx))
	})

	t.Run("should return empty values without a request", func(t *testing.T) {
		_, ok := FromContext(context.Background())
		assert.False(t, ok)
		assert.Empty(t, GetRequestID(context.Background()))
	})
}
