package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/myndigheter/pkg/context"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho(logged *[]ectologger.EctoLogMessage) *echo.Echo {
	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		if logged != nil {
			*logged = append(*logged, msg)
		}
	})

	e := echo.New()
	e.HTTPErrorHandler = Error(logger)
	e.Use(Context())
	e.Use(Logger(logger))

	e.GET("/ok", func(c echo.Context) error {
		return c.String(http.StatusOK, context.GetRequestID(c.Request().Context()))
	})
	e.GET("/missing", func(c echo.Context) error {
		return httperror.NewHTTPError(http.StatusNotFound, "agency not found").AddMetaValue("name", "x")
	})
	e.GET("/wrapped", func(c echo.Context) error {
		return fmt.Errorf("refresh: %w", httperror.NewHTTPError(http.StatusBadGateway, "failed to fetch wd.json"))
	})
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("boom")
	})
	return e
}

func serve(e *echo.Echo, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestContext(t *testing.T) {
	t.Run("should generate a request id and echo it back", func(t *testing.T) {
		rec := serve(newEcho(nil), "/ok", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		id := rec.Header().Get(echo.HeaderXRequestID)
		assert.NotEmpty(t, id)
		assert.Equal(t, id, rec.Body.String())
	})

	t.Run("should keep a caller supplied request id", func(t *testing.T) {
		rec := serve(newEcho(nil), "/ok", map[string]string{echo.HeaderXRequestID: "req-1"})

		assert.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))
		assert.Equal(t, "req-1", rec.Body.String())
	})
}

func TestError(t *testing.T) {
	t.Run("should render http errors with meta and the request id", func(t *testing.T) {
		rec := serve(newEcho(nil), "/missing", map[string]string{echo.HeaderXRequestID: "req-2"})

		require.Equal(t, http.StatusNotFound, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "agency not found", body.Message)
		assert.Equal(t, "req-2", body.RequestID)
		assert.Equal(t, "x", body.Meta["name"])
	})

	t.Run("should render a wrapped http error without the status prefix", func(t *testing.T) {
		rec := serve(newEcho(nil), "/wrapped", nil)

		require.Equal(t, http.StatusBadGateway, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "failed to fetch wd.json", body.Message)
	})

	t.Run("should hide unexpected errors behind a 500", func(t *testing.T) {
		rec := serve(newEcho(nil), "/boom", nil)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Internal Server Error", body.Message)
	})

	t.Run("should pass through echo errors", func(t *testing.T) {
		rec := serve(newEcho(nil), "/nowhere", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestLogger(t *testing.T) {
	t.Run("should log each request", func(t *testing.T) {
		var logged []ectologger.EctoLogMessage
		e := newEcho(&logged)

		rec := serve(e, "/ok", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, logged)
	})
}
