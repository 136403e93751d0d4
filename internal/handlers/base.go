package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/myndigheter/pkg/fetcher"
	"github.com/labstack/echo/v4"
)

// SuccessResponse returns a 200 OK with data
func SuccessResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

// NoContentResponse returns a 204 No Content
func NoContentResponse(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// NotFound returns a 404 Not Found error
func NotFound(message string) error {
	return httperror.NewHTTPError(http.StatusNotFound, message)
}

// LoadError maps a dataset load failure to an API error. Upstream failures
// become 502 Bad Gateway with the upstream details in meta.
func LoadError(err error) error {
	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		herr := httperror.NewHTTPErrorf(http.StatusBadGateway, "failed to load agency data: %s", fetchErr.Error()).
			AddMetaValue("document", fetchErr.Document)
		if fetchErr.Status != 0 {
			herr.AddMetaValue("upstream_status", strconv.Itoa(fetchErr.Status))
		}
		return herr
	}

	var parseErr *fetcher.ParseError
	if errors.As(err, &parseErr) {
		return httperror.NewHTTPErrorf(http.StatusBadGateway, "failed to load agency data: %s", parseErr.Error()).
			AddMetaValue("document", parseErr.Document)
	}

	if httperror.IsHTTPError(err) {
		return err
	}
	return httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to load agency data: %s", err.Error())
}

func queryBool(c echo.Context, name string) bool {
	switch c.QueryParam(name) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
