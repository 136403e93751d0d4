package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/myndigheter/pkg/dataset"
	"github.com/Ramsey-B/myndigheter/pkg/fetcher"
	"github.com/Ramsey-B/myndigheter/pkg/models"
	"github.com/Ramsey-B/myndigheter/pkg/tracing"
)

// DatasetService is the part of the dataset facade the API uses
type DatasetService interface {
	Load(ctx context.Context, forceRefresh bool) (*dataset.Result, error)
	LoadWithProgress(ctx context.Context, forceRefresh bool, progress fetcher.ProgressFunc) (*dataset.Result, error)
	Snapshot() dataset.Snapshot
	Find(name string) (models.Agency, bool)
}

// AgencyHandler handles agency API endpoints
type AgencyHandler struct {
	service DatasetService
	logger  ectologger.Logger
}

// NewAgencyHandler creates a new agency handler
func NewAgencyHandler(service DatasetService, logger ectologger.Logger) *AgencyHandler {
	return &AgencyHandler{
		service: service,
		logger:  logger,
	}
}

// AgencyListResponse is the body of the agency list endpoints
type AgencyListResponse struct {
	Agencies  []models.Agency `json:"agencies"`
	Count     int             `json:"count"`
	FromCache bool            `json:"from_cache"`
}

// ProgressEvent is the payload of a progress server-sent event
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// Register registers agency routes
func (h *AgencyHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("/refresh", h.Refresh)
	g.GET("/refresh/stream", h.RefreshStream)
	g.GET("/:name", h.Get)
}

// List returns all agencies, loading them on the first call.
// ?refresh=true forces a refetch and ?active=true drops agencies with an end date.
func (h *AgencyHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AgencyHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	records, fromCache, err := h.records(ctx, queryBool(c, "refresh"))
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to load agencies")
		return LoadError(err)
	}

	if queryBool(c, "active") {
		records = ectolinq.Filter(records, func(a models.Agency) bool {
			return a.IsActive()
		})
	}

	return SuccessResponse(c, newAgencyList(records, fromCache))
}

// Get returns one agency by case-insensitive name
func (h *AgencyHandler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AgencyHandler.Get")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	name := c.Param("name")
	if name == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	if h.service.Snapshot().State != dataset.StateReady {
		if _, _, err := h.records(ctx, false); err != nil {
			h.logger.WithContext(ctx).WithError(err).Error("Failed to load agencies")
			return LoadError(err)
		}
	}

	agency, ok := h.service.Find(name)
	if !ok {
		return NotFound(fmt.Sprintf("agency %q not found", name))
	}
	return SuccessResponse(c, agency)
}

// Refresh clears the cache and reloads from upstream
func (h *AgencyHandler) Refresh(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AgencyHandler.Refresh")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	result, err := h.service.Load(ctx, true)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to refresh agencies")
		return LoadError(err)
	}

	return SuccessResponse(c, newAgencyList(result.Records, result.FromCache))
}

// RefreshStream loads with progress reporting and streams it as server-sent
// events. The stream ends with a done event carrying the record count or an
// error event carrying the message.
func (h *AgencyHandler) RefreshStream(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AgencyHandler.RefreshStream")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	log := h.logger.WithContext(ctx)

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	stream := &eventStream{resp: resp}

	result, err := h.service.LoadWithProgress(ctx, queryBool(c, "force"), func(percent int, message string) {
		if werr := stream.send("progress", ProgressEvent{Percent: percent, Message: message}); werr != nil {
			log.WithError(werr).Debug("Failed to write progress event")
		}
	})
	if err != nil {
		log.WithError(err).Error("Failed to refresh agencies")
		herr := httperror.ToHTTPError(LoadError(err))
		return stream.send("error", map[string]any{
			"message": herr.Message,
			"meta":    herr.Meta,
		})
	}

	return stream.send("done", map[string]any{
		"count":      len(result.Records),
		"from_cache": result.FromCache,
	})
}

// records serves the ready snapshot unless a refresh is requested or nothing is loaded yet
func (h *AgencyHandler) records(ctx context.Context, refresh bool) ([]models.Agency, bool, error) {
	if !refresh {
		snap := h.service.Snapshot()
		if snap.State == dataset.StateReady {
			return snap.Records, snap.FromCache, nil
		}
	}

	result, err := h.service.Load(ctx, refresh)
	if err != nil {
		return nil, false, err
	}
	return result.Records, result.FromCache, nil
}

func newAgencyList(records []models.Agency, fromCache bool) AgencyListResponse {
	if records == nil {
		records = []models.Agency{}
	}
	return AgencyListResponse{
		Agencies:  records,
		Count:     len(records),
		FromCache: fromCache,
	}
}

type eventStream struct {
	resp *echo.Response
}

func (s *eventStream) send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(s.resp, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.resp.Flush()
	return nil
}
