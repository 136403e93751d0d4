package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/myndigheter/pkg/tracing"
)

// DatasetHandler exposes the facade state and the raw documents behind it
type DatasetHandler struct {
	service DatasetService
	logger  ectologger.Logger
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DatasetService, logger ectologger.Logger) *DatasetHandler {
	return &DatasetHandler{
		service: service,
		logger:  logger,
	}
}

// Register registers dataset routes
func (h *DatasetHandler) Register(g *echo.Group) {
	g.GET("/state", h.State)
	g.GET("/documents", h.Documents)
}

// State returns the loading state of the facade
func (h *DatasetHandler) State(c echo.Context) error {
	return SuccessResponse(c, h.service.Snapshot())
}

// Documents returns the raw document pair currently loaded
func (h *DatasetHandler) Documents(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "DatasetHandler.Documents")
	defer span.End()

	snap := h.service.Snapshot()
	if snap.Documents == nil {
		h.logger.WithContext(ctx).WithField("state", string(snap.State)).Debug("No documents loaded")
		return NotFound("no documents loaded")
	}
	return SuccessResponse(c, snap.Documents)
}
