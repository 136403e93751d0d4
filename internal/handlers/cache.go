package handlers

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/myndigheter/pkg/models"
	"github.com/Ramsey-B/myndigheter/pkg/tracing"
)

// CacheStore is the part of the cache store the API uses
type CacheStore interface {
	Info(ctx context.Context) models.CacheInfo
	Clear(ctx context.Context)
}

// CacheHandler handles cache API endpoints
type CacheHandler struct {
	store  CacheStore
	logger ectologger.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(store CacheStore, logger ectologger.Logger) *CacheHandler {
	return &CacheHandler{
		store:  store,
		logger: logger,
	}
}

// Register registers cache routes
func (h *CacheHandler) Register(g *echo.Group) {
	g.GET("", h.Info)
	g.DELETE("", h.Clear)
}

// Info describes the cached entry without touching it
func (h *CacheHandler) Info(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.Info")
	defer span.End()

	return SuccessResponse(c, h.store.Info(ctx))
}

// Clear removes the cached entry. Loaded records are not affected.
func (h *CacheHandler) Clear(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.Clear")
	defer span.End()

	h.logger.WithContext(ctx).Info("Clearing cache")
	h.store.Clear(ctx)
	return NoContentResponse(c)
}
