// Package server assembles the echo API: middleware, health, metrics and
// the /api/v1 routes.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/myndigheter/config"
	"github.com/Ramsey-B/myndigheter/internal/handlers"
	"github.com/Ramsey-B/myndigheter/pkg/health"
	"github.com/Ramsey-B/myndigheter/pkg/middleware"
)

// Server is the HTTP API
type Server struct {
	echo   *echo.Echo
	http   *http.Server
	logger ectologger.Logger
}

// New builds the API over the dataset facade and the cache store
func New(cfg config.Config, dataset handlers.DatasetService, cache handlers.CacheStore, checker *health.Checker, logger ectologger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomw.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	handlers.NewAgencyHandler(dataset, logger).Register(api.Group("/agencies"))
	handlers.NewDatasetHandler(dataset, logger).Register(api)
	handlers.NewCacheHandler(cache, logger).Register(api.Group("/cache"))

	return &Server{
		echo: e,
		http: &http.Server{
			Addr:              cfg.Address(),
			Handler:           e,
			ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
			WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
			IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
			ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
			MaxHeaderBytes:    cfg.MaxHeaderBytes,
		},
		logger: logger,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	s.logger.WithField("addr", s.http.Addr).Info("Starting HTTP server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}
