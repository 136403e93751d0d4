// Package app wires the service together from config and starts its
// dependencies in order.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/myndigheter/config"
	"github.com/Ramsey-B/myndigheter/internal/server"
	"github.com/Ramsey-B/myndigheter/pkg/cache"
	"github.com/Ramsey-B/myndigheter/pkg/dataset"
	"github.com/Ramsey-B/myndigheter/pkg/events"
	"github.com/Ramsey-B/myndigheter/pkg/fetcher"
	"github.com/Ramsey-B/myndigheter/pkg/health"
	"github.com/Ramsey-B/myndigheter/pkg/httpclient"
	"github.com/Ramsey-B/myndigheter/pkg/kafka"
	"github.com/Ramsey-B/myndigheter/pkg/merging"
	"github.com/Ramsey-B/myndigheter/pkg/redis"
	"github.com/Ramsey-B/myndigheter/pkg/startup"
	"github.com/Ramsey-B/myndigheter/pkg/tracing"
	"github.com/Ramsey-B/myndigheter/pkg/tracing/exporters"
)

// Version is reported by the health endpoints
var Version = "dev"

// Dependency names
const (
	DependencyTracing = "tracing"
	DependencyCache   = "cache"
	DependencyKafka   = "kafka"
	DependencyDataset = "dataset"
	DependencyServer  = "server"
)

// App holds the wired service. Fields are populated as dependencies start.
type App struct {
	Config  config.Config
	Logger  ectologger.Logger
	Checker *health.Checker

	Store   *cache.Store
	Dataset *dataset.Service
	Server  *server.Server

	backend  cache.Backend
	producer *kafka.Producer
	provider *tracing.Provider
	client   *httpclient.Client
	startup  *startup.Startup
}

// New registers the core dependencies. Nothing is started until Start.
func New(cfg config.Config, logger ectologger.Logger) *App {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Checker: health.NewChecker(Version),
		startup: startup.NewStartup(logger, cfg.StartupMaxAttempts),
	}

	a.startup.AddDependency(&dependency{
		name:  DependencyTracing,
		start: a.startTracing,
		stop: func(ctx context.Context) error {
			return a.provider.Shutdown(ctx)
		},
	})
	a.startup.AddDependency(&dependency{
		name:  DependencyCache,
		start: a.startCache,
		stop: func(context.Context) error {
			if a.backend == nil {
				return nil
			}
			return a.backend.Close()
		},
	})
	a.startup.AddDependency(&dependency{
		name:  DependencyKafka,
		start: a.startKafka,
		stop: func(context.Context) error {
			if a.producer == nil {
				return nil
			}
			return a.producer.Close()
		},
	})
	a.startup.AddDependency(&dependency{
		name:      DependencyDataset,
		dependsOn: []string{DependencyTracing, DependencyCache, DependencyKafka},
		start:     a.startDataset,
		stop: func(context.Context) error {
			if a.client != nil {
				a.client.CloseIdleConnections()
			}
			return nil
		},
	})

	return a
}

// Start starts every registered dependency
func (a *App) Start(ctx context.Context) error {
	return a.startup.Start(ctx)
}

// Stop stops started dependencies in reverse order
func (a *App) Stop(ctx context.Context) error {
	return a.startup.Stop(ctx)
}

// Serve starts the dependencies plus the HTTP server and blocks until ctx is
// done or the server fails.
func (a *App) Serve(ctx context.Context) error {
	serveErr := make(chan error, 1)

	a.startup.AddDependency(&dependency{
		name:      DependencyServer,
		dependsOn: []string{DependencyDataset},
		start: func(context.Context) error {
			a.Server = server.New(a.Config, a.Dataset, a.Store, a.Checker, a.Logger)
			go func() {
				serveErr <- a.Server.Start()
			}()
			return nil
		},
		stop: func(ctx context.Context) error {
			return a.Server.Shutdown(ctx)
		},
	})

	if err := a.Start(ctx); err != nil {
		_ = a.Stop(context.Background())
		return err
	}
	a.Checker.SetReady(true)

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if err != nil {
			a.Logger.WithError(err).Error("HTTP server failed")
		}
	}

	a.Checker.SetReady(false)
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if stopErr := a.Stop(stopCtx); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}

func (a *App) startTracing(ctx context.Context) error {
	provider, err := tracing.Setup(ctx, a.Config.AppName, a.Config.OTLPEnabled, exporters.OTLPConfig{
		Endpoint: a.Config.OTLPEndpoint,
		Protocol: a.Config.OTLPProtocol,
		Insecure: a.Config.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	a.provider = provider
	return nil
}

func (a *App) startCache(ctx context.Context) error {
	backend, err := cache.NewBackend(cache.BackendConfig{
		Kind:       a.Config.CacheBackend,
		SQLitePath: a.Config.CacheSQLitePath,
		Redis: redis.Config{
			Host:     a.Config.RedisHost,
			Port:     a.Config.RedisPort,
			Password: a.Config.RedisPassword,
			DB:       a.Config.RedisDB,
		},
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open %s cache backend: %w", a.Config.CacheBackend, err)
	}
	if err := backend.Ping(ctx); err != nil {
		_ = backend.Close()
		return fmt.Errorf("%s cache backend is unreachable: %w", backend.Name(), err)
	}

	a.backend = backend
	a.Store = cache.NewStore(backend, cache.Config{
		Key: a.Config.CacheKey,
		TTL: a.Config.CacheTTL,
	}, nil, a.Logger)

	a.Checker.AddCheck("cache", backend.Ping)
	return nil
}

func (a *App) startKafka(context.Context) error {
	brokers := splitList(a.Config.KafkaBrokers)
	if len(brokers) == 0 {
		a.Logger.Debug("No Kafka brokers configured, refresh events are disabled")
		return nil
	}

	a.producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers: brokers,
		Topic:   a.Config.KafkaEventsTopic,
	}, a.Logger)
	a.Logger.WithFields(map[string]any{
		"brokers": brokers,
		"topic":   a.Config.KafkaEventsTopic,
	}).Info("Kafka producer created")
	return nil
}

func (a *App) startDataset(context.Context) error {
	engine, err := merging.NewEngine(a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create merge engine: %w", err)
	}

	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = a.Config.HttpClientTimeout
	a.client = httpclient.NewClient(clientCfg, a.Logger)

	f := fetcher.New(a.client, fetcher.Config{
		BaseURL:          a.Config.DataBaseURL,
		MergedDocument:   a.Config.DataMergedDocument,
		WikidataDocument: a.Config.DataWikidataDocument,
	}, a.Logger)

	a.Dataset = dataset.NewService(
		a.Store,
		fetcher.NewSilentStrategy(f, a.Store),
		fetcher.NewProgressStrategy(f, a.Store),
		engine,
		a.Logger,
	)
	if a.producer != nil {
		a.Dataset.SetPublisher(events.NewEmitter(a.producer, nil, a.Logger))
	}

	a.Checker.AddDegradedCheck("dataset", func() (bool, string) {
		snap := a.Dataset.Snapshot()
		if snap.State == dataset.StateError {
			return true, snap.Error
		}
		return false, ""
	})
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// dependency adapts start and stop funcs to startup.StartupDependency
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string                 { return d.name }
func (d *dependency) DependsOn() []string             { return d.dependsOn }
func (d *dependency) Start(ctx context.Context) error { return d.start(ctx) }
func (d *dependency) Stop(ctx context.Context) error  { return d.stop(ctx) }
