// Package cache persists the raw upstream document pair with a freshness window.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/myndigheter/pkg/redis"
)

// ErrNotFound is returned by a Backend when no value is stored under a key
var ErrNotFound = errors.New("cache entry not found")

// Backend names
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Backend is a byte-oriented key/value store
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// BackendConfig selects and configures a Backend
type BackendConfig struct {
	Kind       string
	SQLitePath string
	Redis      redis.Config
}

// NewBackend creates the backend named by cfg.Kind
func NewBackend(cfg BackendConfig, logger ectologger.Logger) (Backend, error) {
	switch cfg.Kind {
	case BackendMemory:
		return NewMemoryBackend(), nil
	case BackendSQLite, "":
		return NewSQLiteBackend(cfg.SQLitePath, logger)
	case BackendRedis:
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		return NewRedisBackend(client), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Kind)
	}
}
