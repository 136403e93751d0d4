// Package redis is the shared cache connection used by the redis cache
// backend.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"
)

const defaultConnectTimeout = 5 * time.Second

// Config describes how to reach the Redis server
type Config struct {
	Host           string
	Port           int
	Password       string
	DB             int
	ConnectTimeout time.Duration
}

// Addr is the host:port the client dials
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Client is a connected Redis client that logs every cache operation at debug
type Client struct {
	rdb    *redis.Client
	addr   string
	logger ectologger.Logger
}

// NewClient dials Redis and fails unless the server answers a ping within
// the connect timeout.
func NewClient(cfg Config, logger ectologger.Logger) (*Client, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	c := &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:        cfg.Addr(),
			Password:    cfg.Password,
			DB:          cfg.DB,
			DialTimeout: timeout,
		}),
		addr:   cfg.Addr(),
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = c.rdb.Close()
		return nil, fmt.Errorf("redis at %s did not answer: %w", c.addr, err)
	}

	logger.WithFields(map[string]any{"addr": c.addr, "db": cfg.DB}).Info("Connected to Redis")
	return c, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get returns the bytes under key. A missing key is reported through IsNil.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case IsNil(err):
		c.logger.WithContext(ctx).Debugf("Redis GET %s: miss", key)
	case err != nil:
		c.logger.WithContext(ctx).WithError(err).Warnf("Redis GET %s failed", key)
	default:
		c.logger.WithContext(ctx).Debugf("Redis GET %s: %d bytes", key, len(value))
	}
	return value, err
}

// Set stores value under key. An expiration of 0 never expires.
func (c *Client) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, expiration).Err(); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warnf("Redis SET %s failed", key)
		return err
	}
	c.logger.WithContext(ctx).Debugf("Redis SET %s: %d bytes", key, len(value))
	return nil
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// IsNil reports whether err means the key was missing
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
