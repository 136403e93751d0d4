package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"myndigheter-api" validate:"required"`
	Port                          int      `env:"PORT" env-default:"3000" validate:"min=1,max=65535"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"120"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5" validate:"min=1"`

	// Base URL the upstream documents are published under
	DataBaseURL string `env:"DATA_BASE_URL" env-default:"https://raw.githubusercontent.com/civictechsweden/myndighetsdata/master/data" validate:"required,url"`
	// Name of the merged agency document
	DataMergedDocument string `env:"DATA_MERGED_DOCUMENT" env-default:"merged.json" validate:"required"`
	// Name of the Wikidata document
	DataWikidataDocument string `env:"DATA_WIKIDATA_DOCUMENT" env-default:"wd.json" validate:"required"`
	// Outbound request timeout
	HttpClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" env-default:"30s"`

	// Cache backend: memory, sqlite or redis
	CacheBackend string `env:"CACHE_BACKEND" env-default:"sqlite" validate:"oneof=memory sqlite redis"`
	// How long a cached document pair stays valid
	CacheTTL time.Duration `env:"CACHE_TTL" env-default:"24h"`
	// Cache key; bump the version suffix when the envelope format changes
	CacheKey string `env:"CACHE_KEY" env-default:"myndigheter:dataset:v1" validate:"required"`
	// SQLite database file used by the sqlite backend
	CacheSQLitePath string `env:"CACHE_SQLITE_PATH" env-default:"myndigheter-cache.db"`

	// Redis host
	RedisHost string `env:"REDIS_HOST" env-default:"localhost"`
	// Redis port
	RedisPort int `env:"REDIS_PORT" env-default:"6379"`
	// Redis password
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	// Redis database number
	RedisDB int `env:"REDIS_DB" env-default:"0"`

	// Kafka brokers (comma-separated); empty disables refresh events
	KafkaBrokers string `env:"KAFKA_BROKERS" env-default:""`
	// Kafka topic for dataset events
	KafkaEventsTopic string `env:"KAFKA_EVENTS_TOPIC" env-default:"myndigheter-events"`

	// Tracing settings
	// Enable OTLP tracing export (set to true to send traces to collector)
	OTLPEnabled bool `env:"OTLP_ENABLED" env-default:"false"`
	// OTLP collector endpoint
	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	// OTLP protocol (grpc or http)
	OTLPProtocol string `env:"OTLP_PROTOCOL" env-default:"grpc" validate:"oneof=grpc http"`
	// Disable TLS for OTLP (for local development)
	OTLPInsecure bool `env:"OTLP_INSECURE" env-default:"true"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads an optional .env file, then the process environment, and validates the result.
func Load(envFiles ...string) (Config, error) {
	var cfg Config

	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load env file: %w", err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the config against its validate tags.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msg := "invalid config:"
		for _, fe := range verrs {
			msg += fmt.Sprintf("\n • field '%s': rule '%s' expected '%s', got '%v'", fe.StructField(), fe.Tag(), fe.Param(), fe.Value())
		}
		return errors.New(msg)
	}

	return err
}

// Address returns the listen address for the HTTP server.
func (c Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}
