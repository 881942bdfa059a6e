// Package config reads the storefront's settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR"        envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	SQLitePath     string `env:"SQLITE_PATH"     envDefault:"./data/storefront.db"`
	RedisAddr      string `env:"REDIS_ADDR"      envDefault:"localhost:6379"`
	// SagaLogPath enables the placement audit log when set.
	SagaLogPath string `env:"SAGA_LOG_PATH"`

	OrderLatency      time.Duration `env:"ORDER_LATENCY"       envDefault:"0s"`
	PlaceOrderTimeout time.Duration `env:"PLACE_ORDER_TIMEOUT" envDefault:"10s"`

	OTelEnabled     bool   `env:"OTEL_ENABLED"                envDefault:"false"`
	OTelServiceName string `env:"OTEL_SERVICE_NAME"           envDefault:"storefront"`
	OTelEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelEnvironment string `env:"OTEL_RESOURCE_ATTRIBUTES_ENV" envDefault:"local"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("config: unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.PlaceOrderTimeout <= 0 {
		return fmt.Errorf("config: PLACE_ORDER_TIMEOUT must be positive")
	}
	if c.OrderLatency < 0 {
		return fmt.Errorf("config: ORDER_LATENCY must not be negative")
	}
	return nil
}
