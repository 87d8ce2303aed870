// Package config loads environment-driven configuration for both binaries.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// TransportKind selects the queue transport implementation. The set is
// closed: unknown values are rejected at startup, not at first use.
type TransportKind string

const (
	// TransportLocal is the Redis-list backed queue: at-most-once, FIFO,
	// for local development only.
	TransportLocal TransportKind = "local"
	// TransportManaged is the SQS-backed queue: at-least-once with
	// visibility-timeout redelivery.
	TransportManaged TransportKind = "managed"
)

type HTTPConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8080"`
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type QueueConfig struct {
	Transport TransportKind `env:"TRANSPORT" envDefault:"local"`
	// Name is the logical queue the producer and consumer agree on.
	Name string `env:"NAME" envDefault:"orders"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type SQSConfig struct {
	// QueueURL is required when the managed transport is selected;
	// construction fails without it.
	QueueURL string `env:"QUEUE_URL"`
	Region   string `env:"REGION" envDefault:"us-east-1"`
	// Endpoint overrides the service endpoint for local emulation
	// (e.g. localstack).
	Endpoint string        `env:"ENDPOINT"`
	WaitTime time.Duration `env:"WAIT_TIME" envDefault:"10s"`
}

type ObservabilityConfig struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"observability"`
	ServiceEnv  string `env:"SERVICE_ENV" envDefault:"development"`
	// e.g. "otel-collector:4317"
	OtelEndpoint string `env:"EXPORTER_OTLP_ENDPOINT"`
}

type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`

	HTTP          HTTPConfig          `envPrefix:"HTTP_"`
	Queue         QueueConfig         `envPrefix:"QUEUE_"`
	Redis         RedisConfig         `envPrefix:"REDIS_"`
	SQS           SQSConfig           `envPrefix:"SQS_"`
	Observability ObservabilityConfig `envPrefix:"OTEL_"`
}

// Load parses configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
