package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all configuration for the content module.
type Config struct {
	DatabaseName string `env:"CONTENT_DATABASE_NAME" envDefault:"gogfather_content"`

	// AtomicFeature selects the single-bulk-write mode for the featured-photo
	// toggle instead of the default two-phase sequence.
	AtomicFeature bool `env:"CONTENT_ATOMIC_FEATURE" envDefault:"false"`

	// EventHistoryEnabled turns on the Redis Streams event history store.
	EventHistoryEnabled bool `env:"CONTENT_EVENT_HISTORY" envDefault:"true"`

	// EventRetention bounds how long event history is kept before trimming.
	EventRetention time.Duration `env:"CONTENT_EVENT_RETENTION" envDefault:"168h"`

	Redis RedisConfig
}

// RedisConfig configures the event history backend.
type RedisConfig struct {
	Host         string `env:"REDIS_HOST" envDefault:"localhost"`
	Port         string `env:"REDIS_PORT" envDefault:"6379"`
	Password     string `env:"REDIS_PASSWORD" envDefault:""`
	Database     int    `env:"REDIS_DATABASE" envDefault:"0"`
	MaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	PoolSize     int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	EnableTLS    bool   `env:"REDIS_ENABLE_TLS" envDefault:"false"`
}

// Addr returns host:port for the Redis client.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// LoadConfig loads configuration from environment variables and applies
// defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load content configuration from environment: %w", err)
	}
	return cfg, nil
}
