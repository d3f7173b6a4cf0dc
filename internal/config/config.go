// Package config provides configuration management for pathofgreatness.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
)

// Defaults for values without an environment override.
const (
	DefaultModel   = "anthropic/claude-3-haiku"
	DefaultBaseURL = "https://openrouter.ai/api/v1"
)

// Config holds all runtime configuration, populated from the environment.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8000"`
	DBPath     string `env:"DB_PATH" envDefault:"data/journey.db"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// Generation backend.
	OpenRouterAPIKey  string        `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string        `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	Model             string        `env:"OPENROUTER_MODEL" envDefault:"anthropic/claude-3-haiku"`
	GatewayTimeout    time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"90s"`
	GatewayMaxRetries int           `env:"GATEWAY_MAX_RETRIES" envDefault:"3"`

	// Optional YAML file overriding model pricing; watched for changes.
	PricingFile string `env:"PRICING_FILE"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the process-wide configuration, loading it on first use.
// A parse failure falls back to defaults so callers always get a usable value.
func Get() *Config {
	once.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = &Config{
				ListenAddr:        ":8000",
				DBPath:            "data/journey.db",
				LogLevel:          "info",
				OpenRouterBaseURL: DefaultBaseURL,
				Model:             DefaultModel,
				GatewayTimeout:    90 * time.Second,
				GatewayMaxRetries: 3,
			}
		}
		instance = cfg
	})
	return instance
}
