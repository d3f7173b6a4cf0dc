// Package config provides configuration management for pathofgreatness.
package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// ConfigSuite is a test suite for config operations.
type ConfigSuite struct {
	suite.Suite
	saved map[string]string
}

var configVars = []string{
	"LISTEN_ADDR", "DB_PATH", "LOG_LEVEL",
	"OPENROUTER_API_KEY", "OPENROUTER_BASE_URL", "OPENROUTER_MODEL",
	"GATEWAY_TIMEOUT", "GATEWAY_MAX_RETRIES", "PRICING_FILE",
}

func (s *ConfigSuite) SetupTest() {
	s.saved = make(map[string]string)
	for _, key := range configVars {
		s.saved[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
}

func (s *ConfigSuite) TearDownTest() {
	for key, value := range s.saved {
		if value == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, value)
		}
	}
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

// TestDefaults tests default configuration values.
func (s *ConfigSuite) TestDefaults() {
	cfg, err := Load()
	s.Require().NoError(err)

	s.Equal(":8000", cfg.ListenAddr)
	s.Equal("data/journey.db", cfg.DBPath)
	s.Equal("info", cfg.LogLevel)
	s.Equal(DefaultBaseURL, cfg.OpenRouterBaseURL)
	s.Equal(DefaultModel, cfg.Model)
	s.Equal(90*time.Second, cfg.GatewayTimeout)
	s.Equal(3, cfg.GatewayMaxRetries)
	s.Empty(cfg.PricingFile)
}

// TestEnvOverrides tests that environment variables take precedence.
func (s *ConfigSuite) TestEnvOverrides() {
	os.Setenv("LISTEN_ADDR", ":9100")
	os.Setenv("OPENROUTER_MODEL", "anthropic/claude-3.5-sonnet")
	os.Setenv("GATEWAY_TIMEOUT", "15s")
	os.Setenv("GATEWAY_MAX_RETRIES", "5")

	cfg, err := Load()
	s.Require().NoError(err)

	s.Equal(":9100", cfg.ListenAddr)
	s.Equal("anthropic/claude-3.5-sonnet", cfg.Model)
	s.Equal(15*time.Second, cfg.GatewayTimeout)
	s.Equal(5, cfg.GatewayMaxRetries)
}

// TestGetMemoizes tests that Get returns the same instance.
func (s *ConfigSuite) TestGetMemoizes() {
	first := Get()
	second := Get()
	s.Same(first, second)
}
