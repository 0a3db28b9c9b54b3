package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. It is loaded once at startup
// and passed explicitly to every component; there are no built-in credentials.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Poller  PollerConfig  `yaml:"poller"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Port            int             `yaml:"port" env:"STRATOFI_PORT"`
	AllowedOrigins  []string        `yaml:"allowed_origins" env:"STRATOFI_ALLOWED_ORIGINS"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	StreamInterval  time.Duration   `yaml:"stream_interval" env:"STRATOFI_STREAM_INTERVAL"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" env:"STRATOFI_SHUTDOWN_TIMEOUT"`
}

// RateLimitConfig is applied per client address. Zero values take the
// defaults; set Disabled to turn limiting off.
type RateLimitConfig struct {
	Disabled          bool    `yaml:"disabled" env:"STRATOFI_RATE_LIMIT_DISABLED"`
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"STRATOFI_RATE_LIMIT_RPS"`
	Burst             int     `yaml:"burst" env:"STRATOFI_RATE_LIMIT_BURST"`
}

type OracleConfig struct {
	BaseURL        string        `yaml:"base_url" env:"STRATOFI_ORACLE_URL"`
	APIKey         string        `yaml:"api_key" env:"STRATOFI_ORACLE_API_KEY"`
	UserAgent      string        `yaml:"user_agent" env:"STRATOFI_ORACLE_USER_AGENT"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"STRATOFI_ORACLE_REQUEST_TIMEOUT"`
	FanoutTimeout  time.Duration `yaml:"fanout_timeout" env:"STRATOFI_ORACLE_FANOUT_TIMEOUT"`
}

type PollerConfig struct {
	BaseURL string        `yaml:"base_url" env:"STRATOFI_POLLER_URL"`
	Vaults  RefreshPolicy `yaml:"vaults"`
	Stats   RefreshPolicy `yaml:"stats"`
}

// RefreshPolicy controls how often a polled resource is refetched and when
// a cached value stops being fresh.
type RefreshPolicy struct {
	RefetchInterval time.Duration `yaml:"refetch_interval"`
	StaleTime       time.Duration `yaml:"stale_time"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" env:"STRATOFI_LOG_LEVEL"`
	Encoding string `yaml:"encoding" env:"STRATOFI_LOG_ENCODING"`
}

const DefaultUserAgent = "StratoFi-DeFi-Platform/1.0"

// Load reads the YAML file at path (if it exists), then applies .env and
// environment overrides and fills defaults. Validation is left to the caller
// because the server and the poller require different keys.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// environment-only configuration
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills every unset optional value.
func (c *Config) ApplyDefaults() {
	if c.Server.StreamInterval == 0 {
		c.Server.StreamInterval = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.RateLimit.RequestsPerSecond == 0 {
		c.Server.RateLimit.RequestsPerSecond = 20
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 40
	}
	if c.Oracle.UserAgent == "" {
		c.Oracle.UserAgent = DefaultUserAgent
	}
	if c.Oracle.RequestTimeout == 0 {
		c.Oracle.RequestTimeout = 5 * time.Second
	}
	if c.Oracle.FanoutTimeout == 0 {
		c.Oracle.FanoutTimeout = 8 * time.Second
	}
	if c.Poller.Vaults.RefetchInterval == 0 {
		c.Poller.Vaults.RefetchInterval = 30 * time.Second
	}
	if c.Poller.Vaults.StaleTime == 0 {
		c.Poller.Vaults.StaleTime = 15 * time.Second
	}
	if c.Poller.Stats.RefetchInterval == 0 {
		c.Poller.Stats.RefetchInterval = 60 * time.Second
	}
	if c.Poller.Stats.StaleTime == 0 {
		c.Poller.Stats.StaleTime = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = "json"
	}
}

// ValidateServer checks the keys needed to run the HTTP API.
func (c *Config) ValidateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", c.Server.Port)
	}
	if c.Oracle.BaseURL == "" {
		return fmt.Errorf("oracle.base_url is required")
	}
	if c.Oracle.RequestTimeout < 0 || c.Oracle.FanoutTimeout < 0 {
		return fmt.Errorf("oracle timeouts must be positive")
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 || c.Server.RateLimit.Burst < 0 {
		return fmt.Errorf("server.rate_limit must be non-negative")
	}
	return nil
}

// ValidatePoller checks the keys needed to run the polling client.
func (c *Config) ValidatePoller() error {
	if c.Poller.BaseURL == "" {
		return fmt.Errorf("poller.base_url is required")
	}
	for name, p := range map[string]RefreshPolicy{"vaults": c.Poller.Vaults, "stats": c.Poller.Stats} {
		if p.RefetchInterval <= 0 {
			return fmt.Errorf("poller.%s.refetch_interval must be positive, got: %s", name, p.RefetchInterval)
		}
		if p.StaleTime < 0 || p.StaleTime > p.RefetchInterval {
			return fmt.Errorf("poller.%s.stale_time must be between 0 and refetch_interval, got: %s", name, p.StaleTime)
		}
	}
	return nil
}
