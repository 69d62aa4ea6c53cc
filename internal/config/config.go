// Package config provides configuration loading for the auction client.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the client configuration.
type Config struct {
	// Server endpoints
	Server ServerConfig `yaml:"server"`

	// Auth settings
	Auth AuthConfig `yaml:"auth"`

	// Push-feed reconnection settings
	Realtime RealtimeConfig `yaml:"realtime"`

	// Event journal settings
	Journal JournalConfig `yaml:"journal"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains the marketplace endpoints.
type ServerConfig struct {
	// REST base URL
	BaseURL string `yaml:"base_url"`

	// Push-feed websocket URL
	WSURL string `yaml:"ws_url"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	// Environment variable holding the bearer token. The token itself
	// never lives in the config file.
	TokenEnv string `yaml:"token_env"`
}

// Token resolves the bearer token from the environment, if any.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// RealtimeConfig contains push-feed reconnection settings.
type RealtimeConfig struct {
	// Initial reconnection backoff
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// Maximum reconnection backoff
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// Backoff multiplier
	BackoffFactor float64 `yaml:"backoff_factor"`

	// Consecutive failed attempts before giving up
	MaxAttempts int `yaml:"max_attempts"`
}

// JournalConfig contains event journal settings.
type JournalConfig struct {
	// Journal type: "file" or "none"
	Type string `yaml:"type"`

	// Output directory for file journals
	OutputDir string `yaml:"output_dir"`

	// File rotation interval
	RotationInterval time.Duration `yaml:"rotation_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `yaml:"level"`

	// Log format: console or json
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:5000/api",
			WSURL:   "ws://localhost:5000/auction-hub",
		},
		Auth: AuthConfig{
			TokenEnv: "AUCTION_TOKEN",
		},
		Realtime: RealtimeConfig{
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			BackoffFactor:  2.0,
			MaxAttempts:    5,
		},
		Journal: JournalConfig{
			Type:             "none",
			OutputDir:        "data",
			RotationInterval: 1 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url required")
	}
	if c.Server.WSURL == "" {
		return fmt.Errorf("server.ws_url required")
	}
	if c.Realtime.BackoffFactor < 1.0 {
		return fmt.Errorf("realtime.backoff_factor must be >= 1.0, got %v", c.Realtime.BackoffFactor)
	}
	if c.Realtime.MaxAttempts <= 0 {
		return fmt.Errorf("realtime.max_attempts must be positive, got %d", c.Realtime.MaxAttempts)
	}
	if c.Journal.Type != "file" && c.Journal.Type != "none" {
		return fmt.Errorf("invalid journal type: %s", c.Journal.Type)
	}
	if c.Journal.Type == "file" && c.Journal.OutputDir == "" {
		return fmt.Errorf("output_dir required for file journal")
	}
	return nil
}
