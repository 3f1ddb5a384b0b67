// Package config handles TOML configuration loading with environment
// variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	API     APIConfig     `toml:"api"`
	Poll    PollConfig    `toml:"poll"`
	Fetch   FetchConfig   `toml:"fetch"`
	History HistoryConfig `toml:"history"`
	Log     LogConfig     `toml:"log"`
}

type APIConfig struct {
	URL string `toml:"url"`
}

type PollConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
	MaxAttempts     int `toml:"max_attempts"`
}

type FetchConfig struct {
	Strategy    string  `toml:"strategy"` // "proxy" or "direct"
	Concurrency int     `toml:"concurrency"`
	RateLimit   float64 `toml:"rate_limit"` // requests/sec, 0 = unlimited
}

type HistoryConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.URL == "" {
		c.API.URL = "http://localhost:8000"
	}
	if c.Poll.IntervalSeconds == 0 {
		c.Poll.IntervalSeconds = 2
	}
	if c.Poll.MaxAttempts == 0 {
		c.Poll.MaxAttempts = 120
	}
	if c.Fetch.Strategy == "" {
		c.Fetch.Strategy = "proxy"
	}
	if c.Fetch.Concurrency == 0 {
		c.Fetch.Concurrency = 4
	}
	if c.History.Path == "" {
		c.History.Path = "./data/igrab.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	switch c.Fetch.Strategy {
	case "proxy", "direct":
	default:
		return fmt.Errorf("invalid fetch strategy %q (want proxy or direct)", c.Fetch.Strategy)
	}
	if c.Poll.IntervalSeconds < 0 {
		return fmt.Errorf("poll interval must not be negative")
	}
	if c.Fetch.Concurrency < 0 {
		return fmt.Errorf("fetch concurrency must not be negative")
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match // Leave unchanged if not found
	})
}
