package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL      = "http://127.0.0.1:8000"
	DefaultPollInterval = 5 * time.Second
	DefaultStreamBuffer = 200
	DefaultHistoryLimit = 20
	DefaultTimeout      = 30 * time.Second

	EnvAPIKey  = "TEAM_MONITOR_API_KEY"
	EnvBaseURL = "TEAM_MONITOR_BASE_URL"
)

// RuntimeConfig is the configuration handed to components at start-up. It
// replaces any ambient global lookup: whoever builds the resolver or client
// passes this value in.
type RuntimeConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Team         string        `yaml:"team"`
	PollInterval time.Duration `yaml:"poll_interval"`
	StreamBuffer int           `yaml:"stream_buffer"`
	HistoryLimit int           `yaml:"history_limit"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file exists
func Default() *RuntimeConfig {
	return &RuntimeConfig{
		BaseURL:      DefaultBaseURL,
		PollInterval: DefaultPollInterval,
		StreamBuffer: DefaultStreamBuffer,
		HistoryLimit: DefaultHistoryLimit,
		Timeout:      DefaultTimeout,
	}
}

// Validate fills zero values with defaults and rejects unusable settings
func (c *RuntimeConfig) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.StreamBuffer == 0 {
		c.StreamBuffer = DefaultStreamBuffer
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.StreamBuffer < 0 {
		return fmt.Errorf("stream_buffer must be positive, got %d", c.StreamBuffer)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	return nil
}

// Load reads a YAML config file. A missing file yields the defaults.
// Environment overrides are applied afterwards through lookupEnv, which is
// os.LookupEnv in production.
func Load(path string, lookupEnv func(string) (string, bool)) (*RuntimeConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if lookupEnv != nil {
		cfg.applyEnvOverrides(lookupEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories
func (c *RuntimeConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *RuntimeConfig) applyEnvOverrides(lookupEnv func(string) (string, bool)) {
	if key, ok := lookupEnv(EnvAPIKey); ok && key != "" {
		c.APIKey = key
	}
	if url, ok := lookupEnv(EnvBaseURL); ok && url != "" {
		c.BaseURL = url
	}
}
