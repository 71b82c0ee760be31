// Package config loads the specaudit configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".specaudit.yaml"

// Auditor kinds.
const (
	AuditorHTTP = "http"
	AuditorFile = "file"
)

// Config is the full configuration.
type Config struct {
	Auditor  AuditorConfig  `yaml:"auditor"`
	Web      WebConfig      `yaml:"web"`
	Log      LogConfig      `yaml:"log"`
	Webhooks WebhooksConfig `yaml:"webhooks,omitempty"`
}

// AuditorConfig selects and tunes the audit collaborator.
type AuditorConfig struct {
	Kind         string            `yaml:"kind"`
	Endpoint     string            `yaml:"endpoint,omitempty"`
	ResultsFile  string            `yaml:"results_file,omitempty"`
	Headers      map[string]string `yaml:"headers,omitempty"`
	TimeoutSec   int               `yaml:"timeout_sec,omitempty"`
	MaxRetries   int               `yaml:"max_retries,omitempty"`
	RetryDelayMs int               `yaml:"retry_delay_ms,omitempty"`
}

// Timeout returns the audit deadline.
func (c AuditorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// RetryDelay returns the initial retry delay.
func (c AuditorConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// WebConfig configures the web form server.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// WebhooksConfig lists the endpoints notified when submissions are audited
// or proceed to Stage 2.
type WebhooksConfig struct {
	DeadLetterFile string          `yaml:"dead_letter_file,omitempty"`
	Endpoints      []WebhookConfig `yaml:"endpoints,omitempty"`
}

// WebhookConfig is one outgoing webhook. An empty Events list receives every event.
type WebhookConfig struct {
	Name         string   `yaml:"name"`
	URL          string   `yaml:"url"`
	Secret       string   `yaml:"secret,omitempty"`
	Events       []string `yaml:"events,omitempty"`
	Disabled     bool     `yaml:"disabled,omitempty"`
	MaxRetries   int      `yaml:"max_retries,omitempty"`
	RetryDelayMs int      `yaml:"retry_delay_ms,omitempty"`
}

// RetryDelay returns the initial delay between delivery attempts.
func (c WebhookConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Auditor: AuditorConfig{
			Kind:         AuditorFile,
			ResultsFile:  "audit_results.json",
			TimeoutSec:   120,
			MaxRetries:   2,
			RetryDelayMs: 500,
		},
		Web: WebConfig{Addr: ":8080"},
		Log: LogConfig{Level: "info", Format: "text"},
		Webhooks: WebhooksConfig{
			DeadLetterFile: "webhook_dead_letters.jsonl",
		},
	}
}

// Load reads path, or FileName inside dir when path is empty. A missing file
// yields the defaults; fields absent from the file keep their defaults.
func Load(dir, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, FileName)
	}

	cfg := Default()
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	switch c.Auditor.Kind {
	case AuditorHTTP:
		if c.Auditor.Endpoint == "" {
			return fmt.Errorf("auditor.endpoint is required for the http auditor")
		}
	case AuditorFile:
	default:
		return fmt.Errorf("unknown auditor kind %q (expected http or file)", c.Auditor.Kind)
	}
	if c.Auditor.TimeoutSec < 0 || c.Auditor.MaxRetries < 0 || c.Auditor.RetryDelayMs < 0 {
		return fmt.Errorf("auditor timeouts and retries must not be negative")
	}
	seen := make(map[string]bool, len(c.Webhooks.Endpoints))
	for i, ep := range c.Webhooks.Endpoints {
		if ep.URL == "" {
			return fmt.Errorf("webhooks.endpoints[%d].url is required", i)
		}
		if ep.Name == "" {
			return fmt.Errorf("webhooks.endpoints[%d].name is required", i)
		}
		if seen[ep.Name] {
			return fmt.Errorf("duplicate webhook name %q", ep.Name)
		}
		seen[ep.Name] = true
		if ep.MaxRetries < 0 || ep.RetryDelayMs < 0 {
			return fmt.Errorf("webhook %q retries must not be negative", ep.Name)
		}
	}
	return nil
}
