// Package config provides configuration loading and management for modulator.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/modulator/theory"
)

// Config represents the complete modulator configuration
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// EngineConfig configures the key graph and cadence selection
type EngineConfig struct {
	// Palette lists the tonic spellings to build keys for (empty = default 17)
	Palette []string `yaml:"palette"`
	// Seed makes major-cadence selection reproducible (0 = unseeded)
	Seed uint64 `yaml:"seed"`
}

// NATSConfig configures the NATS connection and subjects
type NATSConfig struct {
	// URL is the NATS server URL (ignored when Embedded is set)
	URL string `yaml:"url"`
	// Embedded starts an in-process server instead of connecting to URL
	Embedded bool `yaml:"embedded"`
	// RequestSubject receives path requests
	RequestSubject string `yaml:"request_subject"`
	// IssuedSubject receives every progression the service produces
	IssuedSubject string `yaml:"issued_subject"`
	// QueueGroup lets several service instances share the request load
	QueueGroup string `yaml:"queue_group"`
	// ProgressionBucket is the JetStream KV bucket for issued progressions ("none" = no store)
	ProgressionBucket string `yaml:"progression_bucket"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	// Addr is the listen address for /metrics (empty = disabled)
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Palette: nil, // Default palette
		},
		NATS: NATSConfig{
			URL:               "nats://127.0.0.1:4222",
			RequestSubject:    "modulation.path.request",
			IssuedSubject:     "modulation.progression.issued",
			QueueGroup:        "modulator",
			ProgressionBucket: "MODULATION_PROGRESSIONS",
		},
		Metrics: MetricsConfig{
			Addr: ":9102",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.Engine.Pitches(); err != nil {
		return fmt.Errorf("engine.palette: %w", err)
	}
	if c.NATS.URL == "" && !c.NATS.Embedded {
		return fmt.Errorf("nats.url is required")
	}
	if c.NATS.RequestSubject == "" {
		return fmt.Errorf("nats.request_subject is required")
	}
	if strings.ContainsAny(c.NATS.RequestSubject+c.NATS.IssuedSubject, " \t") {
		return fmt.Errorf("nats subjects must not contain whitespace")
	}
	return nil
}

// Pitches returns the configured palette, or the default palette when none
// is set.
func (e EngineConfig) Pitches() ([]theory.Pitch, error) {
	if len(e.Palette) == 0 {
		return theory.DefaultPalette(), nil
	}
	return theory.ParsePalette(e.Palette)
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Engine
	if len(other.Engine.Palette) > 0 {
		c.Engine.Palette = append([]string(nil), other.Engine.Palette...)
	}
	if other.Engine.Seed != 0 {
		c.Engine.Seed = other.Engine.Seed
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Embedded {
		c.NATS.Embedded = true
	}
	if other.NATS.RequestSubject != "" {
		c.NATS.RequestSubject = other.NATS.RequestSubject
	}
	if other.NATS.IssuedSubject != "" {
		c.NATS.IssuedSubject = other.NATS.IssuedSubject
	}
	if other.NATS.QueueGroup != "" {
		c.NATS.QueueGroup = other.NATS.QueueGroup
	}
	if other.NATS.ProgressionBucket != "" {
		c.NATS.ProgressionBucket = other.NATS.ProgressionBucket
	}

	// Metrics
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
}
