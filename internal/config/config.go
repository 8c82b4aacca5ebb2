package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type BackendConfig struct {
	URL string `toml:"url"`
}

type GatewayConfig struct {
	Port string `toml:"port"`
}

type RetryConfig struct {
	InitialDelayMS int     `toml:"initial_delay_ms"`
	Factor         float64 `toml:"factor"`
	MaxDelayMS     int     `toml:"max_delay_ms"`
}

type LayoutConfig struct {
	BaseRadius   float64 `toml:"base_radius"`
	DeltaRadius  float64 `toml:"delta_radius"`
	SlotsPerRing int     `toml:"slots_per_ring"`
	ChildRadius  float64 `toml:"child_radius"`
}

type Config struct {
	Backend BackendConfig `toml:"backend"`
	Gateway GatewayConfig `toml:"gateway"`
	Retry   RetryConfig   `toml:"retry"`
	Layout  LayoutConfig  `toml:"layout"`
}

// Load reads a TOML config file and fills in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault tries the config file at path (or CONFIG_PATH), falling
// back to defaults, then applies env-var overrides.
func LoadOrDefault(path string) *Config {
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		path = envPath
	}

	cfg, err := Load(path)
	if err != nil {
		cfg = &Config{}
		cfg.applyDefaults()
	}

	// Env vars win over file values.
	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Gateway.Port = v
	}

	return cfg
}

func (c *Config) applyDefaults() {
	if c.Backend.URL == "" {
		c.Backend.URL = "http://localhost:8000"
	}
	if c.Gateway.Port == "" {
		c.Gateway.Port = "3000"
	}
	if c.Retry.InitialDelayMS == 0 {
		c.Retry.InitialDelayMS = 1000
	}
	if c.Retry.Factor == 0 {
		c.Retry.Factor = 1.5
	}
	if c.Retry.MaxDelayMS == 0 {
		c.Retry.MaxDelayMS = 30000
	}
	if c.Layout.BaseRadius == 0 {
		c.Layout.BaseRadius = 600
	}
	if c.Layout.DeltaRadius == 0 {
		c.Layout.DeltaRadius = 320
	}
	if c.Layout.SlotsPerRing == 0 {
		c.Layout.SlotsPerRing = 12
	}
	if c.Layout.ChildRadius == 0 {
		c.Layout.ChildRadius = 140
	}
}
