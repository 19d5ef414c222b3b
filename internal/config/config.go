// Package config loads the loophound run configuration from YAML. Decoding
// happens in two stages: yaml into a generic map, then mapstructure into the
// typed Config, so unknown keys are tolerated and key naming stays uniform
// with the rest of the stack.
package config

import (
	"fmt"
	"os"

	"github.com/aretw0/loophound/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config drives the run and serve commands.
type Config struct {
	// GraphFile points at a serialized graph document. When empty a graph
	// is generated instead.
	GraphFile string `mapstructure:"graph_file"`
	Seed      *int64 `mapstructure:"seed"`
	Nodes     int    `mapstructure:"nodes"`

	Agents    int      `mapstructure:"agents"`
	StartNode int      `mapstructure:"start_node"`
	Programs  []string `mapstructure:"programs"`

	IntervalMs int    `mapstructure:"interval_ms"`
	LogLevel   string `mapstructure:"log_level"`

	HTTP  HTTPConfig  `mapstructure:"http"`
	Redis RedisConfig `mapstructure:"redis"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// RedisConfig enables Redis-backed persistence and locking when Addr is set.
type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Prefix     string `mapstructure:"prefix"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Agents:     1,
		IntervalMs: 1000,
		LogLevel:   "info",
		HTTP:       HTTPConfig{Addr: ":8080"},
	}
}

// Load reads and parses a YAML config file, layered over Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, layered over Default.
func Parse(data []byte) (*Config, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	cfg := Default()
	if err := mapstructure.Decode(raw, cfg); err != nil {
		return nil, fmt.Errorf("invalid config structure: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Agents < domain.MinAgents || c.Agents > domain.MaxAgents {
		return fmt.Errorf("agents %d outside [%d, %d]", c.Agents, domain.MinAgents, domain.MaxAgents)
	}
	if len(c.Programs) > 0 && len(c.Programs) != c.Agents {
		return fmt.Errorf("%d programs configured for %d agents", len(c.Programs), c.Agents)
	}
	if c.IntervalMs <= 0 {
		return fmt.Errorf("interval_ms must be positive")
	}
	return nil
}
