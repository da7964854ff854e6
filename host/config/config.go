// Package config loads the pwmctl configuration file
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pwmdual/core"
)

// Config is the pwmctl configuration
type Config struct {
	Device        string `yaml:"device"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMS int    `yaml:"read_timeout_ms"`

	// Waveform applied by the init command when no arguments are given
	Period uint32 `yaml:"period"`
	Duty   uint32 `yaml:"duty"`

	// Simulate runs against the in-process simulated MCU
	Simulate bool `yaml:"simulate"`
	Verbose  bool `yaml:"verbose"`
}

// Load parses a YAML configuration and fills in defaults
func Load(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads and parses the configuration at path
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Load(data)
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate checks the waveform against the counter limits
func (c *Config) Validate() error {
	if err := core.ValidatePeriod(c.Period); err != nil {
		return fmt.Errorf("config period %d: %w", c.Period, err)
	}
	if err := core.ValidateDuty(c.Period, c.Duty); err != nil {
		return fmt.Errorf("config duty %d: %w", c.Duty, err)
	}
	return nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *Config) {
	if cfg.Device == "" {
		cfg.Device = "/dev/ttyACM0"
	}
	if cfg.Baud == 0 {
		cfg.Baud = 250000
	}
	if cfg.ReadTimeoutMS == 0 {
		cfg.ReadTimeoutMS = 100
	}

	// 64 clocks, square wave
	if cfg.Period == 0 {
		cfg.Period = 64
	}
	if cfg.Duty == 0 {
		cfg.Duty = cfg.Period / 2
	}
}
