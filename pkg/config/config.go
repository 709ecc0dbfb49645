// Package config holds application configuration for the miolink bridge.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so yaml values like "500ms" parse directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds application configuration.
type Config struct {
	// DeviceName is the substring matched against advertised peripheral
	// names when locating the band.
	DeviceName string `yaml:"device_name" default:"MIO"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" default:"info"`
	// ConnectTimeout bounds each dial attempt.
	ConnectTimeout Duration `yaml:"connect_timeout"`
	// RetryInterval is the subscribe-retry cadence after service discovery.
	RetryInterval Duration `yaml:"retry_interval"`
}

// Default returns configuration with default values applied.
func Default() *Config {
	c := &Config{}
	defaults.SetDefaults(c)
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = Duration(30 * time.Second)
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = Duration(500 * time.Millisecond)
	}
	return c
}

// Load reads a yaml config file on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// NewLogger creates a logger configured from the config's log level.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger, nil
}
