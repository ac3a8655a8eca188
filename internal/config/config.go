// Package config holds controlchand's runtime configuration, loaded from
// environment variables via github.com/mstoykov/envconfig: a flat struct
// with one envconfig tag per field, no nesting, no config file.
package config

import (
	"fmt"

	"github.com/mstoykov/envconfig"
)

// Config is controlchand's full runtime configuration.
type Config struct {
	// Addr is the TCP address the control listener binds to.
	Addr string `envconfig:"CTRLEVENT_ADDR"`
	// LogLevel is the default logrus level name (e.g. "info", "debug").
	LogLevel string `envconfig:"CTRLEVENT_LOG_LEVEL"`
	// LogFormat selects "console" or "logstash" output (see
	// internal/ctrllog).
	LogFormat string `envconfig:"CTRLEVENT_LOG_FORMAT"`
	// QueueCapacityHint preallocates the dispatcher's queue slice; it is
	// an optimization hint, not a hard cap — the queue itself is
	// unbounded.
	QueueCapacityHint int `envconfig:"CTRLEVENT_QUEUE_CAPACITY_HINT"`
}

// Default returns the configuration used when no environment variable or
// flag overrides it.
func Default() Config {
	return Config{
		Addr:              "127.0.0.1:9051",
		LogLevel:          "info",
		LogFormat:         "console",
		QueueCapacityHint: 16,
	}
}

// FromEnv reads configuration overrides from the environment on top of
// Default.
func FromEnv() (Config, error) {
	conf := Default()
	if err := envconfig.Process("", &conf); err != nil {
		return conf, fmt.Errorf("reading config from environment: %w", err)
	}
	return conf, nil
}

// Apply overlays non-zero fields of override onto c, CLI-flag values
// taking priority over the environment.
func (c Config) Apply(override Config) Config {
	if override.Addr != "" {
		c.Addr = override.Addr
	}
	if override.LogLevel != "" {
		c.LogLevel = override.LogLevel
	}
	if override.LogFormat != "" {
		c.LogFormat = override.LogFormat
	}
	if override.QueueCapacityHint != 0 {
		c.QueueCapacityHint = override.QueueCapacityHint
	}
	return c
}
