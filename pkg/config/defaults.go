package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ccollicutt/verixfer/pkg/checker"
	"github.com/ccollicutt/verixfer/pkg/logger"
)

// Default values for configuration.
const (
	DefaultOutput         = "text"
	DefaultWorkers        = 1
	DefaultLogLevel       = logger.LevelWarn
	DefaultLogFormat      = string(logger.FormatConsole)
	DefaultWebhookTimeout = 10 * time.Second
	DefaultWebhookRetries = 3
)

// Environment variable names.
const (
	EnvConfig   = "VERIXFER_CONFIG"
	EnvOutput   = "VERIXFER_OUTPUT"
	EnvWorkers  = "VERIXFER_WORKERS"
	EnvLogLevel = "VERIXFER_LOG_LEVEL"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Output:    DefaultOutput,
		Workers:   DefaultWorkers,
		BatchSize: checker.DefaultBatchSize,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() error {
	if v := os.Getenv(EnvOutput); v != "" {
		c.Output = strings.ToLower(v)
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: must be an integer, got %q", EnvWorkers, v)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}
