// Package config provides configuration loading and validation for verixfer.
package config

import "time"

// Config is the root configuration structure loaded from YAML or TOML.
type Config struct {
	// Output is the findings format: text or json.
	Output string `yaml:"output" toml:"output"`

	// Workers is the number of goroutines validating lines. 1 disables the pool.
	Workers int `yaml:"workers" toml:"workers"`

	// BatchSize is the number of lines read ahead per parallel batch.
	BatchSize int `yaml:"batch_size" toml:"batch_size"`

	Log LogConfig `yaml:"log" toml:"log"`

	// MetricsFile, when set, receives Prometheus metrics in textfile format.
	MetricsFile string `yaml:"metrics_file,omitempty" toml:"metrics_file"`

	Webhooks []WebhookConfig `yaml:"webhooks,omitempty" toml:"webhooks"`
}

// LogConfig controls diagnostics logging on stderr.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnInvalid fires only when invalid lines are found (default).
	WebhookTriggerOnInvalid WebhookTrigger = "on_invalid"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending check reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty" toml:"name"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url" toml:"url"`

	// Token is an optional bearer token. ${VAR} and $VAR are expanded.
	Token string `yaml:"token,omitempty" toml:"token"`

	// Trigger defaults to "on_invalid".
	Trigger WebhookTrigger `yaml:"trigger,omitempty" toml:"trigger"`

	// Timeout is the per-attempt HTTP timeout. Defaults to 10s.
	Timeout time.Duration `yaml:"timeout,omitempty" toml:"timeout"`

	// Retries is the number of extra attempts after a transient failure.
	// Nil means DefaultWebhookRetries.
	Retries *int `yaml:"retries,omitempty" toml:"retries"`
}

// RetryCount returns the configured retries or the default.
func (w *WebhookConfig) RetryCount() int {
	if w.Retries == nil {
		return DefaultWebhookRetries
	}
	return *w.Retries
}
