package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
output: json
workers: 4
log:
  level: debug
  format: json
metrics_file: /var/lib/node_exporter/verixfer.prom
webhooks:
  - name: ops
    url: https://hooks.example.com/xferlog
    trigger: always
    timeout: 30s
    retries: 0
`
	path := writeTempFile(t, "config.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Output != "json" {
		t.Errorf("Output = %q, want json", cfg.Output)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.BatchSize != DefaultConfig().BatchSize {
		t.Errorf("BatchSize = %d, want default", cfg.BatchSize)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.MetricsFile == "" {
		t.Error("MetricsFile not loaded")
	}
	if len(cfg.Webhooks) != 1 {
		t.Fatalf("Webhooks = %d, want 1", len(cfg.Webhooks))
	}
	wh := cfg.Webhooks[0]
	if wh.Timeout != 30*time.Second || wh.Trigger != WebhookTriggerAlways || wh.RetryCount() != 0 {
		t.Errorf("Webhook = %+v", wh)
	}
}

func TestLoad_TOML(t *testing.T) {
	content := `
output = "text"
workers = 2

[log]
level = "info"

[[webhooks]]
url = "https://hooks.example.com/a"
`
	path := writeTempFile(t, "verixfer.toml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Workers != 2 || cfg.Log.Level != "info" || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Webhooks) != 1 || cfg.Webhooks[0].Trigger != WebhookTriggerOnInvalid {
		t.Errorf("Webhooks = %+v", cfg.Webhooks)
	}
	if cfg.Webhooks[0].RetryCount() != DefaultWebhookRetries {
		t.Errorf("RetryCount() = %d, want default", cfg.Webhooks[0].RetryCount())
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempFile(t, "invalid.yaml", `invalid: yaml: content: [`)
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeTempFile(t, "invalid.toml", `workers = [`)
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid TOML")
	}
}

func TestValidate_Errors(t *testing.T) {
	negative := -1
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"bad output", Config{Output: "xml"}, "output"},
		{"negative workers", Config{Workers: -2}, "workers"},
		{"negative batch", Config{BatchSize: -1}, "batch_size"},
		{"bad log level", Config{Log: LogConfig{Level: "trace"}}, "log: invalid level"},
		{"bad log format", Config{Log: LogConfig{Format: "pretty"}}, "log: invalid format"},
		{"webhook without url", Config{Webhooks: []WebhookConfig{{Name: "x"}}}, "url is required"},
		{"webhook bad scheme", Config{Webhooks: []WebhookConfig{{URL: "ftp://example.com"}}}, "scheme"},
		{"webhook no host", Config{Webhooks: []WebhookConfig{{URL: "https://"}}}, "host"},
		{"webhook bad trigger", Config{Webhooks: []WebhookConfig{{URL: "https://x.io", Trigger: "sometimes"}}}, "trigger"},
		{"webhook negative retries", Config{Webhooks: []WebhookConfig{{URL: "https://x.io", Retries: &negative}}}, "retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := Validate(&cfg)
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_FillsDefaults(t *testing.T) {
	cfg := &Config{Output: "JSON", Webhooks: []WebhookConfig{{URL: "http://localhost:8080/hook"}}}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Output != "json" {
		t.Errorf("Output = %q, want json", cfg.Output)
	}
	if cfg.Workers != DefaultWorkers || cfg.BatchSize <= 0 {
		t.Errorf("Workers/BatchSize = %d/%d", cfg.Workers, cfg.BatchSize)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Webhooks[0].Timeout != DefaultWebhookTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Webhooks[0].Timeout, DefaultWebhookTimeout)
	}
}

func TestResolve_Defaults(t *testing.T) {
	t.Setenv(EnvConfig, "")
	cfg, err := Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.Output != DefaultOutput || cfg.Workers != DefaultWorkers {
		t.Errorf("Resolve() = %+v, want defaults", cfg)
	}
}

func TestResolve_FromEnvPath(t *testing.T) {
	path := writeTempFile(t, "config.yaml", "workers: 3\n")
	t.Setenv(EnvConfig, path)

	cfg, err := Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvOutput, "JSON")
	t.Setenv(EnvWorkers, "6")
	t.Setenv(EnvLogLevel, "error")

	cfg, err := Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.Output != "json" || cfg.Workers != 6 || cfg.Log.Level != "error" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestEnvironmentOverrides_BadWorkers(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvWorkers, "many")

	_, err := Resolve(context.Background(), "")
	if err == nil || !strings.Contains(err.Error(), EnvWorkers) {
		t.Errorf("Resolve() error = %v, want mention of %s", err, EnvWorkers)
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("VERIXFER_TEST_TOKEN", "secret")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"${VERIXFER_TEST_TOKEN}", "secret"},
		{"$VERIXFER_TEST_TOKEN", "secret"},
		{"${VERIXFER_UNSET_VAR}", ""},
	}
	for _, tt := range tests {
		if got := expandEnvVar(tt.in); got != tt.want {
			t.Errorf("expandEnvVar(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
