package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "agentready.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadMinimalConfig(t *testing.T) {
	path := writeConfig(t, "version: 1\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Scan.TimeoutSeconds != 30 {
		t.Errorf("timeout default = %d, want 30", cfg.Scan.TimeoutSeconds)
	}
	if cfg.Scan.PerHostRPS != 4 {
		t.Errorf("per_host_rps default = %v, want 4", cfg.Scan.PerHostRPS)
	}
	if cfg.Scan.MaxResponseMB != 2 {
		t.Errorf("max_response_mb default = %d, want 2", cfg.Scan.MaxResponseMB)
	}
	if cfg.Batch.Concurrency != 4 {
		t.Errorf("concurrency default = %d, want 4", cfg.Batch.Concurrency)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Output != "stdout" {
		t.Errorf("logging defaults = %s/%s, want json/stdout", cfg.Logging.Format, cfg.Logging.Output)
	}
	if !strings.HasPrefix(cfg.Scan.UserAgent, "agentready-scanner/") {
		t.Errorf("user agent default = %q", cfg.Scan.UserAgent)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
version: 1
scan:
  timeout_seconds: 45
  per_host_rps: 2
  user_agent: "custom-agent/2.0"
  skip_protocols: [nlweb, ap2]
batch:
  concurrency: 16
store:
  enabled: true
  path: results.db
metrics:
  enabled: true
  listen: "127.0.0.1:9191"
logging:
  format: text
  output: stdout
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scan.TimeoutSeconds != 45 {
		t.Errorf("timeout = %d, want 45", cfg.Scan.TimeoutSeconds)
	}
	if cfg.Batch.Concurrency != 16 {
		t.Errorf("concurrency = %d, want 16", cfg.Batch.Concurrency)
	}
	if len(cfg.Scan.SkipProtocols) != 2 {
		t.Errorf("skip_protocols = %v", cfg.Scan.SkipProtocols)
	}
	// Relative store path resolves against the config directory.
	if !filepath.IsAbs(cfg.Store.Path) {
		t.Errorf("store path not resolved: %s", cfg.Store.Path)
	}
	if filepath.Base(cfg.Store.Path) != "results.db" {
		t.Errorf("store path = %s", cfg.Store.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "version: [1\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "excessive rps",
			mutate:  func(c *Config) { c.Scan.PerHostRPS = 100 },
			wantErr: "politeness cap",
		},
		{
			name:    "excessive concurrency",
			mutate:  func(c *Config) { c.Batch.Concurrency = 1000 },
			wantErr: "cap of 256",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format",
		},
		{
			name:    "bad log output",
			mutate:  func(c *Config) { c.Logging.Output = "syslog" },
			wantErr: "invalid logging output",
		},
		{
			name: "file output without path",
			mutate: func(c *Config) {
				c.Logging.Output = OutputFile
				c.Logging.File = ""
			},
			wantErr: "logging.file is required",
		},
		{
			name: "bad metrics listen",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Listen = "not-an-addr"
			},
			wantErr: "invalid metrics.listen",
		},
		{
			name: "bad sentry sample rate",
			mutate: func(c *Config) {
				c.Sentry.DSN = "https://x@example.ingest.sentry.io/1"
				c.Sentry.SampleRate = 2.0
			},
			wantErr: "sentry.sample_rate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Errorf("Defaults() should validate: %v", err)
	}
}

func TestSentryDefaults(t *testing.T) {
	cfg := &Config{Sentry: SentryConfig{DSN: "https://x@example.ingest.sentry.io/1"}}
	cfg.ApplyDefaults()
	if cfg.Sentry.Environment != "production" {
		t.Errorf("sentry environment = %q, want production", cfg.Sentry.Environment)
	}
	if cfg.Sentry.SampleRate != 1.0 {
		t.Errorf("sentry sample rate = %v, want 1.0", cfg.Sentry.SampleRate)
	}
}

func TestValidateReload(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
		wantNone  bool
	}{
		{
			name:      "concurrency raised",
			mutate:    func(c *Config) { c.Batch.Concurrency = 64 },
			wantField: "batch.concurrency",
		},
		{
			name:      "rps raised",
			mutate:    func(c *Config) { c.Scan.PerHostRPS = 10 },
			wantField: "scan.per_host_rps",
		},
		{
			name:      "timeout shortened",
			mutate:    func(c *Config) { c.Scan.TimeoutSeconds = 5 },
			wantField: "scan.timeout_seconds",
		},
		{
			name:      "protocols skipped",
			mutate:    func(c *Config) { c.Scan.SkipProtocols = []string{"ucp"} },
			wantField: "scan.skip_protocols",
		},
		{
			name:     "concurrency lowered is quiet",
			mutate:   func(c *Config) { c.Batch.Concurrency = 2 },
			wantNone: true,
		},
		{
			name:     "unchanged is quiet",
			mutate:   func(_ *Config) {},
			wantNone: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := Defaults()
			updated := Defaults()
			tt.mutate(updated)
			warnings := ValidateReload(old, updated)
			if tt.wantNone {
				if len(warnings) != 0 {
					t.Errorf("expected no warnings, got %v", warnings)
				}
				return
			}
			found := false
			for _, w := range warnings {
				if w.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected warning on %s, got %v", tt.wantField, warnings)
			}
		})
	}
}

func TestValidateReloadStoreDisabled(t *testing.T) {
	old := Defaults()
	old.Store.Enabled = true
	updated := Defaults()
	warnings := ValidateReload(old, updated)
	if len(warnings) != 1 || warnings[0].Field != "store.enabled" {
		t.Errorf("warnings = %v, want one store.enabled warning", warnings)
	}
}
