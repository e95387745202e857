// Package config handles loading, validating, and defaulting agentready configuration.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Output/format constants for configuration defaults.
const (
	DefaultMetricsListen = "127.0.0.1:9090"
	DefaultLogFormat     = "json"
	DefaultLogOutput     = "stdout"
	OutputFile           = "file"
	OutputBoth           = "both"
)

// Config is the top-level agentready configuration.
type Config struct {
	Version int           `yaml:"version"`
	Scan    ScanConfig    `yaml:"scan"`
	Batch   BatchConfig   `yaml:"batch"`
	Store   StoreConfig   `yaml:"store"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
	Sentry  SentryConfig  `yaml:"sentry"`
}

// ScanConfig configures the per-domain probe pipeline.
type ScanConfig struct {
	TimeoutSeconds int      `yaml:"timeout_seconds"` // hard deadline per domain
	PerHostRPS     float64  `yaml:"per_host_rps"`    // request pacing toward one host
	MaxResponseMB  int      `yaml:"max_response_mb"` // cap on fetched body size
	UserAgent      string   `yaml:"user_agent"`      // sent on every probe request
	SkipProtocols  []string `yaml:"skip_protocols"`  // protocol names to leave as not_detected
}

// BatchConfig configures the batch orchestrator.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"` // concurrent domain scans
}

// StoreConfig configures scan result persistence.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // SQLite database file
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LoggingConfig configures audit logging.
type LoggingConfig struct {
	Format string `yaml:"format"` // json, text
	Output string `yaml:"output"` // stdout, file, both
	File   string `yaml:"file"`
}

// SentryConfig configures error reporting. A scan that degrades to defaults
// is still reported so operator dashboards see flaky targets.
type SentryConfig struct {
	DSN         string  `yaml:"dsn"`
	Environment string  `yaml:"environment"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// Load reads, parses, defaults, and validates an agentready config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path from caller
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.ApplyDefaults()

	// Resolve relative store path relative to config file directory.
	if cfg.Store.Path != "" && !filepath.IsAbs(cfg.Store.Path) {
		cfg.Store.Path = filepath.Join(filepath.Dir(path), cfg.Store.Path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Scan.TimeoutSeconds <= 0 {
		c.Scan.TimeoutSeconds = 30
	}
	if c.Scan.PerHostRPS <= 0 {
		c.Scan.PerHostRPS = 4
	}
	if c.Scan.MaxResponseMB <= 0 {
		c.Scan.MaxResponseMB = 2
	}
	if c.Scan.UserAgent == "" {
		c.Scan.UserAgent = "agentready-scanner/1.0 (+https://github.com/openmerchant/agentready)"
	}
	if c.Batch.Concurrency <= 0 {
		c.Batch.Concurrency = 4
	}
	if c.Store.Enabled && c.Store.Path == "" {
		c.Store.Path = "agentready.db"
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = DefaultMetricsListen
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = DefaultLogOutput
	}
	if c.Sentry.DSN != "" {
		if c.Sentry.Environment == "" {
			c.Sentry.Environment = "production"
		}
		if c.Sentry.SampleRate <= 0 {
			c.Sentry.SampleRate = 1.0
		}
	}
}

// Validate checks the config for errors. Must be called after ApplyDefaults.
func (c *Config) Validate() error {
	if c.Scan.TimeoutSeconds <= 0 {
		return fmt.Errorf("scan.timeout_seconds must be positive")
	}
	if c.Scan.PerHostRPS <= 0 {
		return fmt.Errorf("scan.per_host_rps must be positive")
	}
	if c.Scan.PerHostRPS > 50 {
		return fmt.Errorf("scan.per_host_rps %v exceeds the politeness cap of 50", c.Scan.PerHostRPS)
	}
	if c.Scan.MaxResponseMB <= 0 {
		return fmt.Errorf("scan.max_response_mb must be positive")
	}
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("batch.concurrency must be positive")
	}
	if c.Batch.Concurrency > 256 {
		return fmt.Errorf("batch.concurrency %d exceeds the cap of 256", c.Batch.Concurrency)
	}

	switch c.Logging.Format {
	case DefaultLogFormat, "text":
		// valid
	default:
		return fmt.Errorf("invalid logging format %q: must be json or text", c.Logging.Format)
	}

	switch c.Logging.Output {
	case DefaultLogOutput, OutputFile, OutputBoth:
		// valid
	default:
		return fmt.Errorf("invalid logging output %q: must be stdout, file, or both", c.Logging.Output)
	}

	if (c.Logging.Output == OutputFile || c.Logging.Output == OutputBoth) && c.Logging.File == "" {
		return fmt.Errorf("logging.file is required when output is %q", c.Logging.Output)
	}

	if c.Sentry.DSN != "" && (c.Sentry.SampleRate <= 0 || c.Sentry.SampleRate > 1) {
		return fmt.Errorf("sentry.sample_rate must be in (0, 1], got %v", c.Sentry.SampleRate)
	}

	if c.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			return fmt.Errorf("invalid metrics.listen %q: %w", c.Metrics.Listen, err)
		}
		// Warn if the metrics listener is exposed beyond loopback.
		if host, _, err := net.SplitHostPort(c.Metrics.Listen); err == nil {
			ip := net.ParseIP(host)
			if ip != nil && !ip.IsLoopback() {
				fmt.Fprintf(os.Stderr, "WARNING: metrics listen address %s is not loopback - /metrics and /stats will be exposed to the network\n", c.Metrics.Listen)
			}
			if host == "" || host == "0.0.0.0" || host == "::" {
				fmt.Fprintf(os.Stderr, "WARNING: metrics listen address %s binds to all interfaces - consider using 127.0.0.1 for local-only access\n", c.Metrics.Listen)
			}
		}
	}

	return nil
}

// ReloadWarning describes a potentially impolite change from a config reload.
type ReloadWarning struct {
	Field   string
	Message string
}

// ValidateReload compares old and new configs and returns warnings for
// changes that make the scanner noisier toward targets or hide results.
// Warnings don't block the reload.
func ValidateReload(old, updated *Config) []ReloadWarning {
	var warnings []ReloadWarning

	if updated.Batch.Concurrency > old.Batch.Concurrency {
		warnings = append(warnings, ReloadWarning{
			Field:   "batch.concurrency",
			Message: fmt.Sprintf("concurrency raised from %d to %d", old.Batch.Concurrency, updated.Batch.Concurrency),
		})
	}

	if updated.Scan.PerHostRPS > old.Scan.PerHostRPS {
		warnings = append(warnings, ReloadWarning{
			Field:   "scan.per_host_rps",
			Message: fmt.Sprintf("per-host request rate raised from %v to %v", old.Scan.PerHostRPS, updated.Scan.PerHostRPS),
		})
	}

	if updated.Scan.TimeoutSeconds < old.Scan.TimeoutSeconds {
		warnings = append(warnings, ReloadWarning{
			Field:   "scan.timeout_seconds",
			Message: fmt.Sprintf("per-domain timeout shortened from %ds to %ds, slow merchants will degrade to defaults", old.Scan.TimeoutSeconds, updated.Scan.TimeoutSeconds),
		})
	}

	if len(updated.Scan.SkipProtocols) > len(old.Scan.SkipProtocols) {
		warnings = append(warnings, ReloadWarning{
			Field:   "scan.skip_protocols",
			Message: fmt.Sprintf("skipped protocols grew from %d to %d", len(old.Scan.SkipProtocols), len(updated.Scan.SkipProtocols)),
		})
	}

	if old.Store.Enabled && !updated.Store.Enabled {
		warnings = append(warnings, ReloadWarning{
			Field:   "store.enabled",
			Message: "result persistence disabled",
		})
	}

	return warnings
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Scan: ScanConfig{
			TimeoutSeconds: 30,
			PerHostRPS:     4,
			MaxResponseMB:  2,
			UserAgent:      "agentready-scanner/1.0 (+https://github.com/openmerchant/agentready)",
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    "agentready.db",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  DefaultMetricsListen,
		},
		Logging: LoggingConfig{
			Format: DefaultLogFormat,
			Output: DefaultLogOutput,
		},
	}
}
