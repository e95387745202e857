package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/openmerchant/agentready/internal/audit"
	"github.com/openmerchant/agentready/internal/batch"
	"github.com/openmerchant/agentready/internal/config"
	"github.com/openmerchant/agentready/internal/metrics"
	"github.com/openmerchant/agentready/internal/protocol"
	"github.com/openmerchant/agentready/internal/store"
)

// loadConfig loads the config file, or defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Defaults(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the audit logger from config.
func newLogger(cfg *config.Config) (*audit.Logger, error) {
	logger, err := audit.New(cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("creating audit logger: %w", err)
	}
	return logger, nil
}

// initSentry starts error reporting when a DSN is configured. The returned
// flush func is a no-op otherwise.
func initSentry(cfg *config.Config) (func(), error) {
	if cfg.Sentry.DSN == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		SampleRate:  cfg.Sentry.SampleRate,
		Release:     "agentready@" + Version,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing sentry: %w", err)
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// startMetricsServer serves /metrics and /stats while the scan runs.
// Returns a shutdown func.
func startMetricsServer(cfg *config.Config, m *metrics.Metrics) func() {
	if !cfg.Metrics.Enabled {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.PrometheusHandler())
	mux.HandleFunc("/stats", m.StatsHandler())

	srv := &http.Server{
		Addr:              cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// persistBatch saves the summary when the store is enabled.
func persistBatch(cfg *config.Config, sum *batch.Summary) error {
	if !cfg.Store.Enabled {
		return nil
	}
	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = s.Close() }()
	if err := s.SaveBatch(sum); err != nil {
		return fmt.Errorf("saving batch: %w", err)
	}
	return nil
}

// writeJSON emits v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderResult prints a human-readable report for one scanned domain.
func renderResult(w io.Writer, res *batch.ScanResult) {
	fmt.Fprintf(w, "%s\n", res.Domain)
	if res.Failed {
		fmt.Fprintf(w, "  status: FAILED (unreachable, defaults applied)\n")
	}
	fmt.Fprintf(w, "  business model: %s\n", res.Model)
	fmt.Fprintf(w, "  readiness:      %d/100 (grade %s)\n", res.Score.ReadinessScore, res.Grade)
	fmt.Fprintf(w, "    protocols:     %d\n", res.Score.ProtocolScore)
	fmt.Fprintf(w, "    data:          %d\n", res.Score.DataScore)
	fmt.Fprintf(w, "    accessibility: %d\n", res.Score.AccessibilityScore)
	fmt.Fprintf(w, "    checkout:      %d\n", res.Score.CheckoutScore)
	fmt.Fprintf(w, "  protocols:\n")

	ordered := make([]protocol.ProbeResult, len(res.Results))
	copy(ordered, res.Results)
	sort.Slice(ordered, func(i, j int) bool {
		ri, rj := protocol.Rank(ordered[i].Status), protocol.Rank(ordered[j].Status)
		if ri != rj {
			return ri > rj
		}
		return ordered[i].Protocol < ordered[j].Protocol
	})
	for _, pr := range ordered {
		line := fmt.Sprintf("    %-20s %s", pr.Protocol, pr.Status)
		if protocol.IsDetected(pr.Status) {
			line += fmt.Sprintf(" (%s confidence)", pr.Confidence)
		}
		fmt.Fprintln(w, line)
		for _, sig := range pr.EligibilitySignals {
			fmt.Fprintf(w, "      - %s\n", sig)
		}
	}
	fmt.Fprintf(w, "  scanned in %s\n", res.Duration.Round(time.Millisecond))
}

// renderSummary prints the batch footer.
func renderSummary(w io.Writer, sum *batch.Summary) {
	fmt.Fprintf(w, "\nBatch %s: %d scanned, %d failed in %s\n",
		sum.BatchID, sum.Scanned, sum.Failed, sum.Duration.Round(time.Millisecond))
}
