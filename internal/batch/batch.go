// Package batch runs the full readiness pipeline over many domains with a
// bounded worker pool. A failing domain never takes the batch down: its
// scan degrades to the safe defaults and is marked failed.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/openmerchant/agentready/internal/audit"
	"github.com/openmerchant/agentready/internal/classify"
	"github.com/openmerchant/agentready/internal/config"
	"github.com/openmerchant/agentready/internal/enrich"
	"github.com/openmerchant/agentready/internal/ingest"
	"github.com/openmerchant/agentready/internal/metrics"
	"github.com/openmerchant/agentready/internal/probe"
	"github.com/openmerchant/agentready/internal/protocol"
	"github.com/openmerchant/agentready/internal/score"
	"github.com/openmerchant/agentready/internal/signals"
)

// ScanResult is the complete output for one domain.
type ScanResult struct {
	BatchID   string                 `json:"batch_id"`
	ScanID    string                 `json:"scan_id"`
	Domain    string                 `json:"domain"`
	Results   []protocol.ProbeResult `json:"results"`
	Model     classify.Model         `json:"business_model"`
	Score     score.Readiness        `json:"score"`
	Grade     string                 `json:"grade"`
	Duration  time.Duration          `json:"duration_ns"`
	Failed    bool                   `json:"failed"`
	ScannedAt time.Time              `json:"scanned_at"`
}

// Summary aggregates one batch run.
type Summary struct {
	BatchID  string        `json:"batch_id"`
	Results  []ScanResult  `json:"results"`
	Scanned  int           `json:"scanned"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration_ns"`
}

// Runner orchestrates concurrent domain scans.
type Runner struct {
	concurrency  int
	timeout      time.Duration
	probeOpts    probe.Options
	log          *audit.Logger
	met          *metrics.Metrics
	reportErrors bool
}

// New builds a Runner from config. met may be nil when metrics are
// disabled; log must not be nil (use audit.NewNop for silence).
func New(cfg *config.Config, log *audit.Logger, met *metrics.Metrics) *Runner {
	var skip []protocol.Protocol
	for _, name := range cfg.Scan.SkipProtocols {
		p := protocol.Protocol(name)
		if protocol.Valid(p) {
			skip = append(skip, p)
		}
	}

	opts := probe.Options{
		UserAgent:    cfg.Scan.UserAgent,
		PerHostRPS:   cfg.Scan.PerHostRPS,
		MaxBodyBytes: int64(cfg.Scan.MaxResponseMB) << 20,
		Skip:         skip,
	}
	if met != nil {
		opts.Observe = func(p protocol.Protocol, status protocol.Status, elapsed time.Duration) {
			met.RecordDetection(string(p), string(status), elapsed)
		}
	}

	return &Runner{
		concurrency:  cfg.Batch.Concurrency,
		timeout:      time.Duration(cfg.Scan.TimeoutSeconds) * time.Second,
		probeOpts:    opts,
		log:          log.With("component", "batch"),
		met:          met,
		reportErrors: cfg.Sentry.DSN != "",
	}
}

// Run scans every domain and returns the batch summary. Duplicate domains
// are collapsed before scanning. The context bounds the whole batch; each
// domain additionally gets its own timeout.
func (r *Runner) Run(ctx context.Context, domains []string) (*Summary, error) {
	domains = ingest.Dedupe(domains)
	batchID := uuid.NewString()
	start := time.Now()

	r.log.LogBatchStart(batchID, len(domains), r.concurrency)

	results := make([]ScanResult, len(domains))
	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for i, domain := range domains {
		i, domain := i, domain
		g.Go(func() error {
			results[i] = r.scanOne(ctx, batchID, domain)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in the results

	sum := &Summary{
		BatchID:  batchID,
		Results:  results,
		Duration: time.Since(start),
	}
	for _, res := range results {
		if res.Failed {
			sum.Failed++
		} else {
			sum.Scanned++
		}
	}

	r.log.LogBatchDone(batchID, sum.Scanned, sum.Failed, sum.Duration)
	return sum, ctx.Err()
}

// scanOne runs the full pipeline for a single domain: probe, extract
// signals, enrich, classify, filter, score. Every stage is total, so a
// dead host still yields a fully populated result with floor scores.
func (r *Runner) scanOne(parent context.Context, batchID, domain string) ScanResult {
	scanID := uuid.NewString()
	start := time.Now()

	r.log.LogScanStart(batchID, scanID, domain)
	if r.met != nil {
		r.met.IncrActiveScans()
		defer r.met.DecrActiveScans()
	}

	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	// Each probe that runs out the scan deadline is logged on its own; the
	// result set still carries its safe default.
	opts := r.probeOpts
	base := opts.Observe
	opts.Observe = func(p protocol.Protocol, status protocol.Status, elapsed time.Duration) {
		if base != nil {
			base(p, status, elapsed)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			r.log.LogProbeTimeout(scanID, domain, string(p))
		}
	}

	probed, page := probe.Run(ctx, domain, opts)
	failed := page.Unreachable || ctx.Err() != nil

	bundle, sd, acc := signals.ExtractHTML(page.HomeHTML)
	if page.RobotsFound {
		signals.ParseRobots(page.RobotsTxt, &acc)
	}

	enriched := enrich.Apply(probed, &bundle)
	model := classify.Classify(&bundle)
	filtered := classify.Filter(enriched, model)
	readiness := score.Compute(filtered, &bundle, &sd, &acc)

	res := ScanResult{
		BatchID:   batchID,
		ScanID:    scanID,
		Domain:    domain,
		Results:   filtered,
		Model:     model,
		Score:     readiness,
		Grade:     readiness.Grade,
		Duration:  time.Since(start),
		Failed:    failed,
		ScannedAt: start.UTC(),
	}

	if failed {
		err := fmt.Errorf("domain %s unreachable within %s", domain, r.timeout)
		r.log.LogScanFailed(batchID, scanID, domain, err)
		if r.met != nil {
			r.met.RecordScanFailed(res.Duration)
		}
		if r.reportErrors {
			sentry.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("domain", domain)
				scope.SetTag("batch_id", batchID)
				sentry.CaptureException(err)
			})
		}
		return res
	}

	detected := 0
	for _, pr := range filtered {
		if protocol.IsDetected(pr.Status) {
			detected++
		}
	}
	r.log.LogScanComplete(batchID, scanID, domain, string(model), res.Grade,
		readiness.ReadinessScore, detected, res.Duration)
	if r.met != nil {
		r.met.RecordScan(res.Grade, bundle.EcommercePlatform, string(model),
			readiness.ReadinessScore, res.Duration)
	}
	return res
}
