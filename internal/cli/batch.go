package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openmerchant/agentready/internal/batch"
	"github.com/openmerchant/agentready/internal/config"
	"github.com/openmerchant/agentready/internal/ingest"
	"github.com/openmerchant/agentready/internal/metrics"
)

func batchCmd() *cobra.Command {
	var configFile string
	var inputFile string
	var outputFile string
	var concurrency int
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "batch [flags] [domain...]",
		Short: "Scan many merchant domains",
		Long: `Scan a list of merchant domains with a bounded worker pool.

Domains come from positional arguments, a text file (one per line, #
comments allowed), or a CSV with a domain/url/website column. Input is
normalized and deduplicated before scanning.

With --interval, the batch repeats on a fixed cadence for continuous
monitoring; when --config is set, edits to the config file (or SIGHUP)
apply on the next round.

Examples:
  agentready batch example.com other.shop
  agentready batch -f merchants.csv --output results.json
  agentready batch -f merchants.txt --config agentready.yaml --interval 24h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Batch.Concurrency = concurrency
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid config: %w", err)
				}
			}

			domains, err := collectDomains(args, inputFile)
			if err != nil {
				return err
			}
			if len(domains) == 0 {
				return fmt.Errorf("no domains to scan; pass them as arguments or with -f")
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Close()
			logger.LogStartup(Version)

			flush, err := initSentry(cfg)
			if err != nil {
				return err
			}
			defer flush()

			m := metrics.New()
			stopMetrics := startMetricsServer(cfg, m)
			defer stopMetrics()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			// Config reload only matters for repeating runs.
			var reloader *config.Reloader
			if interval > 0 && configFile != "" {
				reloader = config.NewReloader(configFile)
				go func() { _ = reloader.Start(ctx) }()
				defer reloader.Close()
			}

			for {
				runner := batch.New(cfg, logger, m)
				sum, runErr := runner.Run(ctx, domains)
				if sum != nil {
					if perr := persistBatch(cfg, sum); perr != nil {
						fmt.Fprintf(os.Stderr, "warning: %v\n", perr)
					}
					if err := emitBatch(cmd, sum, outputFile); err != nil {
						return err
					}
				}
				if runErr != nil {
					return fmt.Errorf("batch interrupted: %w", runErr)
				}
				if interval <= 0 {
					return nil
				}

				select {
				case <-ctx.Done():
					return nil
				case next, ok := <-reloaderChanges(reloader):
					if ok {
						warnings := config.ValidateReload(cfg, next)
						for _, w := range warnings {
							logger.LogConfigReload("warning", w.Field+": "+w.Message)
						}
						if len(warnings) == 0 {
							logger.LogConfigReload("ok", "")
						}
						cfg = next
					}
					// Wait out the remaining interval before rescanning.
					select {
					case <-ctx.Done():
						return nil
					case <-time.After(interval):
					}
				case <-time.After(interval):
				}
			}
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "domain list (.txt or .csv)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write full results as JSON to this file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "override batch.concurrency from config")
	cmd.Flags().DurationVar(&interval, "interval", 0, "repeat the batch on this cadence (0 = run once)")

	return cmd
}

// collectDomains merges positional args with the input file, normalizing
// everything though the ingest layer.
func collectDomains(args []string, inputFile string) ([]string, error) {
	var raw []string
	if inputFile != "" {
		fromFile, err := ingest.ReadFile(inputFile)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", inputFile, err)
		}
		raw = append(raw, fromFile...)
	}
	raw = append(raw, args...)

	var domains []string
	for _, r := range raw {
		if d := ingest.Normalize(r); d != "" {
			domains = append(domains, d)
		}
	}
	return ingest.Dedupe(domains), nil
}

// emitBatch writes the summary to the output file as JSON, or renders it
// to stdout.
func emitBatch(cmd *cobra.Command, sum *batch.Summary, outputFile string) error {
	if outputFile != "" {
		f, err := os.Create(outputFile) //nolint:gosec // G304: path from caller
		if err != nil {
			return fmt.Errorf("creating %s: %w", outputFile, err)
		}
		defer func() { _ = f.Close() }()
		if err := writeJSON(f, sum); err != nil {
			return fmt.Errorf("writing %s: %w", outputFile, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d results to %s\n", len(sum.Results), outputFile)
		renderSummary(cmd.OutOrStdout(), sum)
		return nil
	}

	for i := range sum.Results {
		renderResult(cmd.OutOrStdout(), &sum.Results[i])
	}
	renderSummary(cmd.OutOrStdout(), sum)
	return nil
}

// reloaderChanges returns the reloader's channel, or a nil channel (which
// blocks forever) when no reloader is running.
func reloaderChanges(r *config.Reloader) <-chan *config.Config {
	if r == nil {
		return nil
	}
	return r.Changes()
}
