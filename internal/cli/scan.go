package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openmerchant/agentready/internal/batch"
	"github.com/openmerchant/agentready/internal/ingest"
	"github.com/openmerchant/agentready/internal/metrics"
)

func scanCmd() *cobra.Command {
	var configFile string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan <domain>",
		Short: "Scan one merchant domain",
		Long: `Scan a single merchant domain for agentic commerce readiness.

The domain is normalized first, so URLs and bare hostnames both work.

Examples:
  agentready scan example.com
  agentready scan https://www.example.com/shop --json
  agentready scan example.com --config agentready.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}

			domain := ingest.Normalize(args[0])
			if domain == "" {
				return fmt.Errorf("cannot derive a domain from %q", args[0])
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

			runner := batch.New(cfg, logger, m)
			sum, err := runner.Run(ctx, []string{domain})
			if err != nil {
				return fmt.Errorf("scan interrupted: %w", err)
			}
			if perr := persistBatch(cfg, sum); perr != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", perr)
			}

			res := &sum.Results[0]
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			renderResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the full result as JSON")

	return cmd
}
