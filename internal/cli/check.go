package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openmerchant/agentready/internal/config"
)

func checkCmd() *cobra.Command {
	var configFile string
	var inputFile string

	cmd := &cobra.Command{
		Use:   "check [flags] [domain...]",
		Short: "Validate config and preview domain normalization",
		Long: `Validate an agentready config file and optionally preview how an input
list of domains will be normalized and deduplicated, without scanning.

Examples:
  agentready check --config agentready.yaml
  agentready check -f merchants.csv
  agentready check "https://www.Example.COM/shop" münchen.de`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if configFile != "" {
				cfg, err := config.Load(configFile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Config validation FAILED: %v\n", err)
					return err
				}
				fmt.Fprintln(out, "Config validation: OK")
				fmt.Fprintf(out, "  Concurrency:    %d\n", cfg.Batch.Concurrency)
				fmt.Fprintf(out, "  Scan timeout:   %ds\n", cfg.Scan.TimeoutSeconds)
				fmt.Fprintf(out, "  Per-host rate:  %.1f req/s\n", cfg.Scan.PerHostRPS)
				fmt.Fprintf(out, "  User agent:     %s\n", cfg.Scan.UserAgent)
				fmt.Fprintf(out, "  Store:          %s\n", onOff(cfg.Store.Enabled))
				fmt.Fprintf(out, "  Metrics:        %s\n", onOff(cfg.Metrics.Enabled))
				if len(cfg.Scan.SkipProtocols) > 0 {
					fmt.Fprintf(out, "  Skipped:        %v\n", cfg.Scan.SkipProtocols)
				}
			} else {
				fmt.Fprintln(out, "Using default config (no --config specified)")
			}

			if inputFile == "" && len(args) == 0 {
				return nil
			}

			domains, err := collectDomains(args, inputFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d domains after normalization and dedupe:\n", len(domains))
			for _, d := range domains {
				fmt.Fprintf(out, "  %s\n", d)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path to validate")
	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "domain list (.txt or .csv) to preview")

	return cmd
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
