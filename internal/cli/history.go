package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openmerchant/agentready/internal/ingest"
	"github.com/openmerchant/agentready/internal/store"
)

func historyCmd() *cobra.Command {
	var configFile string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history <domain>",
		Short: "Show past scans for a domain",
		Long: `Show stored scan results for a domain, newest first.

Requires store.enabled in the config so batches are persisted.

Examples:
  agentready history example.com --config agentready.yaml
  agentready history example.com -c agentready.yaml --limit 5 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if !cfg.Store.Enabled {
				return fmt.Errorf("store is disabled; enable store.enabled in the config to keep history")
			}

			domain := ingest.Normalize(args[0])
			if domain == "" {
				return fmt.Errorf("cannot derive a domain from %q", args[0])
			}

			s, err := store.Open(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer func() { _ = s.Close() }()

			scans, err := s.History(domain, limit)
			if err != nil {
				return err
			}
			if len(scans) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No stored scans for %s\n", domain)
				return nil
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), scans)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d stored scans\n", domain, len(scans))
			for _, res := range scans {
				status := "ok"
				if res.Failed {
					status = "failed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  score %3d  grade %s  model %-12s  %s\n",
					res.ScannedAt.Format(time.RFC3339), res.Score.ReadinessScore,
					res.Grade, res.Model, status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum scans to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit history as JSON")

	return cmd
}
