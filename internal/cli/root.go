// Package cli implements the agentready command-line interface using cobra.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "0.1.0-dev"

// Execute runs the root command.
func Execute() error {
	return rootCmd().Execute()
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agentready",
		Short: "Agentic commerce readiness scanner",
		Long: `Agentready probes merchant domains for agentic commerce protocol
support (UCP, ACP, x402, AP2, MCP, NLWeb and card-network agent rails),
classifies the business model, and scores how ready each merchant is for
AI agent traffic.

Quick start:
  agentready scan example.com
  agentready batch -f merchants.csv --output results.json
  agentready check --config agentready.yaml`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		scanCmd(),
		batchCmd(),
		historyCmd(),
		checkCmd(),
		versionCmd(),
	)

	return cmd
}
