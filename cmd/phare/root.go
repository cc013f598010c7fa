package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "phare",
	Short: "Phare - observability SDK tooling for LLM agents",
	Long: `Phare is an observability SDK for LLM agent applications.

The SDK traces agent runs, model calls, and tool calls, exports spans over
authenticated OTLP, and tracks token usage and cost. This binary bundles
the supporting tooling:
  - Configuration validation
  - Model pricing lookups and cost estimates
  - Usage ledger queries and retention pruning

For more information, visit: https://github.com/phare-hq/phare`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
