package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"phare-hq/phare/pkg/config"
	"phare-hq/phare/pkg/pricing"
)

var validateFlags struct {
	env    bool
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a Phare configuration file.

The validate command loads the configuration, applies defaults and
environment overrides, and checks:
  - YAML syntax
  - Exporter endpoint, timeouts, and queue sizes
  - Pricing table file (when configured)
  - Usage ledger backend and retention settings

Examples:
  # Validate a config file
  phare validate --config phare.yaml

  # Validate environment-only configuration
  phare validate --env

  # JSON output for CI/CD
  phare validate --config phare.yaml --format json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.env, "env", false, "validate configuration from environment variables only")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if cfgFile == "" && !validateFlags.env {
		return fmt.Errorf("either --config or --env must be specified")
	}

	// Load through the global singleton, as the SDK does at startup.
	if err := config.Initialize(cfgFile); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}
	cfg := config.GetConfig()

	// The pricing table only loads at client initialization; check it up
	// front so a broken file fails here instead of at runtime.
	table, err := pricing.NewTable(cfg.Pricing)
	if err != nil {
		return fmt.Errorf("pricing table is invalid: %w", err)
	}
	priceCount := table.Len()

	if validateFlags.format == "json" {
		out := map[string]any{
			"valid":           true,
			"service":         cfg.Service.Name,
			"environment":     cfg.Service.Environment,
			"export_endpoint": cfg.Exporter.Endpoint,
			"priced_models":   priceCount,
			"usage_enabled":   cfg.Usage.Enabled,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println("Configuration is valid.")
	fmt.Println()
	fmt.Printf("Service:         %s (%s)\n", cfg.Service.Name, cfg.Service.Environment)
	if cfg.Exporter.Endpoint != "" {
		fmt.Printf("Export endpoint: %s\n", cfg.Exporter.Endpoint)
	} else {
		fmt.Println("Export endpoint: (not configured, spans stay local)")
	}
	fmt.Printf("Priced models:   %d\n", priceCount)
	if cfg.Usage.Enabled {
		fmt.Printf("Usage ledger:    %s (retention %d days)\n", cfg.Usage.Backend, cfg.Usage.RetentionDays)
	} else {
		fmt.Println("Usage ledger:    disabled")
	}

	return nil
}
