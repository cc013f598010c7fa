package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"phare-hq/phare/pkg/config"
	"phare-hq/phare/pkg/usage"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Query the local usage ledger",
	Long: `Query and maintain the local token usage ledger.

The ledger records token counts and USD cost per model call. These
commands operate on the SQLite backend configured in the config file;
the in-memory backend has no state outside a running process.`,
}

var usageTotalsFlags struct {
	since   time.Duration
	session string
}

var usageTotalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Print aggregated token and cost totals",
	Long: `Print aggregated token counts and USD cost from the ledger.

Examples:
  # Totals for the last 24 hours
  phare usage totals --config phare.yaml --since 24h

  # Totals for one session
  phare usage totals --config phare.yaml --session "b2f1c7d0-..."`,
	RunE: usageTotals,
}

var usagePruneFlags struct {
	olderThan time.Duration
}

var usagePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old usage records",
	Long: `Delete usage records older than the given age.

Examples:
  # Drop records older than 30 days
  phare usage prune --config phare.yaml --older-than 720h`,
	RunE: usagePrune,
}

var usageFormat string

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.AddCommand(usageTotalsCmd)
	usageCmd.AddCommand(usagePruneCmd)

	usageCmd.PersistentFlags().StringVar(&usageFormat, "format", "text", "output format: text, json")

	usageTotalsCmd.Flags().DurationVar(&usageTotalsFlags.since, "since", 24*time.Hour, "aggregation window")
	usageTotalsCmd.Flags().StringVar(&usageTotalsFlags.session, "session", "", "aggregate a single session instead of a time window")

	usagePruneCmd.Flags().DurationVar(&usagePruneFlags.olderThan, "older-than", 0, "delete records older than this age (required)")
	usagePruneCmd.MarkFlagRequired("older-than")
}

// openLedger opens the configured ledger backend for a one-shot query.
func openLedger() (usage.Backend, error) {
	if cfgFile == "" {
		return nil, fmt.Errorf("--config is required for ledger queries")
	}
	if err := config.Initialize(cfgFile); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.GetConfig()
	if !cfg.Usage.Enabled {
		return nil, fmt.Errorf("usage ledger is disabled in configuration")
	}
	return usage.NewBackend(cfg.Usage)
}

func usageTotals(cmd *cobra.Command, args []string) error {
	backend, err := openLedger()
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx := context.Background()
	var totals *usage.Totals
	if usageTotalsFlags.session != "" {
		totals, err = backend.SessionTotals(ctx, usageTotalsFlags.session)
	} else {
		totals, err = backend.TotalsSince(ctx, time.Now().Add(-usageTotalsFlags.since))
	}
	if err != nil {
		return fmt.Errorf("ledger query failed: %w", err)
	}

	if usageFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(totals)
	}

	if usageTotalsFlags.session != "" {
		fmt.Printf("Session:           %s\n", usageTotalsFlags.session)
	} else {
		fmt.Printf("Window:            last %s\n", usageTotalsFlags.since)
	}
	fmt.Printf("Records:           %d\n", totals.Records)
	fmt.Printf("Prompt tokens:     %d\n", totals.PromptTokens)
	fmt.Printf("Completion tokens: %d\n", totals.CompletionTokens)
	fmt.Printf("Cost:              $%.6f\n", totals.CostUSD)

	return nil
}

func usagePrune(cmd *cobra.Command, args []string) error {
	backend, err := openLedger()
	if err != nil {
		return err
	}
	defer backend.Close()

	cutoff := time.Now().Add(-usagePruneFlags.olderThan)
	deleted, err := backend.Prune(context.Background(), cutoff)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	if usageFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"deleted": deleted, "cutoff": cutoff})
	}

	fmt.Printf("Deleted %d records older than %s\n", deleted, cutoff.Format(time.RFC3339))
	return nil
}
