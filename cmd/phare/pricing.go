package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"phare-hq/phare/pkg/config"
	"phare-hq/phare/pkg/pricing"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Model pricing lookups and cost estimates",
	Long: `Inspect the model pricing table and estimate call costs.

Prices are expressed in USD per million tokens, with separate prompt and
completion rates. The built-in table is used unless the configuration
points at a pricing file.`,
}

var pricingCostFlags struct {
	model            string
	promptTokens     int64
	completionTokens int64
}

var pricingCostCmd = &cobra.Command{
	Use:   "cost",
	Short: "Estimate the cost of a model call",
	Long: `Estimate the USD cost of a model call from its token usage.

Examples:
  # Cost of a call with 1000 prompt and 500 completion tokens
  phare pricing cost --model gemini-2.5-flash --prompt-tokens 1000 --completion-tokens 500

  # Against a custom pricing file
  phare pricing cost --config phare.yaml --model custom-model --prompt-tokens 2000`,
	RunE: estimateCost,
}

var pricingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the pricing table",
	Long: `Print every model in the pricing table with its prompt and
completion rates in USD per million tokens.

Examples:
  # Built-in table
  phare pricing show

  # Table with a pricing file applied
  phare pricing show --config phare.yaml`,
	RunE: showPricing,
}

var pricingFormat string

func init() {
	rootCmd.AddCommand(pricingCmd)
	pricingCmd.AddCommand(pricingCostCmd)
	pricingCmd.AddCommand(pricingShowCmd)

	pricingCmd.PersistentFlags().StringVar(&pricingFormat, "format", "text", "output format: text, json")

	pricingCostCmd.Flags().StringVarP(&pricingCostFlags.model, "model", "m", "", "model name (required)")
	pricingCostCmd.Flags().Int64Var(&pricingCostFlags.promptTokens, "prompt-tokens", 0, "prompt token count")
	pricingCostCmd.Flags().Int64Var(&pricingCostFlags.completionTokens, "completion-tokens", 0, "completion token count")
	pricingCostCmd.MarkFlagRequired("model")
}

// loadPricingTable builds the table from the configured pricing file, or
// the built-in table when no config is given.
func loadPricingTable() (*pricing.Table, error) {
	if cfgFile == "" {
		return pricing.NewTable(config.DefaultConfig().Pricing)
	}
	if err := config.Initialize(cfgFile); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return pricing.NewTable(config.GetConfig().Pricing)
}

func estimateCost(cmd *cobra.Command, args []string) error {
	table, err := loadPricingTable()
	if err != nil {
		return err
	}

	price, known := table.Lookup(pricingCostFlags.model)
	cost := table.Cost(pricingCostFlags.model, pricingCostFlags.promptTokens, pricingCostFlags.completionTokens)

	if pricingFormat == "json" {
		out := map[string]any{
			"model":             pricingCostFlags.model,
			"known":             known,
			"prompt_tokens":     pricingCostFlags.promptTokens,
			"completion_tokens": pricingCostFlags.completionTokens,
			"prompt_price":      price.Prompt,
			"completion_price":  price.Completion,
			"cost_usd":          cost,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Model:             %s\n", pricingCostFlags.model)
	if !known {
		fmt.Println("                   (not in table, default rates applied)")
	}
	fmt.Printf("Prompt tokens:     %d @ $%.4f/M\n", pricingCostFlags.promptTokens, price.Prompt)
	fmt.Printf("Completion tokens: %d @ $%.4f/M\n", pricingCostFlags.completionTokens, price.Completion)
	fmt.Printf("Cost:              $%.6f\n", cost)

	return nil
}

func showPricing(cmd *cobra.Command, args []string) error {
	table, err := loadPricingTable()
	if err != nil {
		return err
	}

	models := table.Models()
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)

	if pricingFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tPROMPT ($/M)\tCOMPLETION ($/M)")
	for _, name := range names {
		price := models[name]
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", name, price.Prompt, price.Completion)
	}
	return w.Flush()
}
