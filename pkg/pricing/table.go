package pricing

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"phare-hq/phare/pkg/config"

	"gopkg.in/yaml.v3"
)

// Price holds per-model token prices in USD per million tokens.
type Price struct {
	// Prompt is the price per million prompt tokens.
	Prompt float64 `yaml:"prompt"`

	// Completion is the price per million completion tokens.
	Completion float64 `yaml:"completion"`
}

// Table maps model names to prices and computes per-call costs.
// It is safe for concurrent use and supports hot reload through LoadFile.
type Table struct {
	mu           sync.RWMutex
	models       map[string]Price
	defaultPrice Price
}

// builtinPrices covers the models commonly seen in agent workloads.
// A pricing file extends or overrides these entries.
var builtinPrices = map[string]Price{
	"gpt-4o":            {Prompt: 2.50, Completion: 10.00},
	"gpt-4o-mini":       {Prompt: 0.15, Completion: 0.60},
	"gpt-4.1":           {Prompt: 2.00, Completion: 8.00},
	"gpt-4.1-mini":      {Prompt: 0.40, Completion: 1.60},
	"gemini-2.5-pro":    {Prompt: 1.25, Completion: 10.00},
	"gemini-2.5-flash":  {Prompt: 0.30, Completion: 2.50},
	"gemini-2.0-flash":  {Prompt: 0.10, Completion: 0.40},
	"claude-sonnet-4-0": {Prompt: 3.00, Completion: 15.00},
	"claude-haiku-3-5":  {Prompt: 0.80, Completion: 4.00},
}

// NewTable builds a pricing table from configuration. The built-in prices
// seed the table; when cfg.Path is set the file is loaded on top.
func NewTable(cfg config.PricingConfig) (*Table, error) {
	models := make(map[string]Price, len(builtinPrices))
	for k, v := range builtinPrices {
		models[k] = v
	}

	t := &Table{
		models: models,
		defaultPrice: Price{
			Prompt:     cfg.DefaultPrompt,
			Completion: cfg.DefaultCompletion,
		},
	}

	if cfg.Path != "" {
		if err := t.LoadFile(cfg.Path); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// LoadFile merges prices from a YAML file into the table. Existing entries
// with the same model name are replaced; on parse errors the table is left
// unchanged.
func (t *Table) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read pricing file %q: %w", path, err)
	}

	var loaded map[string]Price
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse pricing file %q: %w", path, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for model, price := range loaded {
		t.models[normalizeModel(model)] = price
	}
	return nil
}

// Lookup returns the price for a model, falling back to the default price
// for unknown models. The second return value reports whether the model
// was present in the table.
func (t *Table) Lookup(model string) (Price, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if price, ok := t.models[normalizeModel(model)]; ok {
		return price, true
	}
	return t.defaultPrice, false
}

// Cost computes the USD cost of a call from its token usage.
func (t *Table) Cost(model string, promptTokens, completionTokens int64) float64 {
	price, _ := t.Lookup(model)
	return float64(promptTokens)*price.Prompt/1e6 + float64(completionTokens)*price.Completion/1e6
}

// Len returns the number of models in the table.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.models)
}

// Models returns a copy of the table contents keyed by model name.
func (t *Table) Models() map[string]Price {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]Price, len(t.models))
	for name, price := range t.models {
		out[name] = price
	}
	return out
}

// normalizeModel lowercases and trims a model name for lookup.
func normalizeModel(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}
