// Package costs provides cost accounting for generation calls: pricing,
// the append-only ledger, and session cost reports.
package costs

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// Price holds per-1k-token prices for one model.
type Price struct {
	Prompt     float64 `yaml:"prompt"`
	Completion float64 `yaml:"completion"`
}

// FallbackModel is the pricing tier used for unknown model ids. Missing
// pricing data never blocks the journey; it bills at this tier instead.
const FallbackModel = "anthropic/claude-3-haiku"

// defaultPricing is the built-in pricing table (per 1k tokens).
var defaultPricing = map[string]Price{
	"anthropic/claude-3.5-sonnet":        {Prompt: 0.003, Completion: 0.015},
	"anthropic/claude-3-haiku":           {Prompt: 0.00025, Completion: 0.00125},
	"meta-llama/llama-3.1-8b-instruct":   {Prompt: 0.00005, Completion: 0.00005},
	"meta-llama/llama-3.2-3b-instruct":   {Prompt: 0.00002, Completion: 0.00002},
}

// Pricing is a concurrent-safe model pricing table. The built-in defaults can
// be overridden at runtime from a YAML file (see LoadFile and PricingWatcher).
type Pricing struct {
	mu     sync.RWMutex
	prices map[string]Price
}

// NewPricing returns a pricing table seeded with the built-in defaults.
func NewPricing() *Pricing {
	prices := make(map[string]Price, len(defaultPricing))
	for model, price := range defaultPricing {
		prices[model] = price
	}
	return &Pricing{prices: prices}
}

// PriceFor returns the price for a model, falling back to the default tier
// for unknown ids.
func (p *Pricing) PriceFor(model string) Price {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if price, ok := p.prices[model]; ok {
		return price
	}
	return p.prices[FallbackModel]
}

// Cost computes the cost of a call:
// (prompt_tokens/1000)*price.prompt + (completion_tokens/1000)*price.completion.
func (p *Pricing) Cost(usage models.Usage, model string) float64 {
	price := p.PriceFor(model)
	promptCost := float64(usage.PromptTokens) / 1000 * price.Prompt
	completionCost := float64(usage.CompletionTokens) / 1000 * price.Completion
	return promptCost + completionCost
}

// LoadFile merges model prices from a YAML file into the table. Models not
// present in the file keep their current price.
func (p *Pricing) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read pricing file: %w", err)
	}

	var overrides map[string]Price
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse pricing file: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for model, price := range overrides {
		p.prices[model] = price
	}
	return nil
}
