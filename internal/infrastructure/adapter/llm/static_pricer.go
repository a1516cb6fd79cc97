package llm

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	errs "github.com/brandlens/scan-engine/internal/domain/error"
	llmport "github.com/brandlens/scan-engine/internal/domain/port/llm"
	"github.com/brandlens/scan-engine/internal/infrastructure/config"
)

// StaticPricer resolves model pricing from the configured table. The table
// is parsed once at startup; unknown pairs are a hard error so a scan never
// runs against a model whose cost cannot be bounded.
type StaticPricer struct {
	prices map[string]*llmport.Price
}

// NewStaticPricer builds a pricer from the configured pricing table
func NewStaticPricer(cfg config.LLMConfig) (*StaticPricer, error) {
	prices := make(map[string]*llmport.Price, len(cfg.Models))
	for key, entry := range cfg.Models {
		inputRate, err := decimal.NewFromString(entry.InputCostPerToken)
		if err != nil {
			return nil, errs.NewConfigError("llm.models."+key+".inputCostPerToken", entry.InputCostPerToken, "not a decimal number")
		}
		outputRate, err := decimal.NewFromString(entry.OutputCostPerToken)
		if err != nil {
			return nil, errs.NewConfigError("llm.models."+key+".outputCostPerToken", entry.OutputCostPerToken, "not a decimal number")
		}
		if inputRate.IsNegative() || outputRate.IsNegative() {
			return nil, errs.NewConfigError("llm.models."+key, entry, "rates must be non-negative")
		}
		if entry.MaxTokensIn <= 0 || entry.MaxTokensOut <= 0 {
			return nil, errs.NewConfigError("llm.models."+key, entry, "token bounds must be positive")
		}

		prices[strings.ToLower(key)] = &llmport.Price{
			InputCostPerToken:  inputRate,
			OutputCostPerToken: outputRate,
			MaxTokensIn:        entry.MaxTokensIn,
			MaxTokensOut:       entry.MaxTokensOut,
		}
	}
	return &StaticPricer{prices: prices}, nil
}

// PriceFor resolves pricing for a provider/model pair
func (p *StaticPricer) PriceFor(provider, model string) (*llmport.Price, error) {
	key := strings.ToLower(provider + "/" + model)
	price, ok := p.prices[key]
	if !ok {
		return nil, fmt.Errorf("%w: no pricing for %s", errs.ErrNotFound, key)
	}
	return price, nil
}
