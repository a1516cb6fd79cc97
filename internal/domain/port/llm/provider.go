package llm

import (
	"context"

	"github.com/shopspring/decimal"
)

// ModelResponse is the raw outcome of one provider call
type ModelResponse struct {
	Text      string
	TokensIn  int
	TokensOut int
}

// ModelCaller is the opaque capability for executing one prompt against one
// provider/model pair. Calls may fail with provider errors or time out; the
// caller bounds each call with a context deadline.
type ModelCaller interface {
	CallModel(ctx context.Context, provider, model, systemPrompt, userPrompt string) (*ModelResponse, error)
}

// Price carries per-token USD rates plus the token bounds used for
// worst-case cost estimation
type Price struct {
	InputCostPerToken  decimal.Decimal
	OutputCostPerToken decimal.Decimal
	MaxTokensIn        int
	MaxTokensOut       int
}

// Pricer resolves pricing for a provider/model pair
//
// Possible errors:
// - ErrNotFound: If no pricing is known for the pair
type Pricer interface {
	PriceFor(provider, model string) (*Price, error)
}

// BrandMetrics is the scored outcome of one model response
type BrandMetrics struct {
	Mentioned    bool
	MentionCount int
	DomainCited  bool
}

// Evaluator scores a model response against a brand. The scoring heuristics
// themselves live outside this engine.
type Evaluator interface {
	Evaluate(ctx context.Context, text string, brandVariants []string, domain string) (*BrandMetrics, error)
}

// CostCents converts a token usage into cents using decimal arithmetic,
// rounding up once at the end so fractional cents always charge the full
// cent and float drift never reaches the ledger.
func CostCents(price *Price, tokensIn, tokensOut int) int64 {
	usd := price.InputCostPerToken.Mul(decimal.NewFromInt(int64(tokensIn))).
		Add(price.OutputCostPerToken.Mul(decimal.NewFromInt(int64(tokensOut))))
	return usd.Mul(decimal.NewFromInt(100)).Ceil().IntPart()
}

// EstimateCallCents returns the worst-case cost of one call against the
// price's token bounds. Reservations are sized from this bound.
func EstimateCallCents(price *Price) int64 {
	return CostCents(price, price.MaxTokensIn, price.MaxTokensOut)
}
