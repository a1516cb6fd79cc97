package llm

import (
	"context"

	"github.com/stretchr/testify/mock"

	llmport "github.com/brandlens/scan-engine/internal/domain/port/llm"
)

// MockModelCaller is a mock implementation of the ModelCaller port
type MockModelCaller struct {
	mock.Mock
}

func (m *MockModelCaller) CallModel(ctx context.Context, provider, model, systemPrompt, userPrompt string) (*llmport.ModelResponse, error) {
	args := m.Called(ctx, provider, model, systemPrompt, userPrompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llmport.ModelResponse), args.Error(1)
}

// MockPricer is a mock implementation of the Pricer port
type MockPricer struct {
	mock.Mock
}

func (m *MockPricer) PriceFor(provider, model string) (*llmport.Price, error) {
	args := m.Called(provider, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llmport.Price), args.Error(1)
}

// MockEvaluator is a mock implementation of the Evaluator port
type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) Evaluate(ctx context.Context, text string, brandVariants []string, domain string) (*llmport.BrandMetrics, error) {
	args := m.Called(ctx, text, brandVariants, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llmport.BrandMetrics), args.Error(1)
}
