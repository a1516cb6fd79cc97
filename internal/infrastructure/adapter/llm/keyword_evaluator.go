package llm

import (
	"context"
	"strings"

	llmport "github.com/brandlens/scan-engine/internal/domain/port/llm"
)

// KeywordEvaluator scores responses by case-insensitive substring matching
// against the brand variants and domain. Deliberately simple; richer scoring
// plugs in behind the same port.
type KeywordEvaluator struct{}

// NewKeywordEvaluator creates a keyword evaluator
func NewKeywordEvaluator() *KeywordEvaluator {
	return &KeywordEvaluator{}
}

// Evaluate scores one model response against a brand
func (e *KeywordEvaluator) Evaluate(_ context.Context, text string, brandVariants []string, domain string) (*llmport.BrandMetrics, error) {
	lower := strings.ToLower(text)

	metrics := &llmport.BrandMetrics{}
	for _, variant := range brandVariants {
		v := strings.ToLower(strings.TrimSpace(variant))
		if v == "" {
			continue
		}
		metrics.MentionCount += strings.Count(lower, v)
	}
	metrics.Mentioned = metrics.MentionCount > 0

	if d := strings.ToLower(strings.TrimSpace(domain)); d != "" {
		metrics.DomainCited = strings.Contains(lower, d)
	}
	return metrics, nil
}
