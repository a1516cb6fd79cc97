package entity

import (
	"time"

	"github.com/google/uuid"

	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
)

// ScanResult is one query/model cell of a scan's execution matrix. Failed
// provider calls are recorded as result rows too, so a scan's history shows
// which cells failed without aborting the whole scan.
type ScanResult struct {
	ID           string
	ScanID       string
	Query        string
	Provider     string
	Model        string
	ResponseText string
	TokensIn     int
	TokensOut    int
	CostCents    int64
	Failed       bool
	ErrorMessage string
	Mentioned    bool
	MentionCount int
	DomainCited  bool
	CreatedAt    time.Time
}

// NewScanResult records a successful provider response
func NewScanResult(scanID, query, provider, model, responseText string, tokensIn, tokensOut int, costCents int64, timeProvider coreport.TimeProvider) *ScanResult {
	return &ScanResult{
		ID:           uuid.NewString(),
		ScanID:       scanID,
		Query:        query,
		Provider:     provider,
		Model:        model,
		ResponseText: responseText,
		TokensIn:     tokensIn,
		TokensOut:    tokensOut,
		CostCents:    costCents,
		CreatedAt:    timeProvider.Now(),
	}
}

// NewFailedScanResult records a provider call that failed or timed out
func NewFailedScanResult(scanID, query, provider, model, errorMessage string, timeProvider coreport.TimeProvider) *ScanResult {
	return &ScanResult{
		ID:           uuid.NewString(),
		ScanID:       scanID,
		Query:        query,
		Provider:     provider,
		Model:        model,
		Failed:       true,
		ErrorMessage: errorMessage,
		CreatedAt:    timeProvider.Now(),
	}
}
