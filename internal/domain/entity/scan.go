package entity

import (
	"time"

	"github.com/google/uuid"

	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
)

// ScanStatus represents the lifecycle state of a scan
type ScanStatus string

// Scan statuses. The scan row is the authoritative source of truth for the
// scan lifecycle. Valid terminal transitions are running -> completed,
// running -> failed and running -> stopped.
const (
	ScanPending   ScanStatus = "pending"
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
	ScanStopped   ScanStatus = "stopped"
)

// Scan represents one execution of a project's query/model matrix
type Scan struct {
	ID           string
	ProjectID    string
	UserID       string
	Status       ScanStatus
	TotalQueries int
	TotalResults int
	TotalCostUsd string
	ErrorMessage string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// NewScan creates a running scan for the given project
func NewScan(projectID, userID string, totalQueries int, timeProvider coreport.TimeProvider) (*Scan, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}
	return &Scan{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		UserID:       userID,
		Status:       ScanRunning,
		TotalQueries: totalQueries,
		TotalCostUsd: "0.00",
		CreatedAt:    timeProvider.Now(),
	}, nil
}

// IsTerminal reports whether the scan has reached a final state
func (s *Scan) IsTerminal() bool {
	return s.Status == ScanCompleted || s.Status == ScanFailed || s.Status == ScanStopped
}

// Complete transitions running -> completed with final totals
func (s *Scan) Complete(totalResults int, totalCostUsd string, timeProvider coreport.TimeProvider) error {
	if s.Status != ScanRunning {
		return errs.NewInvalidStateError("scan", s.ID, string(s.Status), string(ScanRunning), "complete")
	}
	now := timeProvider.Now()
	s.Status = ScanCompleted
	s.TotalResults = totalResults
	s.TotalCostUsd = totalCostUsd
	s.CompletedAt = &now
	return nil
}

// Fail transitions running -> failed with an error message
func (s *Scan) Fail(errorMessage string, timeProvider coreport.TimeProvider) error {
	if s.Status != ScanRunning {
		return errs.NewInvalidStateError("scan", s.ID, string(s.Status), string(ScanRunning), "fail")
	}
	now := timeProvider.Now()
	s.Status = ScanFailed
	s.ErrorMessage = errorMessage
	s.CompletedAt = &now
	return nil
}

// Stop transitions running -> stopped. This is the only transition a user,
// rather than a worker, may request directly.
func (s *Scan) Stop(timeProvider coreport.TimeProvider) error {
	if s.Status != ScanRunning {
		return errs.NewInvalidStateError("scan", s.ID, string(s.Status), string(ScanRunning), "stop")
	}
	now := timeProvider.Now()
	s.Status = ScanStopped
	s.CompletedAt = &now
	return nil
}
