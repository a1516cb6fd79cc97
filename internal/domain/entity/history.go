package entity

import (
	"time"

	"github.com/google/uuid"

	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
)

// HistoryStatus represents the state of a scheduled-run audit record
type HistoryStatus string

// History statuses
const (
	HistoryPending   HistoryStatus = "pending"
	HistoryCompleted HistoryStatus = "completed"
	HistoryFailed    HistoryStatus = "failed"
)

// ScheduleHistory is the audit trail of dispatch cycles: one record per due
// project per cycle, written once and only mutated to close out its status.
type ScheduleHistory struct {
	ID           string
	ProjectID    string
	ScheduledFor time.Time
	Status       HistoryStatus
	ErrorMessage string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// NewScheduleHistory creates a pending audit record for one dispatch of a project
func NewScheduleHistory(projectID string, scheduledFor time.Time, timeProvider coreport.TimeProvider) *ScheduleHistory {
	return &ScheduleHistory{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		ScheduledFor: scheduledFor,
		Status:       HistoryPending,
		CreatedAt:    timeProvider.Now(),
	}
}

// Close finalizes the record. Closing an already-closed record is rejected
// since the audit trail is write-once.
func (h *ScheduleHistory) Close(status HistoryStatus, errorMessage string, timeProvider coreport.TimeProvider) error {
	if h.Status != HistoryPending {
		return errs.NewInvalidStateError("schedule_history", h.ID, string(h.Status), string(HistoryPending), "close")
	}
	now := timeProvider.Now()
	h.Status = status
	h.ErrorMessage = errorMessage
	h.CompletedAt = &now
	return nil
}
