package entity

import (
	"time"

	"github.com/google/uuid"

	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
)

// QueueStatus represents the lifecycle state of a queue entry
type QueueStatus string

// Queue entry statuses. pending -> running on worker claim;
// running -> completed or failed on worker finish.
const (
	QueuePending   QueueStatus = "pending"
	QueueRunning   QueueStatus = "running"
	QueueCompleted QueueStatus = "completed"
	QueueFailed    QueueStatus = "failed"
)

// QueueEntry is one unit of dispatchable scan work, tracked independently of
// the Scan it eventually creates. ScanID stays empty until the claiming
// worker creates the scan row. Liveness is judged from UpdatedAt, which
// workers touch on every progress update.
type QueueEntry struct {
	ID              string
	UserID          string
	ProjectID       string
	ScanID          string
	Status          QueueStatus
	Priority        int
	ProgressCurrent int
	ProgressTotal   int
	ProgressMessage string
	ErrorMessage    string
	CreatedAt       time.Time
	StartedAt       *time.Time
	UpdatedAt       time.Time
}

// NewQueueEntry creates a pending queue entry for a project scan
func NewQueueEntry(userID, projectID string, priority int, timeProvider coreport.TimeProvider) (*QueueEntry, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}
	now := timeProvider.Now()
	return &QueueEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProjectID: projectID,
		Status:    QueuePending,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsTerminal reports whether the entry has reached a final state
func (q *QueueEntry) IsTerminal() bool {
	return q.Status == QueueCompleted || q.Status == QueueFailed
}

// Start transitions pending -> running. The repository performs the atomic
// claim; this keeps the in-memory entry consistent after a won claim.
func (q *QueueEntry) Start(timeProvider coreport.TimeProvider) error {
	if q.Status != QueuePending {
		return errs.NewInvalidStateError("queue_entry", q.ID, string(q.Status), string(QueuePending), "start")
	}
	now := timeProvider.Now()
	q.Status = QueueRunning
	q.StartedAt = &now
	q.UpdatedAt = now
	return nil
}

// AttachScan links the scan created by the claiming worker
func (q *QueueEntry) AttachScan(scanID string, timeProvider coreport.TimeProvider) {
	q.ScanID = scanID
	q.UpdatedAt = timeProvider.Now()
}

// UpdateProgress records work progress and refreshes the liveness timestamp
func (q *QueueEntry) UpdateProgress(current, total int, message string, timeProvider coreport.TimeProvider) {
	q.ProgressCurrent = current
	q.ProgressTotal = total
	q.ProgressMessage = message
	q.UpdatedAt = timeProvider.Now()
}

// Complete transitions running -> completed
func (q *QueueEntry) Complete(timeProvider coreport.TimeProvider) error {
	if q.Status != QueueRunning {
		return errs.NewInvalidStateError("queue_entry", q.ID, string(q.Status), string(QueueRunning), "complete")
	}
	q.Status = QueueCompleted
	q.UpdatedAt = timeProvider.Now()
	return nil
}

// Fail transitions running or pending -> failed with an error message
func (q *QueueEntry) Fail(errorMessage string, timeProvider coreport.TimeProvider) error {
	if q.IsTerminal() {
		return errs.NewInvalidStateError("queue_entry", q.ID, string(q.Status), string(QueueRunning), "fail")
	}
	q.Status = QueueFailed
	q.ErrorMessage = errorMessage
	q.UpdatedAt = timeProvider.Now()
	return nil
}
