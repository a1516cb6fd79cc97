package model

import (
	"time"
)

// QueueEntry represents the database model for queue entries. UpdatedAt is
// the worker liveness signal; the sweeper treats stale running rows as
// orphaned.
type QueueEntry struct {
	ID              string    `gorm:"primaryKey;size:36"`
	UserID          string    `gorm:"not null;size:255;index:idx_queue_user_status,priority:1"`
	ProjectID       string    `gorm:"not null;size:36;index"`
	ScanID          string    `gorm:"size:36;index"`
	Status          string    `gorm:"not null;size:50;index:idx_queue_user_status,priority:2;index:idx_queue_status_priority,priority:1"`
	Priority        int       `gorm:"not null;default:0;index:idx_queue_status_priority,priority:2"`
	ProgressCurrent int       `gorm:"default:0"`
	ProgressTotal   int       `gorm:"default:0"`
	ProgressMessage string    `gorm:"size:255"`
	ErrorMessage    string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"not null"`
	StartedAt       *time.Time
	UpdatedAt       time.Time `gorm:"not null;index"`
}

// TableName specifies the table name for QueueEntry
func (QueueEntry) TableName() string {
	return "queue_entries"
}
