package model

import (
	"time"
)

// ScheduleHistory represents the database model for dispatch audit records
type ScheduleHistory struct {
	ID           string    `gorm:"primaryKey;size:36"`
	ProjectID    string    `gorm:"not null;size:36;index"`
	ScheduledFor time.Time `gorm:"not null"`
	Status       string    `gorm:"not null;size:50"`
	ErrorMessage string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
	CompletedAt  *time.Time
}

// TableName specifies the table name for ScheduleHistory
func (ScheduleHistory) TableName() string {
	return "schedule_history"
}
