package model

import (
	"time"
)

// Scan represents the database model for scans
type Scan struct {
	ID           string    `gorm:"primaryKey;size:36"`
	ProjectID    string    `gorm:"not null;size:36;index"`
	UserID       string    `gorm:"not null;size:255;index:idx_scans_user_status,priority:1"`
	Status       string    `gorm:"not null;size:50;index:idx_scans_user_status,priority:2;index:idx_scans_status_created,priority:1"`
	TotalQueries int       `gorm:"not null"`
	TotalResults int       `gorm:"default:0"`
	TotalCostUsd string    `gorm:"size:50"`
	ErrorMessage string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null;index:idx_scans_status_created,priority:2"`
	CompletedAt  *time.Time
}

// TableName specifies the table name for Scan
func (Scan) TableName() string {
	return "scans"
}
