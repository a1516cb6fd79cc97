package model

import (
	"time"
)

// ScanResult represents the database model for per query/model result rows
type ScanResult struct {
	ID           string    `gorm:"primaryKey;size:36"`
	ScanID       string    `gorm:"not null;size:36;index"`
	Query        string    `gorm:"not null;type:text"`
	Provider     string    `gorm:"not null;size:100"`
	Model        string    `gorm:"not null;size:100"`
	ResponseText string    `gorm:"type:text"`
	TokensIn     int       `gorm:"default:0"`
	TokensOut    int       `gorm:"default:0"`
	CostCents    int64     `gorm:"default:0"`
	Failed       bool      `gorm:"not null;default:false"`
	ErrorMessage string    `gorm:"type:text"`
	Mentioned    bool      `gorm:"not null;default:false"`
	MentionCount int       `gorm:"default:0"`
	DomainCited  bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName specifies the table name for ScanResult
func (ScanResult) TableName() string {
	return "scan_results"
}
