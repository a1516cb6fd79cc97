package model

import (
	"time"
)

// Reservation represents the database model for credit reservations.
// The partial unique constraint on (scan_id) where status = 'active' is
// created by migrations; at most one active reservation may exist per scan.
type Reservation struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserID      string    `gorm:"not null;size:255;index"`
	ScanID      string    `gorm:"not null;size:36;index"`
	AmountCents int64     `gorm:"not null"`
	Status      string    `gorm:"not null;size:50;index"`
	Reason      string    `gorm:"size:255"`
	CreatedAt   time.Time `gorm:"not null"`
	ClosedAt    *time.Time
}

// TableName specifies the table name for Reservation
func (Reservation) TableName() string {
	return "reservations"
}
