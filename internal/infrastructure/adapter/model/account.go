package model

import (
	"time"
)

// Account represents the database model for balance accounts
type Account struct {
	UserID         string    `gorm:"primaryKey;size:255"`
	AvailableCents int64     `gorm:"not null"` // Spendable balance in cents
	ReservedCents  int64     `gorm:"not null"` // Held by active reservations, in cents
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "accounts"
}
