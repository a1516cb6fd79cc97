package model

import (
	"time"
)

// Transaction represents the database model for ledger entries. Rows are
// append-only; there is no update path.
type Transaction struct {
	ID            string    `gorm:"primaryKey;size:36"`
	UserID        string    `gorm:"not null;size:255;index:idx_transactions_user_created,priority:1"`
	Type          string    `gorm:"not null;size:50"`
	AmountCents   int64     `gorm:"not null"` // Signed: credits positive, debits negative
	ReferenceType string    `gorm:"size:50"`
	ReferenceID   string    `gorm:"size:255;index"`
	CreatedAt     time.Time `gorm:"not null;index:idx_transactions_user_created,priority:2"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}
