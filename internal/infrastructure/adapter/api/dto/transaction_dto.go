package dto

import "time"

// TransactionResponse represents one ledger entry in API responses
type TransactionResponse struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	ReferenceType string    `json:"referenceType,omitempty"`
	ReferenceID   string    `json:"referenceId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TransactionListResponse wraps a user's ledger entries
type TransactionListResponse struct {
	UserID       string                `json:"userId"`
	Transactions []TransactionResponse `json:"transactions"`
}
