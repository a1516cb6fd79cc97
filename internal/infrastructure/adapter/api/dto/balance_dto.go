package dto

// BalanceResponse represents the API response for a user's balance
type BalanceResponse struct {
	UserID    string `json:"userId"`
	Available string `json:"available"`
	Reserved  string `json:"reserved"`
	Total     string `json:"total"`
}

// TopUpRequest represents a credit purchase request. Amount is a decimal
// string with at most two decimal places.
type TopUpRequest struct {
	Amount      string `json:"amount" binding:"required"`
	ReferenceID string `json:"referenceId"`
}
