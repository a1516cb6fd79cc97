package entity

import (
	"time"

	"github.com/google/uuid"

	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
)

// TransactionType classifies a ledger entry
type TransactionType string

// Transaction types
const (
	TransactionTopUp  TransactionType = "top_up"
	TransactionUsage  TransactionType = "usage"
	TransactionRefund TransactionType = "refund"
)

// ReferenceType identifies what a ledger entry points at
type ReferenceType string

// Reference types
const (
	ReferenceScan    ReferenceType = "scan"
	ReferencePayment ReferenceType = "payment"
	ReferenceManual  ReferenceType = "manual"
)

// Transaction is an immutable, append-only ledger entry. AmountCents is
// signed: positive for top-ups and refunds, negative for usage. The sum of a
// user's entries equals their total balance (available + reserved), which is
// the consistency check against the cached Account row.
type Transaction struct {
	ID            string
	UserID        string
	Type          TransactionType
	AmountCents   int64
	ReferenceType ReferenceType
	ReferenceID   string
	CreatedAt     time.Time
}

// NewTopUpTransaction records funds added to a user's balance
func NewTopUpTransaction(userID string, amountCents int64, referenceID string, timeProvider coreport.TimeProvider) (*Transaction, error) {
	return newTransaction(userID, TransactionTopUp, amountCents, ReferencePayment, referenceID, timeProvider)
}

// NewUsageTransaction records metered spend against a scan.
// amountCents is the positive actual cost; it is stored negated.
func NewUsageTransaction(userID string, amountCents int64, scanID string, timeProvider coreport.TimeProvider) (*Transaction, error) {
	txn, err := newTransaction(userID, TransactionUsage, amountCents, ReferenceScan, scanID, timeProvider)
	if err != nil {
		return nil, err
	}
	txn.AmountCents = -txn.AmountCents
	return txn, nil
}

// NewRefundTransaction records funds returned to a user's balance
func NewRefundTransaction(userID string, amountCents int64, referenceType ReferenceType, referenceID string, timeProvider coreport.TimeProvider) (*Transaction, error) {
	return newTransaction(userID, TransactionRefund, amountCents, referenceType, referenceID, timeProvider)
}

func newTransaction(
	userID string,
	txnType TransactionType,
	amountCents int64,
	referenceType ReferenceType,
	referenceID string,
	timeProvider coreport.TimeProvider,
) (*Transaction, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}
	if amountCents < 0 {
		return nil, errs.ErrNegativeAmount
	}
	return &Transaction{
		ID:            uuid.NewString(),
		UserID:        userID,
		Type:          txnType,
		AmountCents:   amountCents,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		CreatedAt:     timeProvider.Now(),
	}, nil
}

// IsCredit returns true if this entry increases the user's total balance
func (t *Transaction) IsCredit() bool {
	return t.AmountCents >= 0
}
