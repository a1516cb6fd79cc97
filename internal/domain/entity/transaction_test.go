package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coremocks "github.com/brandlens/scan-engine/mocks/port/core"
)

func TestTransactionConstructors(t *testing.T) {
	fixedTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mockTime := new(coremocks.MockTimeProvider)
	mockTime.On("Now").Return(fixedTime)

	t.Run("Top-up is stored positive", func(t *testing.T) {
		txn, err := NewTopUpTransaction("user-1", 500, "pay-42", mockTime)

		require.NoError(t, err)
		assert.Equal(t, TransactionTopUp, txn.Type)
		assert.Equal(t, int64(500), txn.AmountCents)
		assert.Equal(t, ReferencePayment, txn.ReferenceType)
		assert.Equal(t, "pay-42", txn.ReferenceID)
		assert.True(t, txn.IsCredit())
	})

	t.Run("Usage is stored negated", func(t *testing.T) {
		txn, err := NewUsageTransaction("user-1", 250, "scan-1", mockTime)

		require.NoError(t, err)
		assert.Equal(t, TransactionUsage, txn.Type)
		assert.Equal(t, int64(-250), txn.AmountCents)
		assert.Equal(t, ReferenceScan, txn.ReferenceType)
		assert.Equal(t, "scan-1", txn.ReferenceID)
		assert.False(t, txn.IsCredit())
	})

	t.Run("Refund is stored positive with caller's reference", func(t *testing.T) {
		txn, err := NewRefundTransaction("user-1", 100, ReferenceManual, "support-7", mockTime)

		require.NoError(t, err)
		assert.Equal(t, TransactionRefund, txn.Type)
		assert.Equal(t, int64(100), txn.AmountCents)
		assert.Equal(t, ReferenceManual, txn.ReferenceType)
	})

	t.Run("Negative input amount is rejected", func(t *testing.T) {
		txn, err := NewUsageTransaction("user-1", -1, "scan-1", mockTime)

		assert.ErrorIs(t, err, errs.ErrNegativeAmount)
		assert.Nil(t, txn)
	})

	t.Run("Empty user ID is rejected", func(t *testing.T) {
		txn, err := NewTopUpTransaction("", 500, "pay-1", mockTime)

		assert.ErrorIs(t, err, errs.ErrInvalidUserID)
		assert.Nil(t, txn)
	})

	t.Run("Ledger entries sum to the balance", func(t *testing.T) {
		topUp, _ := NewTopUpTransaction("user-1", 1000, "pay-1", mockTime)
		usage, _ := NewUsageTransaction("user-1", 250, "scan-1", mockTime)
		refund, _ := NewRefundTransaction("user-1", 50, ReferenceScan, "scan-1", mockTime)

		sum := topUp.AmountCents + usage.AmountCents + refund.AmountCents

		assert.Equal(t, int64(800), sum)
	})
}
