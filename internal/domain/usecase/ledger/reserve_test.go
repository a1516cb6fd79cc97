package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	errs "github.com/brandlens/scan-engine/internal/domain/error"
)

func TestService_Reserve(t *testing.T) {
	fixedTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should move funds from available to reserved", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)
		m.expectTx(ctx)

		account := testAccount("user-1", 1000, 0, fixedTime)
		m.accounts.On("GetByUserIDForUpdate", ctx, "user-1").Return(account, nil)
		m.reservations.On("Create", ctx, mock.MatchedBy(func(r *entity.Reservation) bool {
			return r.UserID == "user-1" &&
				r.ScanID == "scan-1" &&
				r.AmountCents == 400 &&
				r.Status == entity.ReservationActive
		})).Return(nil)
		m.accounts.On("Update", ctx, account).Return(nil)

		reservation, err := m.service().Reserve(ctx, "user-1", 400, "scan-1")

		assert.NoError(t, err)
		assert.NotEmpty(t, reservation.ID)
		assert.Equal(t, int64(600), account.AvailableCents)
		assert.Equal(t, int64(400), account.ReservedCents)
		m.uow.AssertExpectations(t)
		m.reservations.AssertExpectations(t)
	})

	t.Run("should deny reservation exceeding available balance", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.expectTxRollback(ctx)

		account := testAccount("user-1", 300, 0, fixedTime)
		m.accounts.On("GetByUserIDForUpdate", ctx, "user-1").Return(account, nil)

		reservation, err := m.service().Reserve(ctx, "user-1", 400, "scan-1")

		assert.Nil(t, reservation)
		assert.ErrorIs(t, err, errs.ErrInsufficientFunds)
		assert.Equal(t, int64(300), account.AvailableCents)
		assert.Equal(t, int64(0), account.ReservedCents)
		m.reservations.AssertNotCalled(t, "Create")
		m.uow.AssertNotCalled(t, "Commit")
	})

	t.Run("should deny when reserved funds do not count as available", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.expectTxRollback(ctx)

		// Total balance is 1000 but 700 is already held elsewhere.
		account := testAccount("user-1", 300, 700, fixedTime)
		m.accounts.On("GetByUserIDForUpdate", ctx, "user-1").Return(account, nil)

		reservation, err := m.service().Reserve(ctx, "user-1", 500, "scan-2")

		assert.Nil(t, reservation)
		assert.ErrorIs(t, err, errs.ErrInsufficientFunds)
	})

	t.Run("should allow zero amount reservation", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)
		m.expectTx(ctx)

		account := testAccount("user-1", 0, 0, fixedTime)
		m.accounts.On("GetByUserIDForUpdate", ctx, "user-1").Return(account, nil)
		m.reservations.On("Create", ctx, mock.Anything).Return(nil)
		m.accounts.On("Update", ctx, account).Return(nil)

		reservation, err := m.service().Reserve(ctx, "user-1", 0, "scan-1")

		assert.NoError(t, err)
		assert.Equal(t, int64(0), reservation.AmountCents)
	})

	t.Run("should reject negative amount", func(t *testing.T) {
		m := newTestMocks()

		reservation, err := m.service().Reserve(context.Background(), "user-1", -5, "scan-1")

		assert.Nil(t, reservation)
		assert.ErrorIs(t, err, errs.ErrNegativeAmount)
		m.uow.AssertNotCalled(t, "Begin")
	})

	t.Run("should provision account for first-time user", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)
		m.expectTxRollback(ctx)

		fresh := testAccount("user-new", 0, 0, fixedTime)
		m.accounts.On("GetByUserIDForUpdate", ctx, "user-new").Return(nil, errs.ErrAccountNotFound).Once()
		m.accounts.On("Create", ctx, mock.Anything).Return(nil)
		m.accounts.On("GetByUserIDForUpdate", ctx, "user-new").Return(fresh, nil).Once()

		// A fresh account has no funds, so the reservation is denied, but
		// the account row now exists.
		reservation, err := m.service().Reserve(ctx, "user-new", 100, "scan-1")

		assert.Nil(t, reservation)
		assert.ErrorIs(t, err, errs.ErrInsufficientFunds)
		m.accounts.AssertExpectations(t)
	})
}
