package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	errs "github.com/brandlens/scan-engine/internal/domain/error"
)

func TestService_ReleaseReservation(t *testing.T) {
	fixedTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should return full hold to available balance", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)
		m.expectTx(ctx)

		reservation := activeReservation("user-1", "scan-1", 400, fixedTime)
		account := testAccount("user-1", 600, 400, fixedTime)

		m.reservations.On("GetByIDForUpdate", ctx, "res-1").Return(reservation, nil)
		m.accounts.On("GetByUserIDForUpdate", ctx, "user-1").Return(account, nil)
		m.reservations.On("Update", ctx, reservation).Return(nil)
		m.accounts.On("Update", ctx, account).Return(nil)

		err := m.service().ReleaseReservation(ctx, "res-1", "scan stopped")

		assert.NoError(t, err)
		assert.Equal(t, int64(1000), account.AvailableCents)
		assert.Equal(t, int64(0), account.ReservedCents)
		assert.Equal(t, entity.ReservationReleased, reservation.Status)
		assert.Equal(t, "scan stopped", reservation.Reason)
		m.uow.AssertExpectations(t)
	})

	t.Run("should be a no-op on consumed reservation", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.expectTx(ctx)

		reservation := activeReservation("user-1", "scan-1", 400, fixedTime)
		reservation.Status = entity.ReservationConsumed

		m.reservations.On("GetByIDForUpdate", ctx, "res-1").Return(reservation, nil)

		err := m.service().ReleaseReservation(ctx, "res-1", "sweeper")

		assert.NoError(t, err)
		assert.Equal(t, entity.ReservationConsumed, reservation.Status)
		m.accounts.AssertNotCalled(t, "GetByUserIDForUpdate")
		m.reservations.AssertNotCalled(t, "Update")
	})

	t.Run("should be idempotent on already released reservation", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.expectTx(ctx)

		reservation := activeReservation("user-1", "scan-1", 400, fixedTime)
		reservation.Status = entity.ReservationReleased
		reservation.Reason = "first release"

		m.reservations.On("GetByIDForUpdate", ctx, "res-1").Return(reservation, nil)

		err := m.service().ReleaseReservation(ctx, "res-1", "second release")

		assert.NoError(t, err)
		assert.Equal(t, "first release", reservation.Reason)
		m.accounts.AssertNotCalled(t, "GetByUserIDForUpdate")
	})
}

func TestService_ReleaseForScan(t *testing.T) {
	fixedTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should release the scan's active reservation", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)
		m.expectTx(ctx)

		reservation := activeReservation("user-1", "scan-1", 400, fixedTime)
		account := testAccount("user-1", 600, 400, fixedTime)

		m.reservations.On("GetActiveByScanID", ctx, "scan-1").Return(reservation, nil)
		m.reservations.On("GetByIDForUpdate", ctx, "res-1").Return(reservation, nil)
		m.accounts.On("GetByUserIDForUpdate", ctx, "user-1").Return(account, nil)
		m.reservations.On("Update", ctx, reservation).Return(nil)
		m.accounts.On("Update", ctx, account).Return(nil)

		released, err := m.service().ReleaseForScan(ctx, "scan-1", "stuck scan repair")

		assert.NoError(t, err)
		assert.True(t, released)
		assert.Equal(t, int64(1000), account.AvailableCents)
		assert.Equal(t, entity.ReservationReleased, reservation.Status)
	})

	t.Run("should report false when scan has no active reservation", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.expectTx(ctx)

		m.reservations.On("GetActiveByScanID", ctx, "scan-1").Return(nil, errs.ErrReservationNotFound)

		released, err := m.service().ReleaseForScan(ctx, "scan-1", "sweeper")

		assert.NoError(t, err)
		assert.False(t, released)
		m.accounts.AssertNotCalled(t, "GetByUserIDForUpdate")
	})

	t.Run("should not release when reservation closed between lookup and lock", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.expectTx(ctx)

		found := activeReservation("user-1", "scan-1", 400, fixedTime)
		closed := activeReservation("user-1", "scan-1", 400, fixedTime)
		closed.Status = entity.ReservationConsumed

		m.reservations.On("GetActiveByScanID", ctx, "scan-1").Return(found, nil)
		m.reservations.On("GetByIDForUpdate", ctx, "res-1").Return(closed, nil)

		released, err := m.service().ReleaseForScan(ctx, "scan-1", "sweeper")

		assert.NoError(t, err)
		assert.False(t, released)
		m.accounts.AssertNotCalled(t, "GetByUserIDForUpdate")
	})
}
