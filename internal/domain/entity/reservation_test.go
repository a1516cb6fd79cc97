package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coremocks "github.com/brandlens/scan-engine/mocks/port/core"
)

func TestNewReservation(t *testing.T) {
	fixedTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mockTime := new(coremocks.MockTimeProvider)
	mockTime.On("Now").Return(fixedTime)

	t.Run("Valid reservation starts active", func(t *testing.T) {
		reservation, err := NewReservation("user-1", "scan-1", 400, mockTime)

		require.NoError(t, err)
		assert.NotEmpty(t, reservation.ID)
		assert.Equal(t, ReservationActive, reservation.Status)
		assert.True(t, reservation.IsActive())
		assert.Nil(t, reservation.ClosedAt)
	})

	t.Run("Empty user ID is rejected", func(t *testing.T) {
		reservation, err := NewReservation("", "scan-1", 400, mockTime)

		assert.ErrorIs(t, err, errs.ErrInvalidUserID)
		assert.Nil(t, reservation)
	})

	t.Run("Negative amount is rejected", func(t *testing.T) {
		reservation, err := NewReservation("user-1", "scan-1", -1, mockTime)

		assert.ErrorIs(t, err, errs.ErrNegativeAmount)
		assert.Nil(t, reservation)
	})
}

func TestReservation_Transitions(t *testing.T) {
	fixedTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mockTime := new(coremocks.MockTimeProvider)
	mockTime.On("Now").Return(fixedTime)

	t.Run("MarkConsumed closes an active reservation", func(t *testing.T) {
		reservation, _ := NewReservation("user-1", "scan-1", 400, mockTime)

		err := reservation.MarkConsumed(mockTime)

		require.NoError(t, err)
		assert.Equal(t, ReservationConsumed, reservation.Status)
		assert.False(t, reservation.IsActive())
		require.NotNil(t, reservation.ClosedAt)
		assert.Equal(t, fixedTime, *reservation.ClosedAt)
	})

	t.Run("MarkReleased records the reason", func(t *testing.T) {
		reservation, _ := NewReservation("user-1", "scan-1", 400, mockTime)

		err := reservation.MarkReleased("scan stopped", mockTime)

		require.NoError(t, err)
		assert.Equal(t, ReservationReleased, reservation.Status)
		assert.Equal(t, "scan stopped", reservation.Reason)
	})

	t.Run("Terminal states are immutable", func(t *testing.T) {
		reservation, _ := NewReservation("user-1", "scan-1", 400, mockTime)
		require.NoError(t, reservation.MarkConsumed(mockTime))

		assert.ErrorIs(t, reservation.MarkConsumed(mockTime), errs.ErrInvalidState)
		assert.ErrorIs(t, reservation.MarkReleased("late", mockTime), errs.ErrInvalidState)
		assert.Equal(t, ReservationConsumed, reservation.Status)
	})
}
