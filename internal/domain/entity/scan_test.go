package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coremocks "github.com/brandlens/scan-engine/mocks/port/core"
)

func TestScan_Lifecycle(t *testing.T) {
	fixedTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mockTime := new(coremocks.MockTimeProvider)
	mockTime.On("Now").Return(fixedTime)

	t.Run("New scan starts running", func(t *testing.T) {
		scan, err := NewScan("proj-1", "user-1", 5, mockTime)

		require.NoError(t, err)
		assert.Equal(t, ScanRunning, scan.Status)
		assert.False(t, scan.IsTerminal())
		assert.Equal(t, "0.00", scan.TotalCostUsd)
	})

	t.Run("Complete records totals", func(t *testing.T) {
		scan, _ := NewScan("proj-1", "user-1", 5, mockTime)

		err := scan.Complete(4, "1.25", mockTime)

		require.NoError(t, err)
		assert.Equal(t, ScanCompleted, scan.Status)
		assert.Equal(t, 4, scan.TotalResults)
		assert.Equal(t, "1.25", scan.TotalCostUsd)
		assert.NotNil(t, scan.CompletedAt)
	})

	t.Run("Fail records the error", func(t *testing.T) {
		scan, _ := NewScan("proj-1", "user-1", 5, mockTime)

		err := scan.Fail("every model call failed", mockTime)

		require.NoError(t, err)
		assert.Equal(t, ScanFailed, scan.Status)
		assert.Equal(t, "every model call failed", scan.ErrorMessage)
	})

	t.Run("Stop is only valid while running", func(t *testing.T) {
		scan, _ := NewScan("proj-1", "user-1", 5, mockTime)
		require.NoError(t, scan.Stop(mockTime))
		assert.Equal(t, ScanStopped, scan.Status)

		assert.ErrorIs(t, scan.Stop(mockTime), errs.ErrInvalidState)
		assert.ErrorIs(t, scan.Complete(1, "0.10", mockTime), errs.ErrInvalidState)
		assert.ErrorIs(t, scan.Fail("late", mockTime), errs.ErrInvalidState)
	})

	t.Run("Empty user ID is rejected", func(t *testing.T) {
		scan, err := NewScan("proj-1", "", 5, mockTime)

		assert.ErrorIs(t, err, errs.ErrInvalidUserID)
		assert.Nil(t, scan)
	})
}

func TestQueueEntry_Lifecycle(t *testing.T) {
	fixedTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mockTime := new(coremocks.MockTimeProvider)
	mockTime.On("Now").Return(fixedTime)

	t.Run("New entry starts pending", func(t *testing.T) {
		entry, err := NewQueueEntry("user-1", "proj-1", 2, mockTime)

		require.NoError(t, err)
		assert.Equal(t, QueuePending, entry.Status)
		assert.Equal(t, 2, entry.Priority)
		assert.Nil(t, entry.StartedAt)
	})

	t.Run("Start claims a pending entry exactly once", func(t *testing.T) {
		entry, _ := NewQueueEntry("user-1", "proj-1", 0, mockTime)

		require.NoError(t, entry.Start(mockTime))
		assert.Equal(t, QueueRunning, entry.Status)
		assert.NotNil(t, entry.StartedAt)

		assert.ErrorIs(t, entry.Start(mockTime), errs.ErrInvalidState)
	})

	t.Run("Progress updates refresh liveness", func(t *testing.T) {
		later := fixedTime.Add(time.Minute)
		laterTime := new(coremocks.MockTimeProvider)
		laterTime.On("Now").Return(later)

		entry, _ := NewQueueEntry("user-1", "proj-1", 0, mockTime)
		require.NoError(t, entry.Start(mockTime))

		entry.UpdateProgress(3, 10, "3/10 model responses collected", laterTime)

		assert.Equal(t, 3, entry.ProgressCurrent)
		assert.Equal(t, 10, entry.ProgressTotal)
		assert.Equal(t, later, entry.UpdatedAt)
	})

	t.Run("Complete requires running state", func(t *testing.T) {
		entry, _ := NewQueueEntry("user-1", "proj-1", 0, mockTime)

		assert.ErrorIs(t, entry.Complete(mockTime), errs.ErrInvalidState)

		require.NoError(t, entry.Start(mockTime))
		require.NoError(t, entry.Complete(mockTime))
		assert.True(t, entry.IsTerminal())
	})

	t.Run("Fail works from pending and running, not from terminal", func(t *testing.T) {
		entry, _ := NewQueueEntry("user-1", "proj-1", 0, mockTime)
		require.NoError(t, entry.Fail("project lookup failed", mockTime))
		assert.Equal(t, QueueFailed, entry.Status)

		assert.ErrorIs(t, entry.Fail("again", mockTime), errs.ErrInvalidState)
		assert.Equal(t, "project lookup failed", entry.ErrorMessage)
	})
}
