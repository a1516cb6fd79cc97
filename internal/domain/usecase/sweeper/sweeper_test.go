package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	errs "github.com/brandlens/scan-engine/internal/domain/error"
	"github.com/brandlens/scan-engine/internal/domain/usecase/ledger"
	"github.com/brandlens/scan-engine/mocks/port/core"
	"github.com/brandlens/scan-engine/mocks/port/persistence"
)

type sweeperMocks struct {
	scans        *persistence.MockScanRepository
	queue        *persistence.MockQueueRepository
	uow          *persistence.MockUnitOfWork
	accounts     *persistence.MockAccountRepository
	transactions *persistence.MockTransactionRepository
	reservations *persistence.MockReservationRepository
	timeProvider *core.MockTimeProvider
	logger       *core.MockLogger
	metrics      *core.MockMetrics
}

func newSweeperMocks() *sweeperMocks {
	return &sweeperMocks{
		scans:        new(persistence.MockScanRepository),
		queue:        new(persistence.MockQueueRepository),
		uow:          new(persistence.MockUnitOfWork),
		accounts:     new(persistence.MockAccountRepository),
		transactions: new(persistence.MockTransactionRepository),
		reservations: new(persistence.MockReservationRepository),
		timeProvider: new(core.MockTimeProvider),
		logger:       new(core.MockLogger),
		metrics:      new(core.MockMetrics),
	}
}

func (m *sweeperMocks) allowLogs() {
	m.logger.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Info", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Warn", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Error", mock.Anything, mock.Anything).Maybe()
}

func (m *sweeperMocks) expectLedgerTx() {
	m.uow.On("Begin", mock.Anything).Return(context.Background(), nil)
	m.uow.On("Commit", mock.Anything).Return(nil)
	m.uow.On("Rollback", mock.Anything).Return(nil)
	m.uow.On("GetAccountRepository", mock.Anything).Return(m.accounts)
	m.uow.On("GetTransactionRepository", mock.Anything).Return(m.transactions)
	m.uow.On("GetReservationRepository", mock.Anything).Return(m.reservations)
}

func (m *sweeperMocks) build(cfg Config) *Sweeper {
	ledgerService := ledger.NewService(m.uow, m.accounts, m.transactions, m.timeProvider, m.logger)
	return NewSweeper(m.scans, m.queue, ledgerService, m.timeProvider, m.logger, m.metrics, cfg)
}

func runningScan(id, userID string, createdAt time.Time) *entity.Scan {
	return &entity.Scan{
		ID:        id,
		ProjectID: "proj-1",
		UserID:    userID,
		Status:    entity.ScanRunning,
		CreatedAt: createdAt,
	}
}

func runningEntry(id, userID, scanID string, updatedAt time.Time) *entity.QueueEntry {
	started := updatedAt
	return &entity.QueueEntry{
		ID:        id,
		UserID:    userID,
		ProjectID: "proj-1",
		ScanID:    scanID,
		Status:    entity.QueueRunning,
		StartedAt: &started,
		UpdatedAt: updatedAt,
	}
}

func TestSweeper_Sweep(t *testing.T) {
	fixedTime := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	staleTime := fixedTime.Add(-10 * time.Minute)
	cutoff := fixedTime.Add(-5 * time.Minute)

	t.Run("should fail abandoned scan and refund its reservation", func(t *testing.T) {
		ctx := context.Background()
		m := newSweeperMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)
		m.expectLedgerTx()

		scan := runningScan("scan-1", "user-1", staleTime)
		m.scans.On("ListRunningBefore", ctx, cutoff, "").Return([]*entity.Scan{scan}, nil)
		m.queue.On("HasLiveEntryForScan", ctx, "scan-1").Return(false, nil)
		m.scans.On("TransitionStatus", ctx, mock.MatchedBy(func(s *entity.Scan) bool {
			return s.Status == entity.ScanFailed && s.ErrorMessage == "scan abandoned by worker"
		}), entity.ScanRunning).Return(true, nil)

		reservation := &entity.Reservation{
			ID: "res-1", UserID: "user-1", ScanID: "scan-1",
			AmountCents: 40, Status: entity.ReservationActive,
		}
		account := &entity.Account{UserID: "user-1", AvailableCents: 60, ReservedCents: 40}
		m.reservations.On("GetActiveByScanID", mock.Anything, "scan-1").Return(reservation, nil)
		m.reservations.On("GetByIDForUpdate", mock.Anything, "res-1").Return(reservation, nil)
		m.accounts.On("GetByUserIDForUpdate", mock.Anything, "user-1").Return(account, nil)
		m.reservations.On("Update", mock.Anything, reservation).Return(nil)
		m.accounts.On("Update", mock.Anything, account).Return(nil)

		m.queue.On("ListRunningStale", ctx, cutoff, "").Return([]*entity.QueueEntry{}, nil)
		m.metrics.On("SweeperRepairs", 1).Return()

		report, err := m.build(Config{}).Sweep(ctx, "")

		assert.NoError(t, err)
		assert.Equal(t, 1, report.StuckScans)
		assert.Equal(t, 0, report.OrphanedEntries)
		assert.Equal(t, int64(100), account.AvailableCents)
		assert.Equal(t, entity.ReservationReleased, reservation.Status)
		m.metrics.AssertExpectations(t)
	})

	t.Run("should leave long-running scan with live entry alone", func(t *testing.T) {
		ctx := context.Background()
		m := newSweeperMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)

		scan := runningScan("scan-1", "user-1", staleTime)
		m.scans.On("ListRunningBefore", ctx, cutoff, "").Return([]*entity.Scan{scan}, nil)
		m.queue.On("HasLiveEntryForScan", ctx, "scan-1").Return(true, nil)
		m.queue.On("ListRunningStale", ctx, cutoff, "").Return([]*entity.QueueEntry{}, nil)

		report, err := m.build(Config{}).Sweep(ctx, "")

		assert.NoError(t, err)
		assert.Equal(t, 0, report.Total())
		assert.Equal(t, entity.ScanRunning, scan.Status)
		m.scans.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything)
		m.metrics.AssertNotCalled(t, "SweeperRepairs", mock.Anything)
	})

	t.Run("should stand down when scan state changed concurrently", func(t *testing.T) {
		ctx := context.Background()
		m := newSweeperMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)

		scan := runningScan("scan-1", "user-1", staleTime)
		m.scans.On("ListRunningBefore", ctx, cutoff, "").Return([]*entity.Scan{scan}, nil)
		m.queue.On("HasLiveEntryForScan", ctx, "scan-1").Return(false, nil)
		// A worker completed the scan between our read and the repair.
		m.scans.On("TransitionStatus", ctx, mock.Anything, entity.ScanRunning).Return(false, nil)
		m.queue.On("ListRunningStale", ctx, cutoff, "").Return([]*entity.QueueEntry{}, nil)

		report, err := m.build(Config{}).Sweep(ctx, "")

		assert.NoError(t, err)
		assert.Equal(t, 0, report.StuckScans)
		m.reservations.AssertNotCalled(t, "GetActiveByScanID", mock.Anything, mock.Anything)
	})

	t.Run("should fail stale entry and its scan, then refund", func(t *testing.T) {
		ctx := context.Background()
		m := newSweeperMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)
		m.expectLedgerTx()

		m.scans.On("ListRunningBefore", ctx, cutoff, "").Return([]*entity.Scan{}, nil)

		entry := runningEntry("entry-1", "user-1", "scan-1", staleTime)
		m.queue.On("ListRunningStale", ctx, cutoff, "").Return([]*entity.QueueEntry{entry}, nil)
		m.queue.On("TransitionStatus", ctx, mock.MatchedBy(func(e *entity.QueueEntry) bool {
			return e.Status == entity.QueueFailed && e.ErrorMessage == "worker timeout"
		}), entity.QueueRunning).Return(true, nil)

		scan := runningScan("scan-1", "user-1", staleTime)
		m.scans.On("GetByID", ctx, "scan-1").Return(scan, nil)
		m.scans.On("TransitionStatus", ctx, mock.MatchedBy(func(s *entity.Scan) bool {
			return s.Status == entity.ScanFailed
		}), entity.ScanRunning).Return(true, nil)

		reservation := &entity.Reservation{
			ID: "res-1", UserID: "user-1", ScanID: "scan-1",
			AmountCents: 40, Status: entity.ReservationActive,
		}
		account := &entity.Account{UserID: "user-1", AvailableCents: 0, ReservedCents: 40}
		m.reservations.On("GetActiveByScanID", mock.Anything, "scan-1").Return(reservation, nil)
		m.reservations.On("GetByIDForUpdate", mock.Anything, "res-1").Return(reservation, nil)
		m.accounts.On("GetByUserIDForUpdate", mock.Anything, "user-1").Return(account, nil)
		m.reservations.On("Update", mock.Anything, reservation).Return(nil)
		m.accounts.On("Update", mock.Anything, account).Return(nil)

		m.metrics.On("SweeperRepairs", 1).Return()

		report, err := m.build(Config{}).Sweep(ctx, "")

		assert.NoError(t, err)
		assert.Equal(t, 1, report.OrphanedEntries)
		assert.Equal(t, int64(40), account.AvailableCents)
		m.queue.AssertExpectations(t)
	})

	t.Run("should repair stale entry that never created a scan", func(t *testing.T) {
		ctx := context.Background()
		m := newSweeperMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)

		m.scans.On("ListRunningBefore", ctx, cutoff, "").Return([]*entity.Scan{}, nil)

		entry := runningEntry("entry-1", "user-1", "", staleTime)
		m.queue.On("ListRunningStale", ctx, cutoff, "").Return([]*entity.QueueEntry{entry}, nil)
		m.queue.On("TransitionStatus", ctx, entry, entity.QueueRunning).Return(true, nil)
		m.metrics.On("SweeperRepairs", 1).Return()

		report, err := m.build(Config{}).Sweep(ctx, "")

		assert.NoError(t, err)
		assert.Equal(t, 1, report.OrphanedEntries)
		m.scans.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		m.uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("should report nothing when there is nothing to repair", func(t *testing.T) {
		ctx := context.Background()
		m := newSweeperMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)

		m.scans.On("ListRunningBefore", ctx, cutoff, "user-1").Return([]*entity.Scan{}, nil)
		m.queue.On("ListRunningStale", ctx, cutoff, "user-1").Return([]*entity.QueueEntry{}, nil)

		report, err := m.build(Config{}).Sweep(ctx, "user-1")

		assert.NoError(t, err)
		assert.Equal(t, 0, report.Total())
		m.metrics.AssertNotCalled(t, "SweeperRepairs", mock.Anything)
	})

	t.Run("should fail pass when candidate query fails", func(t *testing.T) {
		ctx := context.Background()
		m := newSweeperMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)

		m.scans.On("ListRunningBefore", ctx, cutoff, "").Return(nil, errs.ErrDatabaseConnection)

		report, err := m.build(Config{}).Sweep(ctx, "")

		assert.Nil(t, report)
		assert.ErrorIs(t, err, errs.ErrDatabaseConnection)
	})
}
