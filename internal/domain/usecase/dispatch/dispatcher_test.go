package dispatch

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
	mockllm "github.com/brandlens/scan-engine/mocks/port/llm"
	"github.com/brandlens/scan-engine/mocks/port/persistence"
)

// dispatchMocks bundles every dependency the dispatcher takes
type dispatchMocks struct {
	projects     *persistence.MockProjectRepository
	queue        *persistence.MockQueueRepository
	history      *persistence.MockScheduleHistoryRepository
	scans        *persistence.MockScanRepository
	results      *persistence.MockScanResultRepository
	uow          *persistence.MockUnitOfWork
	accounts     *persistence.MockAccountRepository
	transactions *persistence.MockTransactionRepository
	reservations *persistence.MockReservationRepository
	caller       *mockllm.MockModelCaller
	pricer       *mockllm.MockPricer
	timeProvider *core.MockTimeProvider
	logger       *core.MockLogger
	metrics      *core.MockMetrics
}

func newDispatchMocks() *dispatchMocks {
	return &dispatchMocks{
		projects:     new(persistence.MockProjectRepository),
		queue:        new(persistence.MockQueueRepository),
		history:      new(persistence.MockScheduleHistoryRepository),
		scans:        new(persistence.MockScanRepository),
		results:      new(persistence.MockScanResultRepository),
		uow:          new(persistence.MockUnitOfWork),
		accounts:     new(persistence.MockAccountRepository),
		transactions: new(persistence.MockTransactionRepository),
		reservations: new(persistence.MockReservationRepository),
		caller:       new(mockllm.MockModelCaller),
		pricer:       new(mockllm.MockPricer),
		timeProvider: new(core.MockTimeProvider),
		logger:       new(core.MockLogger),
		metrics:      new(core.MockMetrics),
	}
}

func (m *dispatchMocks) allowLogs() {
	m.logger.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Info", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Warn", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Error", mock.Anything, mock.Anything).Maybe()
}

func (m *dispatchMocks) allowMetrics() {
	m.metrics.On("ScansDispatched", mock.Anything).Maybe()
	m.metrics.On("ScanCompleted").Maybe()
	m.metrics.On("ScanFailed").Maybe()
	m.metrics.On("SweeperRepairs", mock.Anything).Maybe()
	m.metrics.On("QueueDepth", mock.Anything).Maybe()
}

// expectLedgerTx wires the unit of work so ledger operations run against the
// bundled account/transaction/reservation mocks.
func (m *dispatchMocks) expectLedgerTx() {
	m.uow.On("Begin", mock.Anything).Return(context.Background(), nil)
	m.uow.On("Commit", mock.Anything).Return(nil)
	m.uow.On("Rollback", mock.Anything).Return(nil)
	m.uow.On("GetAccountRepository", mock.Anything).Return(m.accounts)
	m.uow.On("GetTransactionRepository", mock.Anything).Return(m.transactions)
	m.uow.On("GetReservationRepository", mock.Anything).Return(m.reservations)
}

func (m *dispatchMocks) build(cfg Config) *Dispatcher {
	ledgerService := ledger.NewService(m.uow, m.accounts, m.transactions, m.timeProvider, m.logger)
	return NewDispatcher(
		m.projects, m.queue, m.history, m.scans, m.results,
		ledgerService, m.caller, m.pricer, nil,
		m.timeProvider, m.logger, m.metrics, cfg,
	)
}

func dueProject(id, userID string, queries, models int) *entity.Project {
	nextRun := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	p := &entity.Project{
		ID:          id,
		UserID:      userID,
		Name:        "Acme",
		BrandDomain: "acme.example",
		Schedule: entity.ScheduleConfig{
			Enabled:   true,
			Frequency: entity.FrequencyDaily,
			Hour:      9,
			Timezone:  "UTC",
			NextRunAt: &nextRun,
		},
	}
	for i := 0; i < queries; i++ {
		p.Queries = append(p.Queries, "best widgets?")
	}
	for i := 0; i < models; i++ {
		p.Models = append(p.Models, entity.ModelRef{Provider: "openai", Model: "gpt-4o"})
	}
	return p
}

func TestDispatcher_Dispatch(t *testing.T) {
	fixedTime := time.Date(2025, 3, 10, 9, 5, 0, 0, time.UTC)

	t.Run("should queue due projects and recompute schedules", func(t *testing.T) {
		ctx := context.Background()
		m := newDispatchMocks()
		m.allowLogs()
		m.allowMetrics()
		m.timeProvider.On("Now").Return(fixedTime)

		projects := []*entity.Project{
			dueProject("proj-1", "user-1", 2, 1),
			dueProject("proj-2", "user-2", 1, 1),
		}
		m.projects.On("ListDue", mock.Anything, fixedTime).Return(projects, nil)
		m.history.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.queue.On("Create", mock.Anything, mock.MatchedBy(func(e *entity.QueueEntry) bool {
			return e.Status == entity.QueuePending
		})).Return(nil)
		// Missed slot was 09:00; the recomputed run is tomorrow, never a
		// catch-up of today's already-passed slot.
		tomorrow := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
		m.projects.On("UpdateSchedule", mock.Anything, "proj-1", &tomorrow, &fixedTime).Return(nil)
		m.projects.On("UpdateSchedule", mock.Anything, "proj-2", &tomorrow, &fixedTime).Return(nil)
		// Workers find nothing to do and exit.
		m.queue.On("ListPending", mock.Anything, mock.Anything).Return([]*entity.QueueEntry{}, nil)

		d := m.build(Config{Workers: 2})
		result, err := d.Dispatch(ctx)
		d.Wait()

		assert.NoError(t, err)
		assert.Equal(t, 2, result.ProjectsDue)
		assert.Equal(t, 2, result.EntriesQueued)
		assert.Equal(t, 2, result.WorkersSpawned)
		m.projects.AssertExpectations(t)
		m.history.AssertExpectations(t)
	})

	t.Run("should continue cycle when one project fails to enqueue", func(t *testing.T) {
		ctx := context.Background()
		m := newDispatchMocks()
		m.allowLogs()
		m.allowMetrics()
		m.timeProvider.On("Now").Return(fixedTime)

		broken := dueProject("proj-broken", "user-1", 1, 1)
		healthy := dueProject("proj-ok", "user-2", 1, 1)
		m.projects.On("ListDue", mock.Anything, fixedTime).Return([]*entity.Project{broken, healthy}, nil)
		m.history.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.history.On("Update", mock.Anything, mock.MatchedBy(func(h *entity.ScheduleHistory) bool {
			return h.Status == entity.HistoryFailed
		})).Return(nil)
		m.queue.On("Create", mock.Anything, mock.MatchedBy(func(e *entity.QueueEntry) bool {
			return e.ProjectID == "proj-broken"
		})).Return(errs.ErrDatabaseConnection)
		m.queue.On("Create", mock.Anything, mock.MatchedBy(func(e *entity.QueueEntry) bool {
			return e.ProjectID == "proj-ok"
		})).Return(nil)
		m.projects.On("UpdateSchedule", mock.Anything, "proj-ok", mock.Anything, mock.Anything).Return(nil)
		m.queue.On("ListPending", mock.Anything, mock.Anything).Return([]*entity.QueueEntry{}, nil)

		d := m.build(Config{Workers: 1})
		result, err := d.Dispatch(ctx)
		d.Wait()

		assert.NoError(t, err)
		assert.Equal(t, 2, result.ProjectsDue)
		assert.Equal(t, 1, result.EntriesQueued)
		// The broken project's schedule must not advance past the failure.
		m.projects.AssertNotCalled(t, "UpdateSchedule", mock.Anything, "proj-broken", mock.Anything, mock.Anything)
		m.history.AssertExpectations(t)
	})

	t.Run("should fail cycle when due query fails", func(t *testing.T) {
		ctx := context.Background()
		m := newDispatchMocks()
		m.allowLogs()
		m.allowMetrics()
		m.timeProvider.On("Now").Return(fixedTime)
		m.projects.On("ListDue", mock.Anything, fixedTime).Return(nil, errs.ErrDatabaseConnection)

		d := m.build(Config{Workers: 1})
		result, err := d.Dispatch(ctx)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrDatabaseConnection)
		m.queue.AssertNotCalled(t, "Create")
	})
}

func TestDispatcher_ClaimNext(t *testing.T) {
	fixedTime := time.Date(2025, 3, 10, 9, 5, 0, 0, time.UTC)

	t.Run("should skip entries lost to another worker", func(t *testing.T) {
		ctx := context.Background()
		m := newDispatchMocks()
		m.allowLogs()
		m.allowMetrics()
		m.timeProvider.On("Now").Return(fixedTime)

		first, _ := entity.NewQueueEntry("user-1", "proj-1", 0, m.timeProvider)
		second, _ := entity.NewQueueEntry("user-2", "proj-2", 0, m.timeProvider)
		m.queue.On("ListPending", ctx, 20).Return([]*entity.QueueEntry{first, second}, nil)
		m.queue.On("Claim", ctx, first.ID, fixedTime).Return(errs.ErrEntryAlreadyClaimed)
		m.queue.On("Claim", ctx, second.ID, fixedTime).Return(nil)

		d := m.build(Config{})
		entry, ok := d.claimNext(ctx, 0)

		assert.True(t, ok)
		assert.Equal(t, second.ID, entry.ID)
		assert.Equal(t, entity.QueueRunning, entry.Status)
		m.queue.AssertExpectations(t)
	})

	t.Run("should stand down when queue is empty", func(t *testing.T) {
		ctx := context.Background()
		m := newDispatchMocks()
		m.allowLogs()
		m.allowMetrics()
		m.queue.On("ListPending", ctx, 20).Return([]*entity.QueueEntry{}, nil)

		d := m.build(Config{})
		entry, ok := d.claimNext(ctx, 0)

		assert.False(t, ok)
		assert.Nil(t, entry)
	})

	t.Run("should stand down when every claim is lost", func(t *testing.T) {
		ctx := context.Background()
		m := newDispatchMocks()
		m.allowLogs()
		m.allowMetrics()
		m.timeProvider.On("Now").Return(fixedTime)

		only, _ := entity.NewQueueEntry("user-1", "proj-1", 0, m.timeProvider)
		m.queue.On("ListPending", ctx, 20).Return([]*entity.QueueEntry{only}, nil)
		m.queue.On("Claim", ctx, only.ID, fixedTime).Return(errs.ErrEntryAlreadyClaimed)

		d := m.build(Config{})
		entry, ok := d.claimNext(ctx, 0)

		assert.False(t, ok)
		assert.Nil(t, entry)
	})
}
