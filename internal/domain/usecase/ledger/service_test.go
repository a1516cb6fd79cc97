package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	errs "github.com/brandlens/scan-engine/internal/domain/error"
	"github.com/brandlens/scan-engine/mocks/port/core"
	"github.com/brandlens/scan-engine/mocks/port/persistence"
)

// testMocks bundles the mocks every ledger test needs
type testMocks struct {
	uow          *persistence.MockUnitOfWork
	accounts     *persistence.MockAccountRepository
	transactions *persistence.MockTransactionRepository
	reservations *persistence.MockReservationRepository
	timeProvider *core.MockTimeProvider
	logger       *core.MockLogger
}

func newTestMocks() *testMocks {
	return &testMocks{
		uow:          new(persistence.MockUnitOfWork),
		accounts:     new(persistence.MockAccountRepository),
		transactions: new(persistence.MockTransactionRepository),
		reservations: new(persistence.MockReservationRepository),
		timeProvider: new(core.MockTimeProvider),
		logger:       new(core.MockLogger),
	}
}

// expectTx wires a successful Begin/Commit pair and binds the repository
// getters to the bundled mocks.
func (m *testMocks) expectTx(ctx context.Context) {
	m.uow.On("Begin", ctx).Return(ctx, nil)
	m.uow.On("Commit", ctx).Return(nil)
	m.uow.On("GetAccountRepository", ctx).Return(m.accounts).Maybe()
	m.uow.On("GetTransactionRepository", ctx).Return(m.transactions).Maybe()
	m.uow.On("GetReservationRepository", ctx).Return(m.reservations).Maybe()
}

// expectTxRollback wires a Begin/Rollback pair for failure paths
func (m *testMocks) expectTxRollback(ctx context.Context) {
	m.uow.On("Begin", ctx).Return(ctx, nil)
	m.uow.On("Rollback", ctx).Return(nil)
	m.uow.On("GetAccountRepository", ctx).Return(m.accounts).Maybe()
	m.uow.On("GetTransactionRepository", ctx).Return(m.transactions).Maybe()
	m.uow.On("GetReservationRepository", ctx).Return(m.reservations).Maybe()
}

func (m *testMocks) service() *Service {
	return NewService(m.uow, m.accounts, m.transactions, m.timeProvider, m.logger)
}

func (m *testMocks) allowLogs() {
	m.logger.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Info", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Warn", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Error", mock.Anything, mock.Anything).Maybe()
}

func testAccount(userID string, availableCents, reservedCents int64, at time.Time) *entity.Account {
	return &entity.Account{
		UserID:         userID,
		AvailableCents: availableCents,
		ReservedCents:  reservedCents,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

func TestService_GetBalance(t *testing.T) {
	fixedTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should return balance for existing account", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()

		account := testAccount("user-1", 1000, 250, fixedTime)
		m.accounts.On("GetByUserID", ctx, "user-1").Return(account, nil)

		balance, err := m.service().GetBalance(ctx, "user-1")

		assert.NoError(t, err)
		assert.Equal(t, "user-1", balance.UserID)
		assert.Equal(t, int64(1000), balance.AvailableCents)
		assert.Equal(t, int64(250), balance.ReservedCents)
		m.accounts.AssertExpectations(t)
	})

	t.Run("should provision empty account on first access", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)

		m.accounts.On("GetByUserID", ctx, "user-new").Return(nil, errs.ErrAccountNotFound).Once()
		m.accounts.On("Create", ctx, mock.MatchedBy(func(a *entity.Account) bool {
			return a.UserID == "user-new" && a.AvailableCents == 0 && a.ReservedCents == 0
		})).Return(nil)

		balance, err := m.service().GetBalance(ctx, "user-new")

		assert.NoError(t, err)
		assert.Equal(t, int64(0), balance.AvailableCents)
		assert.Equal(t, int64(0), balance.ReservedCents)
		m.accounts.AssertExpectations(t)
	})

	t.Run("should re-read account when concurrent provision wins", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)

		existing := testAccount("user-race", 500, 0, fixedTime)
		m.accounts.On("GetByUserID", ctx, "user-race").Return(nil, errs.ErrAccountNotFound).Once()
		m.accounts.On("Create", ctx, mock.Anything).Return(errs.ErrConstraintViolation)
		m.accounts.On("GetByUserID", ctx, "user-race").Return(existing, nil).Once()

		balance, err := m.service().GetBalance(ctx, "user-race")

		assert.NoError(t, err)
		assert.Equal(t, int64(500), balance.AvailableCents)
		m.accounts.AssertExpectations(t)
	})

	t.Run("should reject empty user ID", func(t *testing.T) {
		m := newTestMocks()

		balance, err := m.service().GetBalance(context.Background(), "")

		assert.Nil(t, balance)
		assert.ErrorIs(t, err, errs.ErrInvalidUserID)
		m.accounts.AssertNotCalled(t, "GetByUserID")
	})
}

func TestService_TopUp(t *testing.T) {
	fixedTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should credit available balance and append ledger entry", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)
		m.expectTx(ctx)

		account := testAccount("user-1", 1000, 0, fixedTime)
		m.accounts.On("GetByUserIDForUpdate", ctx, "user-1").Return(account, nil)
		m.transactions.On("Create", ctx, mock.MatchedBy(func(txn *entity.Transaction) bool {
			return txn.Type == entity.TransactionTopUp &&
				txn.AmountCents == 500 &&
				txn.ReferenceType == entity.ReferencePayment &&
				txn.ReferenceID == "pay-42"
		})).Return(nil)
		m.accounts.On("Update", ctx, account).Return(nil)

		balance, err := m.service().TopUp(ctx, "user-1", 500, "pay-42")

		assert.NoError(t, err)
		assert.Equal(t, int64(1500), balance.AvailableCents)
		assert.Equal(t, int64(0), balance.ReservedCents)
		m.uow.AssertExpectations(t)
		m.accounts.AssertExpectations(t)
		m.transactions.AssertExpectations(t)
	})

	t.Run("should reject non-positive amount", func(t *testing.T) {
		m := newTestMocks()

		balance, err := m.service().TopUp(context.Background(), "user-1", 0, "pay-1")

		assert.Nil(t, balance)
		assert.ErrorIs(t, err, errs.ErrNegativeAmount)
		m.uow.AssertNotCalled(t, "Begin")
	})

	t.Run("should pick up a concurrently provisioned account under lock", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)
		m.expectTx(ctx)

		// First-ever credit races another operation provisioning the same
		// account: the insert conflicts, the locked re-read wins the row.
		existing := testAccount("user-race", 0, 0, fixedTime)
		m.accounts.On("GetByUserIDForUpdate", ctx, "user-race").Return(nil, errs.ErrAccountNotFound).Once()
		m.accounts.On("Create", ctx, mock.Anything).Return(errs.ErrConstraintViolation)
		m.accounts.On("GetByUserIDForUpdate", ctx, "user-race").Return(existing, nil).Once()
		m.transactions.On("Create", ctx, mock.Anything).Return(nil)
		m.accounts.On("Update", ctx, existing).Return(nil)

		balance, err := m.service().TopUp(ctx, "user-race", 500, "pay-1")

		assert.NoError(t, err)
		assert.Equal(t, int64(500), balance.AvailableCents)
		m.uow.AssertExpectations(t)
		m.accounts.AssertExpectations(t)
	})

	t.Run("should roll back when ledger insert fails", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)
		m.expectTxRollback(ctx)

		account := testAccount("user-1", 1000, 0, fixedTime)
		m.accounts.On("GetByUserIDForUpdate", ctx, "user-1").Return(account, nil)
		m.transactions.On("Create", ctx, mock.Anything).Return(errs.ErrDatabaseConnection)

		balance, err := m.service().TopUp(ctx, "user-1", 500, "pay-42")

		assert.Nil(t, balance)
		assert.ErrorIs(t, err, errs.ErrDatabaseConnection)
		m.uow.AssertExpectations(t)
		m.uow.AssertNotCalled(t, "Commit")
	})
}

func TestService_Refund(t *testing.T) {
	fixedTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should credit balance and append refund entry with caller's reference", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()
		m.allowLogs()
		m.timeProvider.On("Now").Return(fixedTime)
		m.expectTx(ctx)

		account := testAccount("user-1", 200, 0, fixedTime)
		m.accounts.On("GetByUserIDForUpdate", ctx, "user-1").Return(account, nil)
		m.transactions.On("Create", ctx, mock.MatchedBy(func(txn *entity.Transaction) bool {
			return txn.Type == entity.TransactionRefund &&
				txn.AmountCents == 150 &&
				txn.ReferenceType == entity.ReferenceScan &&
				txn.ReferenceID == "scan-9"
		})).Return(nil)
		m.accounts.On("Update", ctx, account).Return(nil)

		balance, err := m.service().Refund(ctx, "user-1", 150, entity.ReferenceScan, "scan-9")

		assert.NoError(t, err)
		assert.Equal(t, int64(350), balance.AvailableCents)
		m.uow.AssertExpectations(t)
		m.transactions.AssertExpectations(t)
	})

	t.Run("should reject non-positive amount", func(t *testing.T) {
		m := newTestMocks()

		balance, err := m.service().Refund(context.Background(), "user-1", 0, entity.ReferenceManual, "support-1")

		assert.Nil(t, balance)
		assert.ErrorIs(t, err, errs.ErrNegativeAmount)
		m.uow.AssertNotCalled(t, "Begin")
	})
}

func TestService_VerifyBalance(t *testing.T) {
	fixedTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should report consistent when ledger sum matches", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()

		account := testAccount("user-1", 600, 400, fixedTime)
		m.accounts.On("GetByUserID", ctx, "user-1").Return(account, nil)
		m.transactions.On("SumByUserID", ctx, "user-1").Return(int64(1000), nil)

		cached, derived, consistent, err := m.service().VerifyBalance(ctx, "user-1")

		assert.NoError(t, err)
		assert.Equal(t, int64(1000), cached)
		assert.Equal(t, int64(1000), derived)
		assert.True(t, consistent)
	})

	t.Run("should report drift when ledger sum differs", func(t *testing.T) {
		ctx := context.Background()
		m := newTestMocks()

		account := testAccount("user-1", 600, 400, fixedTime)
		m.accounts.On("GetByUserID", ctx, "user-1").Return(account, nil)
		m.transactions.On("SumByUserID", ctx, "user-1").Return(int64(900), nil)

		cached, derived, consistent, err := m.service().VerifyBalance(ctx, "user-1")

		assert.NoError(t, err)
		assert.Equal(t, int64(1000), cached)
		assert.Equal(t, int64(900), derived)
		assert.False(t, consistent)
	})
}
