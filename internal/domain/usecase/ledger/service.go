package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/domain/port/persistence"
)

// Service implements the credit ledger: atomic balance bookkeeping with
// reserve, consume and release on top of debit/credit. Every mutation runs
// inside a unit of work holding an exclusive lock on the user's account row,
// so concurrent operations on one balance are linearized by the store.
type Service struct {
	uow             persistence.UnitOfWork
	accountRepo     persistence.AccountRepository
	transactionRepo persistence.TransactionRepository
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
}

// NewService creates a ledger service
func NewService(
	uow persistence.UnitOfWork,
	accountRepo persistence.AccountRepository,
	transactionRepo persistence.TransactionRepository,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		uow:             uow,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		timeProvider:    timeProvider,
		logger:          logger,
	}
}

// Balance is the read view of an account
type Balance struct {
	UserID         string
	AvailableCents int64
	ReservedCents  int64
}

// GetBalance returns the user's balance, provisioning an empty account on
// first access.
func (s *Service) GetBalance(ctx context.Context, userID string) (*Balance, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}

	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if errors.Is(err, errs.ErrAccountNotFound) {
		account, err = s.provisionAccount(ctx, userID)
	}
	if err != nil {
		s.logger.Error("Failed to get balance", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	return &Balance{
		UserID:         account.UserID,
		AvailableCents: account.AvailableCents,
		ReservedCents:  account.ReservedCents,
	}, nil
}

// TopUp credits the available balance and appends a top_up ledger entry
func (s *Service) TopUp(ctx context.Context, userID string, amountCents int64, referenceID string) (*Balance, error) {
	return s.credit(ctx, userID, amountCents, func(tp coreport.TimeProvider) (*entity.Transaction, error) {
		return entity.NewTopUpTransaction(userID, amountCents, referenceID, tp)
	})
}

// Refund credits the available balance and appends a refund ledger entry
func (s *Service) Refund(ctx context.Context, userID string, amountCents int64, referenceType entity.ReferenceType, referenceID string) (*Balance, error) {
	return s.credit(ctx, userID, amountCents, func(tp coreport.TimeProvider) (*entity.Transaction, error) {
		return entity.NewRefundTransaction(userID, amountCents, referenceType, referenceID, tp)
	})
}

func (s *Service) credit(ctx context.Context, userID string, amountCents int64, makeEntry func(coreport.TimeProvider) (*entity.Transaction, error)) (*Balance, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}
	if amountCents <= 0 {
		return nil, errs.ErrNegativeAmount
	}

	var balance *Balance
	err := s.inTx(ctx, func(txCtx context.Context) error {
		accounts := s.uow.GetAccountRepository(txCtx)
		transactions := s.uow.GetTransactionRepository(txCtx)

		account, err := s.lockOrProvision(txCtx, accounts, userID)
		if err != nil {
			return err
		}

		if err := account.Credit(amountCents, s.timeProvider); err != nil {
			return err
		}

		entry, err := makeEntry(s.timeProvider)
		if err != nil {
			return err
		}
		if err := transactions.Create(txCtx, entry); err != nil {
			return err
		}
		if err := accounts.Update(txCtx, account); err != nil {
			return err
		}

		balance = &Balance{
			UserID:         account.UserID,
			AvailableCents: account.AvailableCents,
			ReservedCents:  account.ReservedCents,
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Credit operation failed", map[string]any{
			"user_id":      userID,
			"amount_cents": amountCents,
			"error":        err.Error(),
		})
		return nil, err
	}

	s.logger.Info("Balance credited", map[string]any{
		"user_id":         userID,
		"amount_cents":    amountCents,
		"available_cents": balance.AvailableCents,
	})
	return balance, nil
}

// ListTransactions returns a user's ledger entries, newest first
func (s *Service) ListTransactions(ctx context.Context, userID string, limit int) ([]*entity.Transaction, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}
	return s.transactionRepo.ListByUserID(ctx, userID, limit)
}

// VerifyBalance checks the cached account row against the ledger: the sum of
// all entries must equal available + reserved. Returns both sides so callers
// can report drift.
func (s *Service) VerifyBalance(ctx context.Context, userID string) (cached int64, derived int64, consistent bool, err error) {
	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return 0, 0, false, err
	}
	derived, err = s.transactionRepo.SumByUserID(ctx, userID)
	if err != nil {
		return 0, 0, false, err
	}
	cached = account.TotalCents()
	return cached, derived, cached == derived, nil
}

// provisionAccount creates an empty account row, tolerating a concurrent
// provision by re-reading on conflict.
func (s *Service) provisionAccount(ctx context.Context, userID string) (*entity.Account, error) {
	account, err := entity.NewAccount(userID, s.timeProvider)
	if err != nil {
		return nil, err
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, errs.ErrConstraintViolation) {
			return s.accountRepo.GetByUserID(ctx, userID)
		}
		return nil, err
	}
	s.logger.Info("Account provisioned", map[string]any{"user_id": userID})
	return account, nil
}

// lockOrProvision loads the account under an exclusive lock, provisioning it
// first when it does not exist yet. A constraint conflict on the insert means
// a concurrent provision won; the follow-up locked read picks up its row.
func (s *Service) lockOrProvision(txCtx context.Context, accounts persistence.AccountRepository, userID string) (*entity.Account, error) {
	account, err := accounts.GetByUserIDForUpdate(txCtx, userID)
	if errors.Is(err, errs.ErrAccountNotFound) {
		newAccount, newErr := entity.NewAccount(userID, s.timeProvider)
		if newErr != nil {
			return nil, newErr
		}
		if newErr = accounts.Create(txCtx, newAccount); newErr != nil && !errors.Is(newErr, errs.ErrConstraintViolation) {
			return nil, newErr
		}
		return accounts.GetByUserIDForUpdate(txCtx, userID)
	}
	return account, err
}

// inTx runs fn inside a unit of work, committing on success and rolling back
// on error.
func (s *Service) inTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(txCtx); err != nil {
		if rbErr := s.uow.Rollback(txCtx); rbErr != nil {
			s.logger.Error("Rollback failed", map[string]any{"error": rbErr.Error()})
		}
		return err
	}

	if err := s.uow.Commit(txCtx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
