package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountRepository implements AccountRepository interface using GORM
type AccountRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewAccountRepository creates a new AccountRepository instance
func NewAccountRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *AccountRepository {
	return &AccountRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// modelToEntity converts an account model to an entity
func (r *AccountRepository) modelToEntity(accountModel *model.Account) *entity.Account {
	return &entity.Account{
		UserID:         accountModel.UserID,
		AvailableCents: accountModel.AvailableCents,
		ReservedCents:  accountModel.ReservedCents,
		CreatedAt:      accountModel.CreatedAt,
		UpdatedAt:      accountModel.UpdatedAt,
	}
}

// handleDatabaseError standardizes database error handling
func (r *AccountRepository) handleDatabaseError(operation string, err error, userID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.logger.Debug("Account not found", map[string]any{
			"user_id": userID,
		})
		return errs.ErrAccountNotFound
	}

	r.logger.Error(fmt.Sprintf("Database error when %s", operation), map[string]any{
		"user_id": userID,
		"error":   err.Error(),
	})

	if r.errorClassifier.IsDuplicateKeyError(err) {
		return errs.ErrConstraintViolation
	}
	if r.errorClassifier.IsLockError(err) {
		return errs.ErrAccountLocked
	}

	return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
}

// GetByUserID retrieves an account without locking it
func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (*entity.Account, error) {
	var accountModel model.Account
	result := r.db.WithContext(ctx).First(&accountModel, "user_id = ?", userID)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting account", result.Error, userID)
	}
	return r.modelToEntity(&accountModel), nil
}

// GetByUserIDForUpdate retrieves an account under an exclusive row lock.
// Callers must hold an open transaction; the lock lives until it ends.
func (r *AccountRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*entity.Account, error) {
	var accountModel model.Account
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&accountModel, "user_id = ?", userID)
	if result.Error != nil {
		return nil, r.handleDatabaseError("locking account", result.Error, userID)
	}
	return r.modelToEntity(&accountModel), nil
}

// Create inserts a new account row
func (r *AccountRepository) Create(ctx context.Context, account *entity.Account) error {
	accountModel := model.Account{
		UserID:         account.UserID,
		AvailableCents: account.AvailableCents,
		ReservedCents:  account.ReservedCents,
		CreatedAt:      account.CreatedAt,
		UpdatedAt:      account.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Create(&accountModel)
	if result.Error != nil {
		return r.handleDatabaseError("creating account", result.Error, account.UserID)
	}

	r.logger.Info("Account created", map[string]any{
		"user_id": account.UserID,
	})
	return nil
}

// Update persists the account's balance columns
func (r *AccountRepository) Update(ctx context.Context, account *entity.Account) error {
	result := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("user_id = ?", account.UserID).
		Updates(map[string]interface{}{
			"available_cents": account.AvailableCents,
			"reserved_cents":  account.ReservedCents,
			"updated_at":      account.UpdatedAt,
		})

	if result.Error != nil {
		return r.handleDatabaseError("updating account", result.Error, account.UserID)
	}
	if result.RowsAffected == 0 {
		return errs.ErrAccountNotFound
	}

	r.logger.Debug("Account updated", map[string]any{
		"user_id":         account.UserID,
		"available_cents": account.AvailableCents,
		"reserved_cents":  account.ReservedCents,
	})
	return nil
}
