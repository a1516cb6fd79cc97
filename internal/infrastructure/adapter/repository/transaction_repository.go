package repository

import (
	"context"
	"fmt"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// TransactionRepository implements TransactionRepository interface using GORM.
// The ledger is append-only; this repository has no update or delete path.
type TransactionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *TransactionRepository) modelToEntity(txModel *model.Transaction) *entity.Transaction {
	return &entity.Transaction{
		ID:            txModel.ID,
		UserID:        txModel.UserID,
		Type:          entity.TransactionType(txModel.Type),
		AmountCents:   txModel.AmountCents,
		ReferenceType: entity.ReferenceType(txModel.ReferenceType),
		ReferenceID:   txModel.ReferenceID,
		CreatedAt:     txModel.CreatedAt,
	}
}

func (r *TransactionRepository) handleDatabaseError(operation string, err error, userID string) error {
	r.logger.Error(fmt.Sprintf("Database error when %s", operation), map[string]any{
		"user_id": userID,
		"error":   err.Error(),
	})

	if r.errorClassifier.IsDuplicateKeyError(err) || r.errorClassifier.IsConstraintError(err) {
		return errs.ErrConstraintViolation
	}
	return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
}

// Create appends a ledger entry
func (r *TransactionRepository) Create(ctx context.Context, transaction *entity.Transaction) error {
	txModel := model.Transaction{
		ID:            transaction.ID,
		UserID:        transaction.UserID,
		Type:          string(transaction.Type),
		AmountCents:   transaction.AmountCents,
		ReferenceType: string(transaction.ReferenceType),
		ReferenceID:   transaction.ReferenceID,
		CreatedAt:     transaction.CreatedAt,
	}

	result := r.db.WithContext(ctx).Create(&txModel)
	if result.Error != nil {
		return r.handleDatabaseError("creating ledger entry", result.Error, transaction.UserID)
	}

	r.logger.Debug("Ledger entry created", map[string]any{
		"transaction_id": transaction.ID,
		"user_id":        transaction.UserID,
		"type":           string(transaction.Type),
		"amount_cents":   transaction.AmountCents,
	})
	return nil
}

// ListByUserID returns a user's ledger entries, newest first
func (r *TransactionRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]*entity.Transaction, error) {
	var txModels []model.Transaction
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&txModels).Error; err != nil {
		return nil, r.handleDatabaseError("listing ledger entries", err, userID)
	}

	transactions := make([]*entity.Transaction, 0, len(txModels))
	for i := range txModels {
		transactions = append(transactions, r.modelToEntity(&txModels[i]))
	}
	return transactions, nil
}

// SumByUserID returns the signed sum of all of a user's ledger entries
func (r *TransactionRepository) SumByUserID(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, r.handleDatabaseError("summing ledger entries", err, userID)
	}
	return sum, nil
}
