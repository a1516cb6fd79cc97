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

// ReservationRepository implements ReservationRepository interface using GORM
type ReservationRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewReservationRepository creates a new ReservationRepository instance
func NewReservationRepository(db *gorm.DB, logger coreport.Logger) *ReservationRepository {
	return &ReservationRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *ReservationRepository) modelToEntity(resModel *model.Reservation) *entity.Reservation {
	return &entity.Reservation{
		ID:          resModel.ID,
		UserID:      resModel.UserID,
		ScanID:      resModel.ScanID,
		AmountCents: resModel.AmountCents,
		Status:      entity.ReservationStatus(resModel.Status),
		Reason:      resModel.Reason,
		CreatedAt:   resModel.CreatedAt,
		ClosedAt:    resModel.ClosedAt,
	}
}

func (r *ReservationRepository) handleDatabaseError(operation string, err error, reservationID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrReservationNotFound
	}

	r.logger.Error(fmt.Sprintf("Database error when %s", operation), map[string]any{
		"reservation_id": reservationID,
		"error":          err.Error(),
	})

	if r.errorClassifier.IsDuplicateKeyError(err) || r.errorClassifier.IsConstraintError(err) {
		return errs.ErrConstraintViolation
	}
	return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
}

// Create inserts a new reservation
func (r *ReservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	resModel := model.Reservation{
		ID:          reservation.ID,
		UserID:      reservation.UserID,
		ScanID:      reservation.ScanID,
		AmountCents: reservation.AmountCents,
		Status:      string(reservation.Status),
		Reason:      reservation.Reason,
		CreatedAt:   reservation.CreatedAt,
		ClosedAt:    reservation.ClosedAt,
	}

	result := r.db.WithContext(ctx).Create(&resModel)
	if result.Error != nil {
		return r.handleDatabaseError("creating reservation", result.Error, reservation.ID)
	}

	r.logger.Debug("Reservation created", map[string]any{
		"reservation_id": reservation.ID,
		"scan_id":        reservation.ScanID,
		"amount_cents":   reservation.AmountCents,
	})
	return nil
}

// GetByID retrieves a reservation
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*entity.Reservation, error) {
	var resModel model.Reservation
	result := r.db.WithContext(ctx).First(&resModel, "id = ?", id)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting reservation", result.Error, id)
	}
	return r.modelToEntity(&resModel), nil
}

// GetByIDForUpdate retrieves a reservation under an exclusive row lock
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, id string) (*entity.Reservation, error) {
	var resModel model.Reservation
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&resModel, "id = ?", id)
	if result.Error != nil {
		return nil, r.handleDatabaseError("locking reservation", result.Error, id)
	}
	return r.modelToEntity(&resModel), nil
}

// GetActiveByScanID retrieves the single active reservation for a scan
func (r *ReservationRepository) GetActiveByScanID(ctx context.Context, scanID string) (*entity.Reservation, error) {
	var resModel model.Reservation
	result := r.db.WithContext(ctx).
		First(&resModel, "scan_id = ? AND status = ?", scanID, string(entity.ReservationActive))
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting active reservation", result.Error, scanID)
	}
	return r.modelToEntity(&resModel), nil
}

// Update persists a reservation's status transition
func (r *ReservationRepository) Update(ctx context.Context, reservation *entity.Reservation) error {
	result := r.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("id = ?", reservation.ID).
		Updates(map[string]interface{}{
			"status":    string(reservation.Status),
			"reason":    reservation.Reason,
			"closed_at": reservation.ClosedAt,
		})

	if result.Error != nil {
		return r.handleDatabaseError("updating reservation", result.Error, reservation.ID)
	}
	if result.RowsAffected == 0 {
		return errs.ErrReservationNotFound
	}

	r.logger.Debug("Reservation updated", map[string]any{
		"reservation_id": reservation.ID,
		"status":         string(reservation.Status),
	})
	return nil
}
