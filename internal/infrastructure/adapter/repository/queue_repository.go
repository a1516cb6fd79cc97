package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// QueueRepository implements QueueRepository interface using GORM. The claim
// path is a conditional UPDATE on the pending status, so at most one of N
// concurrent workers wins any given entry.
type QueueRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewQueueRepository creates a new QueueRepository instance
func NewQueueRepository(db *gorm.DB, logger coreport.Logger) *QueueRepository {
	return &QueueRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *QueueRepository) modelToEntity(entryModel *model.QueueEntry) *entity.QueueEntry {
	return &entity.QueueEntry{
		ID:              entryModel.ID,
		UserID:          entryModel.UserID,
		ProjectID:       entryModel.ProjectID,
		ScanID:          entryModel.ScanID,
		Status:          entity.QueueStatus(entryModel.Status),
		Priority:        entryModel.Priority,
		ProgressCurrent: entryModel.ProgressCurrent,
		ProgressTotal:   entryModel.ProgressTotal,
		ProgressMessage: entryModel.ProgressMessage,
		ErrorMessage:    entryModel.ErrorMessage,
		CreatedAt:       entryModel.CreatedAt,
		StartedAt:       entryModel.StartedAt,
		UpdatedAt:       entryModel.UpdatedAt,
	}
}

func (r *QueueRepository) handleDatabaseError(operation string, err error, entryID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrQueueEntryNotFound
	}

	r.logger.Error(fmt.Sprintf("Database error when %s", operation), map[string]any{
		"entry_id": entryID,
		"error":    err.Error(),
	})

	if r.errorClassifier.IsDuplicateKeyError(err) || r.errorClassifier.IsConstraintError(err) {
		return errs.ErrConstraintViolation
	}
	return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
}

// Create inserts a pending queue entry
func (r *QueueRepository) Create(ctx context.Context, entry *entity.QueueEntry) error {
	entryModel := model.QueueEntry{
		ID:              entry.ID,
		UserID:          entry.UserID,
		ProjectID:       entry.ProjectID,
		ScanID:          entry.ScanID,
		Status:          string(entry.Status),
		Priority:        entry.Priority,
		ProgressCurrent: entry.ProgressCurrent,
		ProgressTotal:   entry.ProgressTotal,
		ProgressMessage: entry.ProgressMessage,
		ErrorMessage:    entry.ErrorMessage,
		CreatedAt:       entry.CreatedAt,
		StartedAt:       entry.StartedAt,
		UpdatedAt:       entry.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Create(&entryModel)
	if result.Error != nil {
		return r.handleDatabaseError("creating queue entry", result.Error, entry.ID)
	}

	r.logger.Info("Queue entry created", map[string]any{
		"entry_id":   entry.ID,
		"project_id": entry.ProjectID,
		"user_id":    entry.UserID,
	})
	return nil
}

// GetByID retrieves a queue entry
func (r *QueueRepository) GetByID(ctx context.Context, id string) (*entity.QueueEntry, error) {
	var entryModel model.QueueEntry
	result := r.db.WithContext(ctx).First(&entryModel, "id = ?", id)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting queue entry", result.Error, id)
	}
	return r.modelToEntity(&entryModel), nil
}

// Claim atomically transitions an entry from pending to running. The status
// guard in the WHERE clause is what makes the claim race-safe.
func (r *QueueRepository) Claim(ctx context.Context, id string, startedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.QueueEntry{}).
		Where("id = ? AND status = ?", id, string(entity.QueuePending)).
		Updates(map[string]interface{}{
			"status":     string(entity.QueueRunning),
			"started_at": startedAt,
			"updated_at": startedAt,
		})

	if result.Error != nil {
		return r.handleDatabaseError("claiming queue entry", result.Error, id)
	}
	if result.RowsAffected == 0 {
		return errs.ErrEntryAlreadyClaimed
	}

	r.logger.Debug("Queue entry claimed", map[string]any{
		"entry_id": id,
	})
	return nil
}

// Update persists an entry's progress fields under a running-status guard.
// Status itself moves only through Claim and TransitionStatus, so a repair
// that already failed the entry is never overwritten by a late worker write;
// the worker sees ErrEntryNotRunning instead and must stand down.
func (r *QueueRepository) Update(ctx context.Context, entry *entity.QueueEntry) error {
	result := r.db.WithContext(ctx).Model(&model.QueueEntry{}).
		Where("id = ? AND status = ?", entry.ID, string(entity.QueueRunning)).
		Updates(r.progressColumns(entry))

	if result.Error != nil {
		return r.handleDatabaseError("updating queue entry", result.Error, entry.ID)
	}
	if result.RowsAffected == 0 {
		return errs.ErrEntryNotRunning
	}
	return nil
}

// TransitionStatus conditionally moves an entry out of the expected status
func (r *QueueRepository) TransitionStatus(ctx context.Context, entry *entity.QueueEntry, from entity.QueueStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.QueueEntry{}).
		Where("id = ? AND status = ?", entry.ID, string(from)).
		Updates(r.mutableColumns(entry))

	if result.Error != nil {
		return false, r.handleDatabaseError("transitioning queue entry status", result.Error, entry.ID)
	}
	if result.RowsAffected == 0 {
		r.logger.Debug("Queue entry status transition lost", map[string]any{
			"entry_id":    entry.ID,
			"from_status": string(from),
			"to_status":   string(entry.Status),
		})
		return false, nil
	}
	return true, nil
}

func (r *QueueRepository) mutableColumns(entry *entity.QueueEntry) map[string]interface{} {
	return map[string]interface{}{
		"scan_id":          entry.ScanID,
		"status":           string(entry.Status),
		"progress_current": entry.ProgressCurrent,
		"progress_total":   entry.ProgressTotal,
		"progress_message": entry.ProgressMessage,
		"error_message":    entry.ErrorMessage,
		"updated_at":       entry.UpdatedAt,
	}
}

func (r *QueueRepository) progressColumns(entry *entity.QueueEntry) map[string]interface{} {
	return map[string]interface{}{
		"scan_id":          entry.ScanID,
		"progress_current": entry.ProgressCurrent,
		"progress_total":   entry.ProgressTotal,
		"progress_message": entry.ProgressMessage,
		"updated_at":       entry.UpdatedAt,
	}
}

// ListPending returns pending entries ordered by priority then age
func (r *QueueRepository) ListPending(ctx context.Context, limit int) ([]*entity.QueueEntry, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", string(entity.QueuePending)).
		Order("priority DESC, created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entryModels []model.QueueEntry
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, r.handleDatabaseError("listing pending entries", err, "")
	}
	return r.modelsToEntities(entryModels), nil
}

// ListActiveByUserID returns a user's pending and running entries
func (r *QueueRepository) ListActiveByUserID(ctx context.Context, userID string) ([]*entity.QueueEntry, error) {
	var entryModels []model.QueueEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, []string{
			string(entity.QueuePending),
			string(entity.QueueRunning),
		}).
		Order("created_at ASC").
		Find(&entryModels).Error
	if err != nil {
		return nil, r.handleDatabaseError("listing active entries", err, "")
	}
	return r.modelsToEntities(entryModels), nil
}

// ListRunningStale returns running entries whose updatedAt is older than the cutoff
func (r *QueueRepository) ListRunningStale(ctx context.Context, cutoff time.Time, userID string) ([]*entity.QueueEntry, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", string(entity.QueueRunning), cutoff)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var entryModels []model.QueueEntry
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, r.handleDatabaseError("listing stale entries", err, "")
	}
	return r.modelsToEntities(entryModels), nil
}

// HasLiveEntryForScan reports whether any pending or running entry references the scan
func (r *QueueRepository) HasLiveEntryForScan(ctx context.Context, scanID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.QueueEntry{}).
		Where("scan_id = ? AND status IN ?", scanID, []string{
			string(entity.QueuePending),
			string(entity.QueueRunning),
		}).
		Count(&count).Error
	if err != nil {
		return false, r.handleDatabaseError("checking live entries", err, "")
	}
	return count > 0, nil
}

func (r *QueueRepository) modelsToEntities(entryModels []model.QueueEntry) []*entity.QueueEntry {
	entries := make([]*entity.QueueEntry, 0, len(entryModels))
	for i := range entryModels {
		entries = append(entries, r.modelToEntity(&entryModels[i]))
	}
	return entries
}
