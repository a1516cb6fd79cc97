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

// ScanRepository implements ScanRepository interface using GORM
type ScanRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewScanRepository creates a new ScanRepository instance
func NewScanRepository(db *gorm.DB, logger coreport.Logger) *ScanRepository {
	return &ScanRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *ScanRepository) modelToEntity(scanModel *model.Scan) *entity.Scan {
	return &entity.Scan{
		ID:           scanModel.ID,
		ProjectID:    scanModel.ProjectID,
		UserID:       scanModel.UserID,
		Status:       entity.ScanStatus(scanModel.Status),
		TotalQueries: scanModel.TotalQueries,
		TotalResults: scanModel.TotalResults,
		TotalCostUsd: scanModel.TotalCostUsd,
		ErrorMessage: scanModel.ErrorMessage,
		CreatedAt:    scanModel.CreatedAt,
		CompletedAt:  scanModel.CompletedAt,
	}
}

func (r *ScanRepository) handleDatabaseError(operation string, err error, scanID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrScanNotFound
	}

	r.logger.Error(fmt.Sprintf("Database error when %s", operation), map[string]any{
		"scan_id": scanID,
		"error":   err.Error(),
	})

	if r.errorClassifier.IsDuplicateKeyError(err) || r.errorClassifier.IsConstraintError(err) {
		return errs.ErrConstraintViolation
	}
	return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
}

// Create inserts a new scan
func (r *ScanRepository) Create(ctx context.Context, scan *entity.Scan) error {
	scanModel := model.Scan{
		ID:           scan.ID,
		ProjectID:    scan.ProjectID,
		UserID:       scan.UserID,
		Status:       string(scan.Status),
		TotalQueries: scan.TotalQueries,
		TotalResults: scan.TotalResults,
		TotalCostUsd: scan.TotalCostUsd,
		ErrorMessage: scan.ErrorMessage,
		CreatedAt:    scan.CreatedAt,
		CompletedAt:  scan.CompletedAt,
	}

	result := r.db.WithContext(ctx).Create(&scanModel)
	if result.Error != nil {
		return r.handleDatabaseError("creating scan", result.Error, scan.ID)
	}

	r.logger.Info("Scan created", map[string]any{
		"scan_id":    scan.ID,
		"project_id": scan.ProjectID,
		"user_id":    scan.UserID,
	})
	return nil
}

// GetByID retrieves a scan
func (r *ScanRepository) GetByID(ctx context.Context, id string) (*entity.Scan, error) {
	var scanModel model.Scan
	result := r.db.WithContext(ctx).First(&scanModel, "id = ?", id)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting scan", result.Error, id)
	}
	return r.modelToEntity(&scanModel), nil
}

// Update persists a scan's fields unconditionally
func (r *ScanRepository) Update(ctx context.Context, scan *entity.Scan) error {
	result := r.db.WithContext(ctx).Model(&model.Scan{}).
		Where("id = ?", scan.ID).
		Updates(r.terminalColumns(scan))

	if result.Error != nil {
		return r.handleDatabaseError("updating scan", result.Error, scan.ID)
	}
	if result.RowsAffected == 0 {
		return errs.ErrScanNotFound
	}
	return nil
}

// TransitionStatus conditionally moves a scan out of the expected status.
// The WHERE clause on the old status makes concurrent repairs race-safe:
// exactly one caller observes RowsAffected == 1.
func (r *ScanRepository) TransitionStatus(ctx context.Context, scan *entity.Scan, from entity.ScanStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Scan{}).
		Where("id = ? AND status = ?", scan.ID, string(from)).
		Updates(r.terminalColumns(scan))

	if result.Error != nil {
		return false, r.handleDatabaseError("transitioning scan status", result.Error, scan.ID)
	}
	if result.RowsAffected == 0 {
		r.logger.Debug("Scan status transition lost", map[string]any{
			"scan_id":     scan.ID,
			"from_status": string(from),
			"to_status":   string(scan.Status),
		})
		return false, nil
	}

	r.logger.Info("Scan status transitioned", map[string]any{
		"scan_id":     scan.ID,
		"from_status": string(from),
		"to_status":   string(scan.Status),
	})
	return true, nil
}

func (r *ScanRepository) terminalColumns(scan *entity.Scan) map[string]interface{} {
	return map[string]interface{}{
		"status":         string(scan.Status),
		"total_results":  scan.TotalResults,
		"total_cost_usd": scan.TotalCostUsd,
		"error_message":  scan.ErrorMessage,
		"completed_at":   scan.CompletedAt,
	}
}

// ListRunningBefore returns running scans created before the cutoff
func (r *ScanRepository) ListRunningBefore(ctx context.Context, cutoff time.Time, userID string) ([]*entity.Scan, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(entity.ScanRunning), cutoff)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var scanModels []model.Scan
	if err := query.Find(&scanModels).Error; err != nil {
		return nil, r.handleDatabaseError("listing running scans", err, "")
	}

	scans := make([]*entity.Scan, 0, len(scanModels))
	for i := range scanModels {
		scans = append(scans, r.modelToEntity(&scanModels[i]))
	}
	return scans, nil
}

// ListByUserID returns a user's scans, newest first
func (r *ScanRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]*entity.Scan, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var scanModels []model.Scan
	if err := query.Find(&scanModels).Error; err != nil {
		return nil, r.handleDatabaseError("listing scans", err, "")
	}

	scans := make([]*entity.Scan, 0, len(scanModels))
	for i := range scanModels {
		scans = append(scans, r.modelToEntity(&scanModels[i]))
	}
	return scans, nil
}

// ScanResultRepository implements ScanResultRepository interface using GORM
type ScanResultRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewScanResultRepository creates a new ScanResultRepository instance
func NewScanResultRepository(db *gorm.DB, logger coreport.Logger) *ScanResultRepository {
	return &ScanResultRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *ScanResultRepository) modelToEntity(resultModel *model.ScanResult) *entity.ScanResult {
	return &entity.ScanResult{
		ID:           resultModel.ID,
		ScanID:       resultModel.ScanID,
		Query:        resultModel.Query,
		Provider:     resultModel.Provider,
		Model:        resultModel.Model,
		ResponseText: resultModel.ResponseText,
		TokensIn:     resultModel.TokensIn,
		TokensOut:    resultModel.TokensOut,
		CostCents:    resultModel.CostCents,
		Failed:       resultModel.Failed,
		ErrorMessage: resultModel.ErrorMessage,
		Mentioned:    resultModel.Mentioned,
		MentionCount: resultModel.MentionCount,
		DomainCited:  resultModel.DomainCited,
		CreatedAt:    resultModel.CreatedAt,
	}
}

// Create inserts a result row
func (r *ScanResultRepository) Create(ctx context.Context, scanResult *entity.ScanResult) error {
	resultModel := model.ScanResult{
		ID:           scanResult.ID,
		ScanID:       scanResult.ScanID,
		Query:        scanResult.Query,
		Provider:     scanResult.Provider,
		Model:        scanResult.Model,
		ResponseText: scanResult.ResponseText,
		TokensIn:     scanResult.TokensIn,
		TokensOut:    scanResult.TokensOut,
		CostCents:    scanResult.CostCents,
		Failed:       scanResult.Failed,
		ErrorMessage: scanResult.ErrorMessage,
		Mentioned:    scanResult.Mentioned,
		MentionCount: scanResult.MentionCount,
		DomainCited:  scanResult.DomainCited,
		CreatedAt:    scanResult.CreatedAt,
	}

	result := r.db.WithContext(ctx).Create(&resultModel)
	if result.Error != nil {
		if r.errorClassifier.IsConstraintError(result.Error) {
			return errs.ErrConstraintViolation
		}
		r.logger.Error("Database error when creating scan result", map[string]any{
			"scan_id": scanResult.ScanID,
			"error":   result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return nil
}

// ListByScanID returns a scan's result rows in creation order
func (r *ScanResultRepository) ListByScanID(ctx context.Context, scanID string) ([]*entity.ScanResult, error) {
	var resultModels []model.ScanResult
	err := r.db.WithContext(ctx).
		Where("scan_id = ?", scanID).
		Order("created_at ASC").
		Find(&resultModels).Error
	if err != nil {
		r.logger.Error("Database error when listing scan results", map[string]any{
			"scan_id": scanID,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	results := make([]*entity.ScanResult, 0, len(resultModels))
	for i := range resultModels {
		results = append(results, r.modelToEntity(&resultModels[i]))
	}
	return results, nil
}
