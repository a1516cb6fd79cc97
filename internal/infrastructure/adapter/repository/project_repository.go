package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	errs "github.com/brandlens/scan-engine/internal/domain/error"
	coreport "github.com/brandlens/scan-engine/internal/domain/port/core"
	"github.com/brandlens/scan-engine/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// ProjectRepository implements ProjectRepository interface using GORM.
// Query/model lists are stored as JSON columns and unmarshalled here.
type ProjectRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewProjectRepository creates a new ProjectRepository instance
func NewProjectRepository(db *gorm.DB, logger coreport.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *ProjectRepository) modelToEntity(projectModel *model.Project) (*entity.Project, error) {
	project := &entity.Project{
		ID:          projectModel.ID,
		UserID:      projectModel.UserID,
		Name:        projectModel.Name,
		BrandDomain: projectModel.BrandDomain,
		Schedule: entity.ScheduleConfig{
			Enabled:    projectModel.ScheduleEnabled,
			Frequency:  entity.Frequency(projectModel.ScheduleFrequency),
			Hour:       projectModel.ScheduleHour,
			DayOfWeek:  projectModel.ScheduleDayOfWeek,
			DayOfMonth: projectModel.ScheduleDayOfMonth,
			Timezone:   projectModel.ScheduleTimezone,
			NextRunAt:  projectModel.NextRunAt,
			LastRunAt:  projectModel.LastRunAt,
		},
		CreatedAt: projectModel.CreatedAt,
		UpdatedAt: projectModel.UpdatedAt,
	}

	if err := r.unmarshalColumn(projectModel.BrandVariants, &project.BrandVariants, projectModel.ID, "brand_variants"); err != nil {
		return nil, err
	}
	if err := r.unmarshalColumn(projectModel.Queries, &project.Queries, projectModel.ID, "queries"); err != nil {
		return nil, err
	}
	if err := r.unmarshalColumn(projectModel.Models, &project.Models, projectModel.ID, "models"); err != nil {
		return nil, err
	}
	return project, nil
}

func (r *ProjectRepository) unmarshalColumn(raw string, dest any, projectID, column string) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		r.logger.Error("Corrupt JSON column on project row", map[string]any{
			"project_id": projectID,
			"column":     column,
			"error":      err.Error(),
		})
		return fmt.Errorf("%w: corrupt %s column on project %s", errs.ErrInternalServer, column, projectID)
	}
	return nil
}

func (r *ProjectRepository) handleDatabaseError(operation string, err error, projectID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrProjectNotFound
	}

	r.logger.Error(fmt.Sprintf("Database error when %s", operation), map[string]any{
		"project_id": projectID,
		"error":      err.Error(),
	})
	return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
}

// GetByID retrieves a project
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	var projectModel model.Project
	result := r.db.WithContext(ctx).First(&projectModel, "id = ?", id)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting project", result.Error, id)
	}
	return r.modelToEntity(&projectModel)
}

// ListDue returns enabled projects whose nextRunAt is at or before now
func (r *ProjectRepository) ListDue(ctx context.Context, now time.Time) ([]*entity.Project, error) {
	var projectModels []model.Project
	err := r.db.WithContext(ctx).
		Where("schedule_enabled = ? AND next_run_at IS NOT NULL AND next_run_at <= ?", true, now).
		Order("next_run_at ASC").
		Find(&projectModels).Error
	if err != nil {
		return nil, r.handleDatabaseError("listing due projects", err, "")
	}

	projects := make([]*entity.Project, 0, len(projectModels))
	for i := range projectModels {
		project, err := r.modelToEntity(&projectModels[i])
		if err != nil {
			// One corrupt row must not block the whole dispatch cycle.
			r.logger.Warn("Skipping project with corrupt row", map[string]any{
				"project_id": projectModels[i].ID,
			})
			continue
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// UpdateSchedule persists a project's nextRunAt/lastRunAt
func (r *ProjectRepository) UpdateSchedule(ctx context.Context, projectID string, nextRunAt, lastRunAt *time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("id = ?", projectID).
		Updates(map[string]interface{}{
			"next_run_at": nextRunAt,
			"last_run_at": lastRunAt,
		})

	if result.Error != nil {
		return r.handleDatabaseError("updating project schedule", result.Error, projectID)
	}
	if result.RowsAffected == 0 {
		return errs.ErrProjectNotFound
	}

	r.logger.Debug("Project schedule updated", map[string]any{
		"project_id":  projectID,
		"next_run_at": nextRunAt,
	})
	return nil
}

// ScheduleHistoryRepository implements ScheduleHistoryRepository interface using GORM
type ScheduleHistoryRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewScheduleHistoryRepository creates a new ScheduleHistoryRepository instance
func NewScheduleHistoryRepository(db *gorm.DB, logger coreport.Logger) *ScheduleHistoryRepository {
	return &ScheduleHistoryRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// Create inserts a pending history record
func (r *ScheduleHistoryRepository) Create(ctx context.Context, record *entity.ScheduleHistory) error {
	historyModel := model.ScheduleHistory{
		ID:           record.ID,
		ProjectID:    record.ProjectID,
		ScheduledFor: record.ScheduledFor,
		Status:       string(record.Status),
		ErrorMessage: record.ErrorMessage,
		CreatedAt:    record.CreatedAt,
		CompletedAt:  record.CompletedAt,
	}

	result := r.db.WithContext(ctx).Create(&historyModel)
	if result.Error != nil {
		if r.errorClassifier.IsConstraintError(result.Error) {
			return errs.ErrConstraintViolation
		}
		r.logger.Error("Database error when creating history record", map[string]any{
			"history_id": record.ID,
			"error":      result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return nil
}

// Update closes out a history record's status
func (r *ScheduleHistoryRepository) Update(ctx context.Context, record *entity.ScheduleHistory) error {
	result := r.db.WithContext(ctx).Model(&model.ScheduleHistory{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"status":        string(record.Status),
			"error_message": record.ErrorMessage,
			"completed_at":  record.CompletedAt,
		})

	if result.Error != nil {
		r.logger.Error("Database error when updating history record", map[string]any{
			"history_id": record.ID,
			"error":      result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}
