package persistence

import (
	"context"
	"time"

	"github.com/brandlens/scan-engine/internal/domain/entity"
)

// ProjectRepository defines the read/update surface the engine needs from
// project storage. Project CRUD itself belongs to the page layer and is out
// of scope here.
type ProjectRepository interface {
	// GetByID retrieves a project
	//
	// Possible errors:
	// - ErrProjectNotFound: If no project exists with the ID
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id string) (*entity.Project, error)

	// ListDue returns projects whose schedule is enabled and whose nextRunAt
	// is at or before now
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	ListDue(ctx context.Context, now time.Time) ([]*entity.Project, error)

	// UpdateSchedule persists a project's nextRunAt/lastRunAt
	//
	// Possible errors:
	// - ErrProjectNotFound: If the project disappeared
	// - ErrDatabaseConnection: If database connection fails
	UpdateSchedule(ctx context.Context, projectID string, nextRunAt, lastRunAt *time.Time) error
}

// ScheduleHistoryRepository persists the dispatch-cycle audit trail
type ScheduleHistoryRepository interface {
	// Create inserts a pending history record
	//
	// Possible errors:
	// - ErrConstraintViolation: If the record violates a constraint
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, record *entity.ScheduleHistory) error

	// Update closes out a history record's status
	//
	// Possible errors:
	// - ErrNotFound: If the record disappeared
	// - ErrDatabaseConnection: If database connection fails
	Update(ctx context.Context, record *entity.ScheduleHistory) error
}
