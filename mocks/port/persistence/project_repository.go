package persistence

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/brandlens/scan-engine/internal/domain/entity"
)

// MockProjectRepository is a mock implementation of the ProjectRepository port
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Project), args.Error(1)
}

func (m *MockProjectRepository) ListDue(ctx context.Context, now time.Time) ([]*entity.Project, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Project), args.Error(1)
}

func (m *MockProjectRepository) UpdateSchedule(ctx context.Context, projectID string, nextRunAt, lastRunAt *time.Time) error {
	args := m.Called(ctx, projectID, nextRunAt, lastRunAt)
	return args.Error(0)
}

// MockScheduleHistoryRepository is a mock implementation of the ScheduleHistoryRepository port
type MockScheduleHistoryRepository struct {
	mock.Mock
}

func (m *MockScheduleHistoryRepository) Create(ctx context.Context, record *entity.ScheduleHistory) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockScheduleHistoryRepository) Update(ctx context.Context, record *entity.ScheduleHistory) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
