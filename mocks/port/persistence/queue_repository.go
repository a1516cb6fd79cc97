package persistence

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/brandlens/scan-engine/internal/domain/entity"
)

// MockQueueRepository is a mock implementation of the QueueRepository port
type MockQueueRepository struct {
	mock.Mock
}

func (m *MockQueueRepository) Create(ctx context.Context, entry *entity.QueueEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockQueueRepository) GetByID(ctx context.Context, id string) (*entity.QueueEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.QueueEntry), args.Error(1)
}

func (m *MockQueueRepository) Claim(ctx context.Context, id string, startedAt time.Time) error {
	args := m.Called(ctx, id, startedAt)
	return args.Error(0)
}

func (m *MockQueueRepository) Update(ctx context.Context, entry *entity.QueueEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockQueueRepository) TransitionStatus(ctx context.Context, entry *entity.QueueEntry, from entity.QueueStatus) (bool, error) {
	args := m.Called(ctx, entry, from)
	return args.Bool(0), args.Error(1)
}

func (m *MockQueueRepository) ListPending(ctx context.Context, limit int) ([]*entity.QueueEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.QueueEntry), args.Error(1)
}

func (m *MockQueueRepository) ListActiveByUserID(ctx context.Context, userID string) ([]*entity.QueueEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.QueueEntry), args.Error(1)
}

func (m *MockQueueRepository) ListRunningStale(ctx context.Context, cutoff time.Time, userID string) ([]*entity.QueueEntry, error) {
	args := m.Called(ctx, cutoff, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.QueueEntry), args.Error(1)
}

func (m *MockQueueRepository) HasLiveEntryForScan(ctx context.Context, scanID string) (bool, error) {
	args := m.Called(ctx, scanID)
	return args.Bool(0), args.Error(1)
}
