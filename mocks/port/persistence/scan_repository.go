package persistence

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/brandlens/scan-engine/internal/domain/entity"
)

// MockScanRepository is a mock implementation of the ScanRepository port
type MockScanRepository struct {
	mock.Mock
}

func (m *MockScanRepository) Create(ctx context.Context, scan *entity.Scan) error {
	args := m.Called(ctx, scan)
	return args.Error(0)
}

func (m *MockScanRepository) GetByID(ctx context.Context, id string) (*entity.Scan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Scan), args.Error(1)
}

func (m *MockScanRepository) Update(ctx context.Context, scan *entity.Scan) error {
	args := m.Called(ctx, scan)
	return args.Error(0)
}

func (m *MockScanRepository) TransitionStatus(ctx context.Context, scan *entity.Scan, from entity.ScanStatus) (bool, error) {
	args := m.Called(ctx, scan, from)
	return args.Bool(0), args.Error(1)
}

func (m *MockScanRepository) ListRunningBefore(ctx context.Context, cutoff time.Time, userID string) ([]*entity.Scan, error) {
	args := m.Called(ctx, cutoff, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Scan), args.Error(1)
}

func (m *MockScanRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]*entity.Scan, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Scan), args.Error(1)
}

// MockScanResultRepository is a mock implementation of the ScanResultRepository port
type MockScanResultRepository struct {
	mock.Mock
}

func (m *MockScanResultRepository) Create(ctx context.Context, result *entity.ScanResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockScanResultRepository) ListByScanID(ctx context.Context, scanID string) ([]*entity.ScanResult, error) {
	args := m.Called(ctx, scanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.ScanResult), args.Error(1)
}
