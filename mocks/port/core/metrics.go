package core

import (
	"github.com/stretchr/testify/mock"
)

// MockMetrics is a mock implementation of the Metrics port
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) ScansDispatched(n int) {
	m.Called(n)
}

func (m *MockMetrics) ScanCompleted() {
	m.Called()
}

func (m *MockMetrics) ScanFailed() {
	m.Called()
}

func (m *MockMetrics) SweeperRepairs(n int) {
	m.Called(n)
}

func (m *MockMetrics) QueueDepth(n int) {
	m.Called(n)
}
