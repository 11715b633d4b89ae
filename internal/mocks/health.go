package mocks

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/phrazzld/amora-planner/internal/wire"
)

// MockHealthChecker implements connectivity.HealthChecker for testing.
// HealthFn takes precedence; otherwise Healthy selects the outcome.
type MockHealthChecker struct {
	HealthFn func(ctx context.Context) (wire.Health, error)
	Healthy  atomic.Bool

	calls atomic.Int32
}

// NewMockHealthChecker returns a checker reporting healthy as given.
func NewMockHealthChecker(healthy bool) *MockHealthChecker {
	m := &MockHealthChecker{}
	m.Healthy.Store(healthy)
	return m
}

// Health implements connectivity.HealthChecker.
func (m *MockHealthChecker) Health(ctx context.Context) (wire.Health, error) {
	m.calls.Add(1)
	if m.HealthFn != nil {
		return m.HealthFn(ctx)
	}
	if m.Healthy.Load() {
		return wire.Health{Status: "healthy", Service: "mock"}, nil
	}
	return wire.Health{}, errors.New("connection refused")
}

// Calls returns the number of health requests made.
func (m *MockHealthChecker) Calls() int {
	return int(m.calls.Load())
}
