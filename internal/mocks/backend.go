package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/amora-planner/internal/domain"
	"github.com/phrazzld/amora-planner/internal/store"
)

// MockBackend implements store.Backend for testing.
type MockBackend struct {
	RegisterFn         func(ctx context.Context, reg domain.Registration) (domain.User, error)
	LoginFn            func(ctx context.Context, creds domain.Credentials) (domain.Session, error)
	CurrentUserFn      func(ctx context.Context) (domain.User, error)
	UpdateUserFn       func(ctx context.Context, update domain.UserUpdate) (domain.User, error)
	CreateSimulationFn func(ctx context.Context, in domain.SimulationInput) (domain.Simulation, error)
	ListSimulationsFn  func(ctx context.Context, page store.Page) (domain.SimulationPage, error)
	GetSimulationFn    func(ctx context.Context, id int64) (domain.Simulation, error)
	UpdateSimulationFn func(ctx context.Context, id int64, patch domain.SimulationPatch) (domain.Simulation, error)
	DeleteSimulationFn func(ctx context.Context, id int64) error
	StatisticsFn       func(ctx context.Context) (domain.Statistics, error)
	CalculateFn        func(ctx context.Context, in domain.SimulationInput) (domain.Calculation, error)

	mu    sync.Mutex
	calls map[string]int
}

var _ store.Backend = (*MockBackend)(nil)

func (m *MockBackend) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

// Calls returns how many times method was invoked.
func (m *MockBackend) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of invocations across all methods.
func (m *MockBackend) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// Register implements store.Backend.
func (m *MockBackend) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	m.record("Register")
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, reg)
	}
	return domain.User{}, nil
}

// Login implements store.Backend.
func (m *MockBackend) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	m.record("Login")
	if m.LoginFn != nil {
		return m.LoginFn(ctx, creds)
	}
	return domain.Session{}, nil
}

// CurrentUser implements store.Backend.
func (m *MockBackend) CurrentUser(ctx context.Context) (domain.User, error) {
	m.record("CurrentUser")
	if m.CurrentUserFn != nil {
		return m.CurrentUserFn(ctx)
	}
	return domain.User{}, nil
}

// UpdateUser implements store.Backend.
func (m *MockBackend) UpdateUser(ctx context.Context, update domain.UserUpdate) (domain.User, error) {
	m.record("UpdateUser")
	if m.UpdateUserFn != nil {
		return m.UpdateUserFn(ctx, update)
	}
	return domain.User{}, nil
}

// CreateSimulation implements store.Backend.
func (m *MockBackend) CreateSimulation(ctx context.Context, in domain.SimulationInput) (domain.Simulation, error) {
	m.record("CreateSimulation")
	if m.CreateSimulationFn != nil {
		return m.CreateSimulationFn(ctx, in)
	}
	return domain.Simulation{}, nil
}

// ListSimulations implements store.Backend.
func (m *MockBackend) ListSimulations(ctx context.Context, page store.Page) (domain.SimulationPage, error) {
	m.record("ListSimulations")
	if m.ListSimulationsFn != nil {
		return m.ListSimulationsFn(ctx, page)
	}
	return domain.SimulationPage{}, nil
}

// GetSimulation implements store.Backend.
func (m *MockBackend) GetSimulation(ctx context.Context, id int64) (domain.Simulation, error) {
	m.record("GetSimulation")
	if m.GetSimulationFn != nil {
		return m.GetSimulationFn(ctx, id)
	}
	return domain.Simulation{}, nil
}

// UpdateSimulation implements store.Backend.
func (m *MockBackend) UpdateSimulation(ctx context.Context, id int64, patch domain.SimulationPatch) (domain.Simulation, error) {
	m.record("UpdateSimulation")
	if m.UpdateSimulationFn != nil {
		return m.UpdateSimulationFn(ctx, id, patch)
	}
	return domain.Simulation{}, nil
}

// DeleteSimulation implements store.Backend.
func (m *MockBackend) DeleteSimulation(ctx context.Context, id int64) error {
	m.record("DeleteSimulation")
	if m.DeleteSimulationFn != nil {
		return m.DeleteSimulationFn(ctx, id)
	}
	return nil
}

// Statistics implements store.Backend.
func (m *MockBackend) Statistics(ctx context.Context) (domain.Statistics, error) {
	m.record("Statistics")
	if m.StatisticsFn != nil {
		return m.StatisticsFn(ctx)
	}
	return domain.Statistics{}, nil
}

// Calculate implements store.Backend.
func (m *MockBackend) Calculate(ctx context.Context, in domain.SimulationInput) (domain.Calculation, error) {
	m.record("Calculate")
	if m.CalculateFn != nil {
		return m.CalculateFn(ctx, in)
	}
	return domain.Calculation{}, nil
}
