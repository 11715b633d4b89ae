package connectivity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/amora-planner/internal/redact"
	"github.com/phrazzld/amora-planner/internal/wire"
	"github.com/robfig/cron/v3"
)

// DefaultProbeTimeout bounds a single health probe.
const DefaultProbeTimeout = 3 * time.Second

// HealthChecker issues the backend health request. Any error means the
// backend is unreachable.
type HealthChecker interface {
	Health(ctx context.Context) (wire.Health, error)
}

// Monitor probes backend reachability and applies the result to a State.
type Monitor struct {
	state   *State
	checker HealthChecker
	timeout time.Duration
	logger  *slog.Logger

	// issued numbers probes as they start; applied is the newest one whose
	// outcome reached the state. Both are guarded by mu.
	mu      sync.Mutex
	issued  uint64
	applied uint64

	cronMu sync.Mutex
	cron   *cron.Cron
}

// NewMonitor returns a monitor. A non-positive timeout uses DefaultProbeTimeout.
func NewMonitor(state *State, checker HealthChecker, timeout time.Duration, logger *slog.Logger) *Monitor {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		state:   state,
		checker: checker,
		timeout: timeout,
		logger:  logger.With("component", "connectivity_monitor"),
	}
}

// Probe checks the backend once and returns the resulting mode. It never
// fails: errors are logged and count as unreachable. A caller deadline that
// expires mid-probe is a timeout and sets Offline. A probe whose caller
// cancelled, or that completes after a newer probe was applied, leaves the
// state untouched.
func (m *Monitor) Probe(ctx context.Context) Mode {
	m.mu.Lock()
	m.issued++
	seq := m.issued
	m.mu.Unlock()

	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	_, err := m.checker.Health(probeCtx)
	cancel()

	if errors.Is(ctx.Err(), context.Canceled) {
		m.logger.DebugContext(ctx, "probe discarded, caller cancelled", slog.Uint64("probe", seq))
		return m.state.Mode()
	}
	// Mode change handlers still run after the caller's deadline.
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if seq < m.applied {
		m.logger.DebugContext(ctx, "stale probe discarded",
			slog.Uint64("probe", seq),
			slog.Uint64("applied", m.applied))
		return m.state.Mode()
	}
	m.applied = seq

	if err != nil {
		m.logger.DebugContext(ctx, "backend unreachable", slog.String("error", redact.Error(err)))
	}
	return m.state.applyProbe(ctx, err == nil)
}

// Start schedules periodic probes. An empty schedule disables them. The
// schedule uses cron syntax or descriptors such as "@every 30s".
func (m *Monitor) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		return nil
	}

	m.cronMu.Lock()
	defer m.cronMu.Unlock()
	if m.cron != nil {
		return errors.New("monitor already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { m.Probe(ctx) }); err != nil {
		return fmt.Errorf("invalid probe schedule %q: %w", schedule, err)
	}
	c.Start()
	m.cron = c
	m.logger.InfoContext(ctx, "periodic probes started", slog.String("schedule", schedule))
	return nil
}

// Stop halts periodic probes and waits for a running probe to finish.
func (m *Monitor) Stop() {
	m.cronMu.Lock()
	c := m.cron
	m.cron = nil
	m.cronMu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	m.logger.Info("periodic probes stopped")
}
