// Package connectivity owns the process-wide online/offline mode. State holds
// the mode and the user's explicit offline override; Monitor probes the backend
// health endpoint and feeds the result into State.
package connectivity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/amora-planner/internal/events"
	"github.com/phrazzld/amora-planner/internal/kv"
)

// OverrideKey persists the explicit offline override.
const OverrideKey = "offline_mode"

// Mode is the routing mode of the client.
type Mode int

const (
	// Unknown means no probe has completed yet.
	Unknown Mode = iota
	Online
	Offline
)

func (m Mode) String() string {
	switch m {
	case Online:
		return "online"
	case Offline:
		return "offline"
	default:
		return "unknown"
	}
}

// Change reasons carried by events.ModeChanged.
const (
	ReasonProbe    = "probe"
	ReasonOverride = "override"
	ReasonFallback = "fallback"
)

// ModeReader exposes the current mode.
type ModeReader interface {
	Mode() Mode
}

// State is the shared connectivity flag. It is safe for concurrent use.
type State struct {
	kv      kv.Store
	emitter events.Emitter
	logger  *slog.Logger

	mu        sync.RWMutex
	mode      Mode
	override  bool
	reachable bool
}

var _ ModeReader = (*State)(nil)

// NewState loads the persisted override from kvs. A persisted override starts
// the state in Offline; otherwise it starts Unknown. emitter may be nil.
func NewState(ctx context.Context, kvs kv.Store, emitter events.Emitter, logger *slog.Logger) (*State, error) {
	if kvs == nil {
		return nil, errors.New("kv store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &State{
		kv:      kvs,
		emitter: emitter,
		logger:  logger.With("component", "connectivity_state"),
	}

	data, err := kvs.Get(ctx, OverrideKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load offline override: %w", err)
	default:
		s.override = string(data) == "true"
	}
	if s.override {
		s.mode = Offline
	}
	return s, nil
}

// Mode implements ModeReader.
func (s *State) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// OfflineOverride reports whether the user forced offline mode.
func (s *State) OfflineOverride() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.override
}

// Reachable reports the outcome of the last applied probe, which is recorded
// even while the override holds the mode at Offline.
func (s *State) Reachable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reachable
}

// SetOfflineOverride persists the override. Setting it switches to Offline
// immediately. Clearing it leaves the mode unchanged; only a successful probe
// moves the state back to Online.
func (s *State) SetOfflineOverride(ctx context.Context, on bool) error {
	value := []byte("false")
	if on {
		value = []byte("true")
	}

	s.mu.Lock()
	if err := s.kv.Set(ctx, OverrideKey, value); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to persist offline override: %w", err)
	}
	s.override = on
	prev := s.mode
	if on {
		s.mode = Offline
	}
	next := s.mode
	s.mu.Unlock()

	s.notify(ctx, prev, next, ReasonOverride)
	return nil
}

// ForceOffline switches to Offline without persisting an override. Used when
// a login attempt proves the backend unreachable.
func (s *State) ForceOffline(ctx context.Context, reason string) {
	s.mu.Lock()
	prev := s.mode
	s.mode = Offline
	s.reachable = false
	s.mu.Unlock()

	s.notify(ctx, prev, Offline, reason)
}

// applyProbe records a probe outcome. While the override is set the mode
// stays Offline regardless of reachability.
func (s *State) applyProbe(ctx context.Context, reachable bool) Mode {
	s.mu.Lock()
	prev := s.mode
	s.reachable = reachable
	switch {
	case s.override || !reachable:
		s.mode = Offline
	default:
		s.mode = Online
	}
	next := s.mode
	s.mu.Unlock()

	s.notify(ctx, prev, next, ReasonProbe)
	return next
}

func (s *State) notify(ctx context.Context, prev, next Mode, reason string) {
	if prev == next {
		return
	}
	s.logger.InfoContext(ctx, "connectivity mode changed",
		slog.String("previous", prev.String()),
		slog.String("current", next.String()),
		slog.String("reason", reason))

	if s.emitter == nil {
		return
	}
	event, err := events.NewEvent(events.TypeModeChanged, events.ModeChanged{
		Previous: prev.String(),
		Current:  next.String(),
		Reason:   reason,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build mode change event", slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "mode change handler failed", slog.String("error", err.Error()))
	}
}
