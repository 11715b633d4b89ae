package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/amora-planner/internal/connectivity"
	"github.com/phrazzld/amora-planner/internal/credential"
	"github.com/phrazzld/amora-planner/internal/domain"
	"github.com/phrazzld/amora-planner/internal/domain/eligibility"
	"github.com/phrazzld/amora-planner/internal/events"
	"github.com/phrazzld/amora-planner/internal/platform/logger"
	"github.com/phrazzld/amora-planner/internal/redact"
	"github.com/phrazzld/amora-planner/internal/store"
)

// Prober runs a connectivity probe and returns the resulting mode.
type Prober interface {
	Probe(ctx context.Context) connectivity.Mode
}

// Deps are the collaborators of a SyncService.
type Deps struct {
	// Remote serves requests while Online.
	Remote store.Backend
	// Local serves requests while Offline.
	Local store.Backend

	State       *connectivity.State
	Prober      Prober
	Health      connectivity.HealthChecker
	Credentials credential.Provider

	// BaseURL is reported by TestConnection.
	BaseURL string
	Params  eligibility.Params
	Logger  *slog.Logger
}

// SyncService is the single entry point for every operation. Each call reads
// the connectivity mode once and routes to the remote or local backend; both
// share one contract, so results and errors look the same in either mode.
type SyncService struct {
	remote  store.Backend
	local   store.Backend
	state   *connectivity.State
	prober  Prober
	health  connectivity.HealthChecker
	creds   credential.Provider
	baseURL string
	params  eligibility.Params
	logger  *slog.Logger

	// probeMu serialises the first probe while the mode is Unknown.
	probeMu sync.Mutex
	cache   *simulationCache
}

var _ events.Handler = (*SyncService)(nil)

// NewSyncService validates deps and builds the facade. Register the result
// with the connectivity event emitter so mode changes drop the cache.
func NewSyncService(deps Deps) (*SyncService, error) {
	switch {
	case deps.Remote == nil:
		return nil, errors.New("remote backend cannot be nil")
	case deps.Local == nil:
		return nil, errors.New("local backend cannot be nil")
	case deps.State == nil:
		return nil, errors.New("connectivity state cannot be nil")
	case deps.Prober == nil:
		return nil, errors.New("prober cannot be nil")
	case deps.Health == nil:
		return nil, errors.New("health checker cannot be nil")
	case deps.Credentials == nil:
		return nil, errors.New("credential provider cannot be nil")
	}
	if deps.Params == (eligibility.Params{}) {
		deps.Params = eligibility.DefaultParams()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &SyncService{
		remote:  deps.Remote,
		local:   deps.Local,
		state:   deps.State,
		prober:  deps.Prober,
		health:  deps.Health,
		creds:   deps.Credentials,
		baseURL: deps.BaseURL,
		params:  deps.Params,
		logger:  deps.Logger.With("component", "sync_service"),
		cache:   newSimulationCache(),
	}, nil
}

// HandleEvent implements events.Handler: any mode change drops the cache.
func (s *SyncService) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeModeChanged {
		return nil
	}
	s.cache.invalidate()
	s.log(ctx).DebugContext(ctx, "simulation cache dropped after mode change")
	return nil
}

// Mode returns the current connectivity mode.
func (s *SyncService) Mode() connectivity.Mode {
	return s.state.Mode()
}

// route reads the mode once and picks the backend. While the mode is
// Unknown the first caller probes and the rest wait for it.
func (s *SyncService) route(ctx context.Context) (store.Backend, connectivity.Mode, error) {
	mode := s.state.Mode()
	if mode == connectivity.Unknown {
		s.probeMu.Lock()
		mode = s.state.Mode()
		if mode == connectivity.Unknown {
			mode = s.prober.Probe(ctx)
		}
		s.probeMu.Unlock()
	}

	switch mode {
	case connectivity.Online:
		return s.remote, mode, nil
	case connectivity.Offline:
		return s.local, mode, nil
	default:
		if err := ctx.Err(); err != nil {
			return nil, mode, err
		}
		return nil, mode, errors.New("connectivity mode could not be determined")
	}
}

func (s *SyncService) log(ctx context.Context) *slog.Logger {
	if id := logger.RequestID(ctx); id != "" {
		return s.logger.With("request_id", id)
	}
	return s.logger
}

// fail logs err with its category and returns it unchanged.
func (s *SyncService) fail(ctx context.Context, op string, mode connectivity.Mode, err error) error {
	category := store.Category(err)
	level := slog.LevelWarn
	switch category {
	case store.CategoryValidationFailed, store.CategoryOfflineBlocked, store.CategoryCanceled:
		level = slog.LevelDebug
	case store.CategoryStorageFailed, store.CategoryUnknown:
		level = slog.LevelError
	}
	s.log(ctx).Log(ctx, level, "operation failed",
		slog.String("operation", op),
		slog.String("mode", mode.String()),
		slog.String("category", string(category)),
		slog.String("error", redact.Error(err)))
	return err
}

// Register creates an account.
func (s *SyncService) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	if err := reg.Validate(); err != nil {
		return domain.User{}, err
	}
	b, mode, err := s.route(ctx)
	if err != nil {
		return domain.User{}, err
	}
	user, err := b.Register(ctx, reg)
	if err != nil {
		return domain.User{}, s.fail(ctx, "register", mode, err)
	}
	return user, nil
}

// Login opens a session in the current mode.
func (s *SyncService) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	if err := creds.Validate(); err != nil {
		return domain.Session{}, err
	}
	b, mode, err := s.route(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	session, err := b.Login(ctx, creds)
	if err != nil {
		return domain.Session{}, s.fail(ctx, "login", mode, err)
	}
	s.cache.invalidate()
	s.log(ctx).InfoContext(ctx, "logged in",
		slog.String("mode", mode.String()),
		slog.Int64("user_id", session.User.ID))
	return session, nil
}

// LoginWithDemoFallback logs in, and when the backend turns out to be
// unreachable switches to Offline and opens a mock session instead. Any other
// failure is returned unchanged and leaves the mode alone.
func (s *SyncService) LoginWithDemoFallback(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	if err := creds.Validate(); err != nil {
		return domain.Session{}, err
	}
	b, mode, err := s.route(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	session, err := b.Login(ctx, creds)
	if err == nil {
		s.cache.invalidate()
		return session, nil
	}
	if mode != connectivity.Online || !errors.Is(err, store.ErrNetworkUnreachable) {
		return domain.Session{}, s.fail(ctx, "login", mode, err)
	}

	s.log(ctx).WarnContext(ctx, "backend unreachable during login, continuing offline",
		slog.String("error", redact.Error(err)))
	s.state.ForceOffline(ctx, connectivity.ReasonFallback)

	session, err = s.local.Login(ctx, creds)
	if err != nil {
		return domain.Session{}, s.fail(ctx, "login", connectivity.Offline, err)
	}
	return session, nil
}

// Logout forgets the credential and the cached collection. The cache is
// dropped even when the credential store fails.
func (s *SyncService) Logout(ctx context.Context) error {
	s.cache.invalidate()
	if err := s.creds.Clear(ctx); err != nil {
		return s.fail(ctx, "logout", s.state.Mode(), fmt.Errorf("%w: %w", store.ErrStorageFailed, err))
	}
	s.log(ctx).InfoContext(ctx, "logged out")
	return nil
}

// CurrentUser returns the account of the held credential.
func (s *SyncService) CurrentUser(ctx context.Context) (domain.User, error) {
	b, mode, err := s.route(ctx)
	if err != nil {
		return domain.User{}, err
	}
	user, err := b.CurrentUser(ctx)
	if err != nil {
		return domain.User{}, s.fail(ctx, "current_user", mode, err)
	}
	return user, nil
}

// UpdateUser changes the display name.
func (s *SyncService) UpdateUser(ctx context.Context, update domain.UserUpdate) (domain.User, error) {
	if err := update.Validate(); err != nil {
		return domain.User{}, err
	}
	b, mode, err := s.route(ctx)
	if err != nil {
		return domain.User{}, err
	}
	user, err := b.UpdateUser(ctx, update)
	if err != nil {
		return domain.User{}, s.fail(ctx, "update_user", mode, err)
	}
	return user, nil
}

// GoOffline sets the persistent offline override.
func (s *SyncService) GoOffline(ctx context.Context) error {
	if err := s.state.SetOfflineOverride(ctx, true); err != nil {
		return s.fail(ctx, "go_offline", s.state.Mode(), fmt.Errorf("%w: %w", store.ErrStorageFailed, err))
	}
	return nil
}

// GoOnline clears the override and probes. The returned mode is Online only
// if the backend answered.
func (s *SyncService) GoOnline(ctx context.Context) (connectivity.Mode, error) {
	if err := s.state.SetOfflineOverride(ctx, false); err != nil {
		return s.state.Mode(), s.fail(ctx, "go_online", s.state.Mode(), fmt.Errorf("%w: %w", store.ErrStorageFailed, err))
	}
	return s.prober.Probe(ctx), nil
}

// ConnectionReport describes one health check.
type ConnectionReport struct {
	Connected   bool   `json:"connected"`
	BaseURL     string `json:"base_url"`
	OfflineMode bool   `json:"offline_mode"`
	Error       string `json:"error,omitempty"`
}

// TestConnection checks the backend health endpoint without changing the mode.
func (s *SyncService) TestConnection(ctx context.Context) ConnectionReport {
	report := ConnectionReport{
		BaseURL:     s.baseURL,
		OfflineMode: s.state.OfflineOverride(),
	}
	if _, err := s.health.Health(ctx); err != nil {
		report.Error = redact.Error(err)
		return report
	}
	report.Connected = true
	return report
}
