// Package localstore is the offline strategy: it implements store.Backend over
// a kv.Store so simulations can be created, listed and deleted with no backend.
//
// The whole collection lives under one key as a JSON array and every mutation
// rewrites it. Account operations return a fixed mock identity.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/phrazzld/amora-planner/internal/credential"
	"github.com/phrazzld/amora-planner/internal/domain"
	"github.com/phrazzld/amora-planner/internal/domain/finance"
	"github.com/phrazzld/amora-planner/internal/kv"
	"github.com/phrazzld/amora-planner/internal/store"
)

// SimulationsKey holds the offline collection.
const SimulationsKey = "offline_simulations"

// Mock identity served while offline.
const (
	MockUserID    int64 = 1
	DemoEmail           = "demo@amora.com"
	DemoName            = "Usuário Demo"
	OfflinePrefix       = "offline-"
)

// Store implements store.Backend on top of a kv.Store.
type Store struct {
	kv     kv.Store
	creds  credential.Provider
	node   *snowflake.Node
	now    func() time.Time
	logger *slog.Logger

	// mu serialises read-modify-write of the collection.
	mu sync.Mutex
}

var _ store.Backend = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns a Store persisting into kvs. Tokens issued by Login are stored
// with creds.
func New(kvs kv.Store, creds credential.Provider, opts ...Option) (*Store, error) {
	if kvs == nil {
		return nil, errors.New("kv store cannot be nil")
	}
	if creds == nil {
		return nil, errors.New("credential provider cannot be nil")
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}

	s := &Store{
		kv:     kvs,
		creds:  creds,
		node:   node,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "local_store")
	return s, nil
}

// Register implements store.Backend with the mock identity.
func (s *Store) Register(_ context.Context, reg domain.Registration) (domain.User, error) {
	if err := reg.Validate(); err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:        MockUserID,
		Email:     reg.Email,
		Name:      reg.Name,
		CreatedAt: s.timestamp(),
	}, nil
}

// Login implements store.Backend. Any well-formed credentials are accepted; the
// display name is the local part of the email.
func (s *Store) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	if err := creds.Validate(); err != nil {
		return domain.Session{}, err
	}

	token := OfflinePrefix + uuid.NewString()
	if err := s.creds.SetToken(ctx, token); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %w", store.ErrStorageFailed, err)
	}

	name := creds.Email
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return domain.Session{
		Token: token,
		User: domain.User{
			ID:        MockUserID,
			Email:     creds.Email,
			Name:      &name,
			CreatedAt: s.timestamp(),
		},
	}, nil
}

// CurrentUser implements store.Backend.
func (s *Store) CurrentUser(context.Context) (domain.User, error) {
	name := DemoName
	return domain.User{
		ID:        MockUserID,
		Email:     DemoEmail,
		Name:      &name,
		CreatedAt: s.timestamp(),
	}, nil
}

// UpdateUser is not available offline.
func (s *Store) UpdateUser(context.Context, domain.UserUpdate) (domain.User, error) {
	return domain.User{}, fmt.Errorf("update user: %w", store.ErrOfflineBlocked)
}

// CreateSimulation implements store.Backend.
func (s *Store) CreateSimulation(ctx context.Context, in domain.SimulationInput) (domain.Simulation, error) {
	if err := in.Validate(); err != nil {
		return domain.Simulation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.node.Generate().Int64()
	sim := domain.Simulation{
		ID:             id,
		UserID:         MockUserID,
		Name:           domain.SimulationName(id, in.Address),
		PropertyValue:  in.PropertyValue,
		DownPaymentPct: in.DownPaymentPct,
		TermYears:      in.TermYears,
		Address:        in.Address,
		PropertyType:   in.PropertyType,
		Notes:          in.Notes,
		Derived:        finance.DeriveInput(in),
		CreatedAt:      s.timestamp(),
	}

	err := s.update(ctx, func(sims []domain.Simulation) ([]domain.Simulation, error) {
		return append(sims, sim), nil
	})
	if err != nil {
		return domain.Simulation{}, fmt.Errorf("create simulation: %w", err)
	}

	s.logger.DebugContext(ctx, "offline simulation created", slog.Int64("simulation_id", id))
	return sim, nil
}

// ListSimulations implements store.Backend in insertion order.
func (s *Store) ListSimulations(ctx context.Context, page store.Page) (domain.SimulationPage, error) {
	page = page.Normalize()

	s.mu.Lock()
	sims, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return domain.SimulationPage{}, fmt.Errorf("list simulations: %w", err)
	}

	total := len(sims)
	start := min(page.Skip, total)
	end := min(start+page.Limit, total)
	return domain.SimulationPage{
		Simulations: append([]domain.Simulation{}, sims[start:end]...),
		Total:       total,
	}, nil
}

// GetSimulation is not available offline.
func (s *Store) GetSimulation(context.Context, int64) (domain.Simulation, error) {
	return domain.Simulation{}, fmt.Errorf("get simulation: %w", store.ErrOfflineBlocked)
}

// UpdateSimulation is not available offline.
func (s *Store) UpdateSimulation(context.Context, int64, domain.SimulationPatch) (domain.Simulation, error) {
	return domain.Simulation{}, fmt.Errorf("update simulation: %w", store.ErrOfflineBlocked)
}

// DeleteSimulation implements store.Backend. Deleting an unknown id succeeds.
func (s *Store) DeleteSimulation(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.update(ctx, func(sims []domain.Simulation) ([]domain.Simulation, error) {
		kept := sims[:0]
		for _, sim := range sims {
			if sim.ID != id {
				kept = append(kept, sim)
			}
		}
		return kept, nil
	})
	if err != nil {
		return fmt.Errorf("delete simulation %d: %w", id, err)
	}
	return nil
}

// Statistics implements store.Backend over the offline collection.
func (s *Store) Statistics(ctx context.Context) (domain.Statistics, error) {
	s.mu.Lock()
	sims, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("statistics: %w", err)
	}
	return finance.Statistics(sims), nil
}

// Calculate implements store.Backend without touching storage.
func (s *Store) Calculate(_ context.Context, in domain.SimulationInput) (domain.Calculation, error) {
	if err := in.Validate(); err != nil {
		return domain.Calculation{}, err
	}
	return finance.Calculate(in), nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// load reads the collection. A missing key is an empty collection.
func (s *Store) load(ctx context.Context) ([]domain.Simulation, error) {
	data, err := s.kv.Get(ctx, SimulationsKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrStorageFailed, err)
	}
	return decode(data)
}

// update applies fn to the stored collection through kv.Update. Callers hold mu.
func (s *Store) update(ctx context.Context, fn func([]domain.Simulation) ([]domain.Simulation, error)) error {
	err := kv.Update(ctx, s.kv, SimulationsKey, func(current []byte, found bool) ([]byte, error) {
		var sims []domain.Simulation
		if found {
			var err error
			if sims, err = decode(current); err != nil {
				return nil, err
			}
		}
		next, err := fn(sims)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = []domain.Simulation{}
		}
		data, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("%w: encode collection: %w", store.ErrStorageFailed, err)
		}
		return data, nil
	})
	if err != nil && !errors.Is(err, store.ErrStorageFailed) {
		return fmt.Errorf("%w: %w", store.ErrStorageFailed, err)
	}
	return err
}

func decode(data []byte) ([]domain.Simulation, error) {
	var sims []domain.Simulation
	if len(data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(data, &sims); err != nil {
		return nil, fmt.Errorf("%w: corrupt %s: %w", store.ErrStorageFailed, SimulationsKey, err)
	}
	return sims, nil
}
