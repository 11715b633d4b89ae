package service

import (
	"context"
	"log/slog"

	"github.com/phrazzld/amora-planner/internal/domain"
	"github.com/phrazzld/amora-planner/internal/domain/eligibility"
	"github.com/phrazzld/amora-planner/internal/store"
)

// CreateSimulation stores a new simulation and adds it to a loaded cache.
func (s *SyncService) CreateSimulation(ctx context.Context, in domain.SimulationInput) (domain.Simulation, error) {
	if err := in.Validate(); err != nil {
		return domain.Simulation{}, err
	}
	b, mode, err := s.route(ctx)
	if err != nil {
		return domain.Simulation{}, err
	}

	t := s.cache.issue()
	sim, err := b.CreateSimulation(ctx, in)
	if err != nil {
		return domain.Simulation{}, s.fail(ctx, "create_simulation", mode, err)
	}
	if ctx.Err() == nil {
		s.cache.applyItem(t, sim.ID, upsert(sim))
	}

	s.log(ctx).DebugContext(ctx, "simulation created",
		slog.String("mode", mode.String()),
		slog.Int64("simulation_id", sim.ID))
	return sim, nil
}

// ListSimulations returns one page. A page that covers the whole collection
// also refreshes the cache.
func (s *SyncService) ListSimulations(ctx context.Context, page store.Page) (domain.SimulationPage, error) {
	page = page.Normalize()
	b, mode, err := s.route(ctx)
	if err != nil {
		return domain.SimulationPage{}, err
	}

	t := s.cache.issue()
	result, err := b.ListSimulations(ctx, page)
	if err != nil {
		return domain.SimulationPage{}, s.fail(ctx, "list_simulations", mode, err)
	}
	if ctx.Err() == nil && page.Skip == 0 && len(result.Simulations) >= result.Total {
		s.cache.applyList(t, result.Simulations)
	}
	return result, nil
}

// Simulations returns the whole collection, from the cache when loaded.
func (s *SyncService) Simulations(ctx context.Context) ([]domain.Simulation, error) {
	if sims, ok := s.cache.snapshot(); ok {
		return sims, nil
	}
	return s.Refresh(ctx)
}

// Refresh loads every page of the collection and replaces the cache.
func (s *SyncService) Refresh(ctx context.Context) ([]domain.Simulation, error) {
	b, mode, err := s.route(ctx)
	if err != nil {
		return nil, err
	}

	t := s.cache.issue()
	var all []domain.Simulation
	for {
		page, err := b.ListSimulations(ctx, store.Page{Skip: len(all), Limit: store.DefaultLimit})
		if err != nil {
			return nil, s.fail(ctx, "refresh_simulations", mode, err)
		}
		all = append(all, page.Simulations...)
		if len(page.Simulations) == 0 || len(all) >= page.Total {
			break
		}
	}
	if ctx.Err() == nil {
		s.cache.applyList(t, all)
	}
	return all, nil
}

// GetSimulation returns one simulation and refreshes its cached copy.
func (s *SyncService) GetSimulation(ctx context.Context, id int64) (domain.Simulation, error) {
	if err := domain.ValidateID(id); err != nil {
		return domain.Simulation{}, err
	}
	b, mode, err := s.route(ctx)
	if err != nil {
		return domain.Simulation{}, err
	}

	t := s.cache.issue()
	sim, err := b.GetSimulation(ctx, id)
	if err != nil {
		return domain.Simulation{}, s.fail(ctx, "get_simulation", mode, err)
	}
	if ctx.Err() == nil {
		s.cache.applyItem(t, id, replace(sim))
	}
	return sim, nil
}

// UpdateSimulation applies patch. When updates to the same id overlap, the
// cache keeps the result of the one issued last.
func (s *SyncService) UpdateSimulation(ctx context.Context, id int64, patch domain.SimulationPatch) (domain.Simulation, error) {
	if err := domain.ValidateID(id); err != nil {
		return domain.Simulation{}, err
	}
	if err := patch.Validate(); err != nil {
		return domain.Simulation{}, err
	}
	b, mode, err := s.route(ctx)
	if err != nil {
		return domain.Simulation{}, err
	}

	t := s.cache.issue()
	sim, err := b.UpdateSimulation(ctx, id, patch)
	if err != nil {
		return domain.Simulation{}, s.fail(ctx, "update_simulation", mode, err)
	}
	if ctx.Err() == nil {
		if !s.cache.applyItem(t, id, replace(sim)) {
			s.log(ctx).DebugContext(ctx, "stale update result not cached", slog.Int64("simulation_id", id))
		}
	}
	return sim, nil
}

// DeleteSimulation removes a simulation.
func (s *SyncService) DeleteSimulation(ctx context.Context, id int64) error {
	if err := domain.ValidateID(id); err != nil {
		return err
	}
	b, mode, err := s.route(ctx)
	if err != nil {
		return err
	}

	t := s.cache.issue()
	if err := b.DeleteSimulation(ctx, id); err != nil {
		return s.fail(ctx, "delete_simulation", mode, err)
	}
	if ctx.Err() == nil {
		s.cache.applyItem(t, id, remove(id))
	}
	return nil
}

// Statistics returns aggregates over the collection.
func (s *SyncService) Statistics(ctx context.Context) (domain.Statistics, error) {
	b, mode, err := s.route(ctx)
	if err != nil {
		return domain.Statistics{}, err
	}
	stats, err := b.Statistics(ctx)
	if err != nil {
		return domain.Statistics{}, s.fail(ctx, "statistics", mode, err)
	}
	return stats, nil
}

// Calculate derives the figures for in without storing anything.
func (s *SyncService) Calculate(ctx context.Context, in domain.SimulationInput) (domain.Calculation, error) {
	if err := in.Validate(); err != nil {
		return domain.Calculation{}, err
	}
	b, mode, err := s.route(ctx)
	if err != nil {
		return domain.Calculation{}, err
	}
	calc, err := b.Calculate(ctx, in)
	if err != nil {
		return domain.Calculation{}, s.fail(ctx, "calculate", mode, err)
	}
	return calc, nil
}

// Eligibility scores the collection, loading it first when the cache is cold.
func (s *SyncService) Eligibility(ctx context.Context) (eligibility.Score, error) {
	sims, err := s.Simulations(ctx)
	if err != nil {
		return eligibility.Score{}, err
	}
	return eligibility.Calculate(sims, s.params), nil
}
