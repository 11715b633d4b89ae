package service

import (
	"slices"
	"sync"

	"github.com/phrazzld/amora-planner/internal/domain"
)

// simulationCache holds the last known simulation collection.
//
// Every load or mutation takes a ticket before it starts. A result is applied
// only if no newer result for the same resource has been applied and the cache
// has not been invalidated since the ticket was issued. A full load is also
// dropped when any item result newer than it has been applied, so a slow list
// never overwrites a fresher update.
type simulationCache struct {
	mu          sync.Mutex
	epoch       uint64
	seq         uint64
	loaded      bool
	sims        []domain.Simulation
	listApplied uint64
	itemApplied map[int64]uint64
	// mutatedAt is the newest applied item ticket.
	mutatedAt uint64
}

type ticket struct {
	epoch uint64
	seq   uint64
}

func newSimulationCache() *simulationCache {
	return &simulationCache{itemApplied: make(map[int64]uint64)}
}

func (c *simulationCache) issue() ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return ticket{epoch: c.epoch, seq: c.seq}
}

// invalidate drops the collection and orphans every outstanding ticket.
func (c *simulationCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.loaded = false
	c.sims = nil
	c.listApplied = 0
	c.mutatedAt = 0
	clear(c.itemApplied)
}

// snapshot returns a copy of the collection and whether one is loaded.
func (c *simulationCache) snapshot() ([]domain.Simulation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return nil, false
	}
	return slices.Clone(c.sims), true
}

// applyList replaces the collection. It reports whether the result was applied.
func (c *simulationCache) applyList(t ticket, sims []domain.Simulation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.epoch != c.epoch || t.seq < c.listApplied || t.seq < c.mutatedAt {
		return false
	}
	c.listApplied = t.seq
	c.sims = slices.Clone(sims)
	c.loaded = true
	return true
}

// applyItem runs fn against the collection for a result concerning id.
// fn is skipped, and the ticket still recorded, when nothing is loaded.
func (c *simulationCache) applyItem(t ticket, id int64, fn func([]domain.Simulation) []domain.Simulation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.epoch != c.epoch || t.seq < c.itemApplied[id] {
		return false
	}
	c.itemApplied[id] = t.seq
	c.mutatedAt = max(c.mutatedAt, t.seq)
	if c.loaded {
		c.sims = fn(c.sims)
	}
	return true
}

func upsert(sim domain.Simulation) func([]domain.Simulation) []domain.Simulation {
	return func(sims []domain.Simulation) []domain.Simulation {
		for i := range sims {
			if sims[i].ID == sim.ID {
				sims[i] = sim
				return sims
			}
		}
		return append(sims, sim)
	}
}

func replace(sim domain.Simulation) func([]domain.Simulation) []domain.Simulation {
	return func(sims []domain.Simulation) []domain.Simulation {
		for i := range sims {
			if sims[i].ID == sim.ID {
				sims[i] = sim
			}
		}
		return sims
	}
}

func remove(id int64) func([]domain.Simulation) []domain.Simulation {
	return func(sims []domain.Simulation) []domain.Simulation {
		return slices.DeleteFunc(sims, func(s domain.Simulation) bool { return s.ID == id })
	}
}
