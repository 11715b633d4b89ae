package store

import (
	"context"

	"github.com/phrazzld/amora-planner/internal/domain"
)

// DefaultLimit is the page size used when a listing does not specify one.
const DefaultLimit = 100

// Page selects a window of a listing: Skip entries are dropped, then at most
// Limit are returned.
type Page struct {
	Skip  int
	Limit int
}

// Normalize applies the listing defaults: a negative Skip becomes 0 and a
// non-positive Limit becomes DefaultLimit.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// Backend is the capability set shared by the remote and local strategies.
// Inputs, outputs and the error taxonomy are identical for both, so callers
// never need to know which one served a request.
type Backend interface {
	// Register creates an account.
	Register(ctx context.Context, reg domain.Registration) (domain.User, error)

	// Login exchanges credentials for a session and stores its token with the
	// credential provider. Failures of the exchange itself wrap ErrAuthenticationFailed.
	Login(ctx context.Context, creds domain.Credentials) (domain.Session, error)

	// CurrentUser returns the account the held credential belongs to.
	CurrentUser(ctx context.Context) (domain.User, error)

	// UpdateUser changes the display name of the current account.
	UpdateUser(ctx context.Context, update domain.UserUpdate) (domain.User, error)

	// CreateSimulation stores a new simulation with its derived figures.
	CreateSimulation(ctx context.Context, in domain.SimulationInput) (domain.Simulation, error)

	// ListSimulations returns one page; Total counts the whole collection.
	ListSimulations(ctx context.Context, page Page) (domain.SimulationPage, error)

	// GetSimulation returns one simulation.
	GetSimulation(ctx context.Context, id int64) (domain.Simulation, error)

	// UpdateSimulation merges patch into the stored simulation and recomputes
	// its derived figures when an input changed.
	UpdateSimulation(ctx context.Context, id int64, patch domain.SimulationPatch) (domain.Simulation, error)

	// DeleteSimulation removes a simulation.
	DeleteSimulation(ctx context.Context, id int64) error

	// Statistics aggregates the current user's simulations.
	Statistics(ctx context.Context) (domain.Statistics, error)

	// Calculate previews the derived figures without storing anything.
	Calculate(ctx context.Context, in domain.SimulationInput) (domain.Calculation, error)
}
