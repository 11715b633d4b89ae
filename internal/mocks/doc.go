// Package mocks provides shared function-field test doubles.
//
// Each mock implements one interface. Set the Fn field of a method to control
// its behaviour; an unset field returns the zero value and a nil error. Calls
// are counted per method so tests can assert on routing:
//
//	remote := &mocks.MockBackend{
//	    CreateSimulationFn: func(ctx context.Context, in domain.SimulationInput) (domain.Simulation, error) {
//	        return domain.Simulation{ID: 1}, nil
//	    },
//	}
//	...
//	assert.Equal(t, 1, remote.Calls("CreateSimulation"))
package mocks
