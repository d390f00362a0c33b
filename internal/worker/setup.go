// Package worker provides initialization and registration helpers for
// Temporal workers running the contribution evaluation pipeline. Keeping
// setup here leaves the stage packages free of startup concerns.
package worker

import (
	"fmt"

	"github.com/pulseboard/contribeval/internal/agent"
	"github.com/pulseboard/contribeval/internal/agent/transport"
	"github.com/pulseboard/contribeval/internal/grid"
)

// InitializeCaller builds the resilient agent caller around the concrete
// runner. A nil config selects the defaults: three attempts with a fixed
// one-second delay and a thirty-second per-attempt timeout, no cache, no
// rate limit.
func InitializeCaller(runner transport.Runner, cfg *agent.Config) (*agent.Caller, error) {
	if cfg == nil {
		cfg = agent.DefaultConfig()
	}

	caller, err := agent.NewCaller(runner, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize agent caller: %w", err)
	}
	return caller, nil
}

// InitializeRegistry creates the grid registry with the built-in grid set
// and layers any YAML grid files on top. Files later in the list override
// earlier registrations for the same type.
func InitializeRegistry(gridFiles ...string) (*grid.Registry, error) {
	registry := grid.NewRegistry()
	if err := grid.RegisterBuiltins(registry); err != nil {
		return nil, fmt.Errorf("failed to register built-in grids: %w", err)
	}

	for _, path := range gridFiles {
		if err := grid.RegisterFromFile(registry, path); err != nil {
			return nil, fmt.Errorf("failed to load grid file %s: %w", path, err)
		}
	}
	return registry, nil
}
