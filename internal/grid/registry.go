// Package grid holds the evaluation grid registry and the built-in grid
// set. The registry is an explicitly constructed instance injected into the
// pipeline rather than process-wide state, so tests stay hermetic and new
// contribution types can be added without touching pipeline logic.
package grid

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/pulseboard/contribeval/internal/domain"
)

// Registry stores one scoring grid per contribution type. It is populated
// at startup by whichever caller owns the grid set and is read-only during
// evaluation; Unregister and Clear exist for test teardown and are never
// called on production paths.
type Registry struct {
	mu     sync.RWMutex
	grids  map[string]domain.EvaluationGridTemplate
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		grids:  make(map[string]domain.EvaluationGridTemplate),
		logger: slog.Default().With("component", "grid-registry"),
	}
}

// Register stores the grid keyed by its type after validating it.
// A grid already registered for the same type is overwritten silently;
// callers must not rely on re-registration semantics beyond test teardown.
func (r *Registry) Register(g domain.EvaluationGridTemplate) error {
	if err := g.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	_, replaced := r.grids[g.Type]
	r.grids[g.Type] = g
	r.mu.Unlock()

	r.logger.Debug("grid registered",
		"type", g.Type,
		"criteria", len(g.Criteria),
		"scale", float64(g.Scale),
		"replaced", replaced)
	return nil
}

// Get returns the grid registered for the type, or a GridNotFoundError
// naming the queried type when none is registered.
func (r *Registry) Get(typ string) (domain.EvaluationGridTemplate, error) {
	r.mu.RLock()
	g, ok := r.grids[typ]
	r.mu.RUnlock()

	if !ok {
		return domain.EvaluationGridTemplate{}, &domain.GridNotFoundError{Type: typ}
	}
	return g, nil
}

// Has reports whether a grid is registered for the type. Never fails.
func (r *Registry) Has(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.grids[typ]
	return ok
}

// AvailableTypes returns a sorted snapshot of all registered types.
func (r *Registry) AvailableTypes() []string {
	r.mu.RLock()
	types := make([]string, 0, len(r.grids))
	for typ := range r.grids {
		types = append(types, typ)
	}
	r.mu.RUnlock()

	sort.Strings(types)
	return types
}

// Unregister removes the grid for the type. Test teardown only.
func (r *Registry) Unregister(typ string) {
	r.mu.Lock()
	delete(r.grids, typ)
	r.mu.Unlock()
}

// Clear removes all registered grids. Test teardown only.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.grids = make(map[string]domain.EvaluationGridTemplate)
	r.mu.Unlock()
}
