package application

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ahrav/go-compass/infrastructure/units"
	"github.com/ahrav/go-compass/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.UnitRegistry = (*DefaultUnitRegistry)(nil)

// DefaultUnitRegistry implements ports.UnitRegistry, creating pipeline
// units by type name. Factories receive the catalog and reference store
// the registry was built with.
type DefaultUnitRegistry struct {
	// factories maps unit type strings to their factory functions.
	factories map[string]ports.UnitFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
	// deps are injected into every built-in factory.
	deps units.Dependencies
}

// NewDefaultUnitRegistry creates a registry with the built-in unit types
// registered: answer_scorer, academic_blend, major_minor_resolver and
// role_career_resolver.
func NewDefaultUnitRegistry(deps units.Dependencies) *DefaultUnitRegistry {
	registry := &DefaultUnitRegistry{
		factories: make(map[string]ports.UnitFactory),
		deps:      deps,
	}

	registry.registerBuiltinFactories()

	return registry
}

// registerBuiltinFactories binds each built-in unit constructor to the
// registry's dependencies.
func (r *DefaultUnitRegistry) registerBuiltinFactories() {
	deps := r.deps

	bind := func(create func(string, map[string]any, units.Dependencies) (ports.Unit, error)) ports.UnitFactory {
		return func(id string, config map[string]any) (ports.Unit, error) {
			return create(id, config, deps)
		}
	}

	r.factories[units.TypeAnswerScorer] = bind(units.NewAnswerScorerFromConfig)
	r.factories[units.TypeAcademicBlend] = bind(units.NewAcademicBlendFromConfig)
	r.factories[units.TypeMajorMinorResolver] = bind(units.NewMajorMinorResolverFromConfig)
	r.factories[units.TypeRoleCareerResolver] = bind(units.NewRoleCareerResolverFromConfig)
}

// CreateUnit creates a new unit instance based on the provided type,
// identifier, and configuration.
func (r *DefaultUnitRegistry) CreateUnit(
	unitType string,
	id string,
	config map[string]any,
) (ports.Unit, error) {
	r.mu.RLock()
	factory, exists := r.factories[unitType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported unit type: %s", unitType)
	}

	if id == "" {
		return nil, fmt.Errorf("unit ID cannot be empty")
	}

	if config == nil {
		config = make(map[string]any)
	}

	unit, err := factory(id, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit %s of type %s: %w", id, unitType, err)
	}

	return unit, nil
}

// RegisterUnitFactory registers a new factory function for a specific unit type.
// This allows extending the registry with custom unit types at runtime.
func (r *DefaultUnitRegistry) RegisterUnitFactory(
	unitType string,
	factory ports.UnitFactory,
) error {
	if unitType == "" {
		return fmt.Errorf("unit type cannot be empty")
	}

	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[unitType] = factory
	return nil
}

// GetSupportedTypes returns every registered unit type in sorted order.
func (r *DefaultUnitRegistry) GetSupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for unitType := range r.factories {
		types = append(types, unitType)
	}
	slices.Sort(types)

	return types
}
