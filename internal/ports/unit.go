// Package ports defines the interfaces that form the contract between the
// domain/application layers and the infrastructure layer.
package ports

import (
	"context"

	"github.com/ahrav/go-compass/internal/domain"
)

// Unit is one step of the evaluation pipeline. Each Unit reads its inputs
// from the State and returns a new State carrying its outputs. Units are
// stateless and safe for concurrent use.
type Unit interface {
	// Name returns a unique identifier for this unit.
	Name() string

	// Execute performs the unit's transformation on the provided State and
	// returns the new State. The input State is never modified.
	//
	// Example:
	//
	//	next, err := unit.Execute(ctx, state)
	//	if err != nil {
	//	    return state, fmt.Errorf("unit %s failed: %w", unit.Name(), err)
	//	}
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks that the unit is configured and ready to run.
	Validate() error
}

// UnitFactory builds a Unit from a raw parameter map, usually decoded from
// YAML or supplied by configuration.
type UnitFactory func(id string, params map[string]any) (Unit, error)

// UnitRegistry creates units by type name.
type UnitRegistry interface {
	// CreateUnit builds a unit of unitType with the given id and params.
	CreateUnit(unitType, id string, params map[string]any) (Unit, error)

	// RegisterUnitFactory adds or replaces the factory for unitType.
	RegisterUnitFactory(unitType string, factory UnitFactory) error

	// GetSupportedTypes lists the registered unit types in sorted order.
	GetSupportedTypes() []string
}

// Executable is anything a Pipeline can run: wrapped units or nested
// pipelines.
type Executable interface {
	// Execute processes the State and returns the updated State. The input
	// State is immutable and MUST NOT be modified.
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// ID returns the identifier of the executable within its pipeline.
	ID() string
}

// Pipeline runs a fixed sequence of stages, feeding each stage's output
// State to the next.
type Pipeline interface {
	Executable

	// Stages returns the stage ids in run order.
	Stages() []string
}
