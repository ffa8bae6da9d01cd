// Package units provides the deterministic pipeline units of the quiz
// engine: the answer scorer, the academic blend and the two reference
// resolvers. Every unit implements ports.Unit.
package units

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

// Unit type names understood by the unit registry.
const (
	TypeAnswerScorer       = "answer_scorer"
	TypeAcademicBlend      = "academic_blend"
	TypeMajorMinorResolver = "major_minor_resolver"
	TypeRoleCareerResolver = "role_career_resolver"
)

// TieBreaker represents the strategy for handling equal blended scores at
// the top of the domain ranking.
type TieBreaker string

// Supported tie-breaking strategies.
const (
	// TieFirst keeps declaration order, so the first declared domain wins.
	TieFirst TieBreaker = "first"

	// TieError fails when the two leading domains are tied. Useful when a
	// caller wants to ask a follow-up question instead of guessing.
	TieError TieBreaker = "error"
)

// Common errors returned by units.
var (
	// ErrTie is returned when the leading domains tie and TieError is set.
	ErrTie = errors.New("leading domains tied on blended score")

	// ErrEmptyUnitName is returned when a unit is created without a name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrMissingInput is returned when a required State key is absent.
	ErrMissingInput = errors.New("required input missing from state")

	// ErrMissingDependency is returned when a factory lacks a catalog or
	// reference store.
	ErrMissingDependency = errors.New("unit dependency missing")
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Dependencies carries the read-only collaborators that factories inject
// into units.
type Dependencies struct {
	Catalog    *domain.Catalog
	References ports.ReferenceStore
}

// decodeParams overlays a raw parameter map onto cfg, which should already
// hold the defaults. Unknown keys are rejected.
func decodeParams(params map[string]any, cfg any) error {
	if len(params) == 0 {
		return nil
	}
	data, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func missing(key string) error {
	return fmt.Errorf("%w: %s", ErrMissingInput, key)
}
