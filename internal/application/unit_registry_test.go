package application

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-compass/infrastructure/units"
	"github.com/ahrav/go-compass/internal/ports"
	"github.com/ahrav/go-compass/internal/testutils"
)

func newTestRegistry() *DefaultUnitRegistry {
	return NewDefaultUnitRegistry(units.Dependencies{
		Catalog:    testutils.DomainCatalog(),
		References: testutils.NewMockReferenceStore(),
	})
}

func TestNewDefaultUnitRegistry(t *testing.T) {
	registry := newTestRegistry()

	assert.Equal(t, []string{
		units.TypeAcademicBlend,
		units.TypeAnswerScorer,
		units.TypeMajorMinorResolver,
		units.TypeRoleCareerResolver,
	}, registry.GetSupportedTypes())
}

func TestCreateUnit_Success(t *testing.T) {
	registry := newTestRegistry()

	tests := []struct {
		unitType string
		params   map[string]any
	}{
		{units.TypeAnswerScorer, map[string]any{"mode": "tags"}},
		{units.TypeAcademicBlend, map[string]any{"psychometric_weight": 1.0, "academic_weight": 0.05}},
		{units.TypeAcademicBlend, nil},
		{units.TypeMajorMinorResolver, nil},
		{units.TypeRoleCareerResolver, map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.unitType, func(t *testing.T) {
			unit, err := registry.CreateUnit(tt.unitType, "my-"+tt.unitType, tt.params)
			require.NoError(t, err)
			assert.Equal(t, "my-"+tt.unitType, unit.Name())
			assert.NoError(t, unit.Validate())
		})
	}
}

func TestCreateUnit_Errors(t *testing.T) {
	tests := []struct {
		name     string
		registry *DefaultUnitRegistry
		unitType string
		id       string
		params   map[string]any
		errMsg   string
	}{
		{
			name:     "unknown type",
			registry: newTestRegistry(),
			unitType: "llm_judge",
			id:       "x",
			errMsg:   "unsupported unit type: llm_judge",
		},
		{
			name:     "empty id",
			registry: newTestRegistry(),
			unitType: units.TypeAnswerScorer,
			errMsg:   "unit ID cannot be empty",
		},
		{
			name:     "invalid params",
			registry: newTestRegistry(),
			unitType: units.TypeAcademicBlend,
			id:       "blend",
			params:   map[string]any{"psychometric_weight": 0.01, "academic_weight": 0.05},
			errMsg:   "failed to create unit blend of type academic_blend",
		},
		{
			name:     "unknown param",
			registry: newTestRegistry(),
			unitType: units.TypeMajorMinorResolver,
			id:       "resolver",
			params:   map[string]any{"threshold": 3},
			errMsg:   "threshold",
		},
		{
			name:     "missing reference store",
			registry: NewDefaultUnitRegistry(units.Dependencies{Catalog: testutils.DomainCatalog()}),
			unitType: units.TypeRoleCareerResolver,
			id:       "resolver",
			errMsg:   "unit dependency missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.registry.CreateUnit(tt.unitType, tt.id, tt.params)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRegisterUnitFactory(t *testing.T) {
	registry := newTestRegistry()

	assert.Error(t, registry.RegisterUnitFactory("", func(string, map[string]any) (ports.Unit, error) { return nil, nil }))
	assert.Error(t, registry.RegisterUnitFactory("custom", nil))

	err := registry.RegisterUnitFactory("custom", func(id string, _ map[string]any) (ports.Unit, error) {
		return stubUnit{name: id}, nil
	})
	require.NoError(t, err)

	unit, err := registry.CreateUnit("custom", "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, "c1", unit.Name())
	assert.Contains(t, registry.GetSupportedTypes(), "custom")
}

func TestThreadSafety_RegisterAndCreate(t *testing.T) {
	registry := newTestRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = registry.RegisterUnitFactory(fmt.Sprintf("custom-%d", i), func(id string, _ map[string]any) (ports.Unit, error) {
				return stubUnit{name: id}, nil
			})
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := registry.CreateUnit(units.TypeAnswerScorer, fmt.Sprintf("scorer-%d", i), nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, registry.GetSupportedTypes(), 24)
}
