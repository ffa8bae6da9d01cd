package units

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

var _ ports.Unit = (*RoleCareerResolverUnit)(nil)

// RoleCareerResolverUnit picks the dominant role type and career line
// independently, each with first-declared tie-breaking, and looks up the
// row keyed by (top domain, role type, career line).
type RoleCareerResolverUnit struct {
	name       string
	references ports.ReferenceStore
	roles      domain.Family
	lines      domain.Family
	tracer     trace.Tracer
}

// NewRoleCareerResolverUnit creates a resolver over references using the
// standard role type and career line families.
func NewRoleCareerResolverUnit(name string, references ports.ReferenceStore) (*RoleCareerResolverUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if references == nil {
		return nil, fmt.Errorf("%w: reference store", ErrMissingDependency)
	}
	return &RoleCareerResolverUnit{
		name:       name,
		references: references,
		roles:      domain.RoleTypeFamily(),
		lines:      domain.CareerLineFamily(),
		tracer:     otel.Tracer("role-career-resolver-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (u *RoleCareerResolverUnit) Name() string { return u.name }

// Execute reads domain.KeyCategoryScores and domain.KeyDomainBlend and
// writes domain.KeyRecommendation.
func (u *RoleCareerResolverUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := u.tracer.Start(ctx, "RoleCareerResolverUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", TypeRoleCareerResolver),
			attribute.String("unit.id", u.name),
		),
	)
	defer span.End()

	scores, ok := domain.Get(state, domain.KeyCategoryScores)
	if !ok {
		err := missing(domain.KeyCategoryScores.Name())
		span.RecordError(err)
		return state, err
	}
	ranking, ok := domain.Get(state, domain.KeyDomainBlend)
	if !ok || len(ranking) < 2 {
		err := missing(domain.KeyDomainBlend.Name())
		span.RecordError(err)
		return state, err
	}

	rec, err := u.Resolve(scores, ranking)
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	span.SetAttributes(
		attribute.String("eval.key", rec.Key.String()),
		attribute.Bool("eval.matched", rec.Matched),
	)
	return domain.With(state, domain.KeyRecommendation, rec), nil
}

// Resolve builds the recommendation from the score map and the ranked
// domains.
func (u *RoleCareerResolverUnit) Resolve(scores domain.CategoryScores, ranking []domain.DomainBlend) (domain.Recommendation, error) {
	roleScore, _ := scores.Dominant(u.roles)
	lineScore, _ := scores.Dominant(u.lines)

	role, err := domain.ParseRoleType(roleScore.Category)
	if err != nil {
		return domain.Recommendation{}, err
	}
	line, err := domain.ParseCareerLine(lineScore.Category)
	if err != nil {
		return domain.Recommendation{}, err
	}

	key := domain.RoleCareerKey(ranking[0].Domain, role, line)
	rec := domain.Recommendation{
		Variant:  domain.VariantRoleCareer,
		Ranking:  ranking,
		Top:      ranking[0].Domain,
		Second:   ranking[1].Domain,
		Role:     role,
		Line:     line,
		Key:      key,
		Fallback: u.references.Fallback(domain.VariantRoleCareer),
	}
	if row, ok := u.references.Lookup(key); ok {
		rec.Matched = true
		rec.Row = row
	}
	return rec, nil
}

// Validate verifies the unit has its reference store.
func (u *RoleCareerResolverUnit) Validate() error {
	if u.references == nil {
		return fmt.Errorf("%w: reference store", ErrMissingDependency)
	}
	return nil
}

// NewRoleCareerResolverFromConfig is the registry factory for
// role_career_resolver. The unit takes no parameters.
func NewRoleCareerResolverFromConfig(id string, params map[string]any, deps Dependencies) (ports.Unit, error) {
	var none struct{}
	if err := decodeParams(params, &none); err != nil {
		return nil, err
	}
	return NewRoleCareerResolverUnit(id, deps.References)
}
