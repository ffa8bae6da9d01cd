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

var _ ports.Unit = (*MajorMinorResolverUnit)(nil)

// MajorMinorResolverUnit looks up the (major, minor) row keyed by the two
// leading domains, in rank order. A missing row yields an unmatched
// recommendation carrying the fallback guidance.
type MajorMinorResolverUnit struct {
	name       string
	references ports.ReferenceStore
	tracer     trace.Tracer
}

// NewMajorMinorResolverUnit creates a resolver over references.
func NewMajorMinorResolverUnit(name string, references ports.ReferenceStore) (*MajorMinorResolverUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if references == nil {
		return nil, fmt.Errorf("%w: reference store", ErrMissingDependency)
	}
	return &MajorMinorResolverUnit{
		name:       name,
		references: references,
		tracer:     otel.Tracer("major-minor-resolver-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (u *MajorMinorResolverUnit) Name() string { return u.name }

// Execute reads domain.KeyDomainBlend and writes domain.KeyRecommendation.
func (u *MajorMinorResolverUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := u.tracer.Start(ctx, "MajorMinorResolverUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", TypeMajorMinorResolver),
			attribute.String("unit.id", u.name),
		),
	)
	defer span.End()

	ranking, ok := domain.Get(state, domain.KeyDomainBlend)
	if !ok || len(ranking) < 2 {
		err := missing(domain.KeyDomainBlend.Name())
		span.RecordError(err)
		return state, err
	}

	rec := ResolveMajorMinor(ranking, u.references)

	span.SetAttributes(
		attribute.String("eval.key", rec.Key.String()),
		attribute.Bool("eval.matched", rec.Matched),
	)
	return domain.With(state, domain.KeyRecommendation, rec), nil
}

// ResolveMajorMinor builds the recommendation for a ranked domain list of
// at least two entries.
func ResolveMajorMinor(ranking []domain.DomainBlend, references ports.ReferenceStore) domain.Recommendation {
	key := domain.MajorMinorKey(ranking[0].Domain, ranking[1].Domain)
	rec := domain.Recommendation{
		Variant:  domain.VariantMajorMinor,
		Ranking:  ranking,
		Top:      ranking[0].Domain,
		Second:   ranking[1].Domain,
		Key:      key,
		Fallback: references.Fallback(domain.VariantMajorMinor),
	}
	if row, ok := references.Lookup(key); ok {
		rec.Matched = true
		rec.Row = row
	}
	return rec
}

// Validate verifies the unit has its reference store.
func (u *MajorMinorResolverUnit) Validate() error {
	if u.references == nil {
		return fmt.Errorf("%w: reference store", ErrMissingDependency)
	}
	return nil
}

// NewMajorMinorResolverFromConfig is the registry factory for
// major_minor_resolver. The unit takes no parameters.
func NewMajorMinorResolverFromConfig(id string, params map[string]any, deps Dependencies) (ports.Unit, error) {
	var none struct{}
	if err := decodeParams(params, &none); err != nil {
		return nil, err
	}
	return NewMajorMinorResolverUnit(id, deps.References)
}
