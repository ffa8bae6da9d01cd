package units

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

var _ ports.Unit = (*AcademicBlendUnit)(nil)

// Default blend weights. Psychometric signal dominates; academic marks
// mostly break ties.
const (
	DefaultPsychometricWeight = 2.0
	DefaultAcademicWeight     = 1.0 / 20.0
)

// AcademicBlendUnit combines psychometric domain totals with academic
// subject averages and ranks the domains.
//
// Each subject is classified into at most one domain by keyword, its term
// scores are averaged, and the averages are summed per domain. The blended
// score is psychometric*W_p + academic*W_a. Ranking is descending; ties
// keep the catalog's domain order (see WithCatalog), or declaration order
// when no catalog is attached.
type AcademicBlendUnit struct {
	name       string
	config     AcademicBlendConfig
	classifier *SubjectClassifier
	// categories maps each domain to the catalog category holding its
	// psychometric total.
	categories map[domain.Domain]string
	// order is the tie-break order of the ranking.
	order  []domain.Domain
	tracer trace.Tracer
}

// AcademicBlendConfig defines the blend weights and tie policy.
type AcademicBlendConfig struct {
	// PsychometricWeight is W_p.
	PsychometricWeight float64 `yaml:"psychometric_weight" json:"psychometric_weight" validate:"gt=0"`

	// AcademicWeight is W_a and must stay below W_p.
	AcademicWeight float64 `yaml:"academic_weight" json:"academic_weight" validate:"gte=0,ltfield=PsychometricWeight"`

	// TieBreaker is "first" or "error".
	TieBreaker TieBreaker `yaml:"tie_breaker" json:"tie_breaker" validate:"required,oneof=first error"`

	// DomainCategories overrides which category feeds a domain, keyed by
	// domain name. It takes precedence over the catalog's own mapping;
	// domains listed in neither read the category of the same name.
	DomainCategories map[string]string `yaml:"domain_categories,omitempty" json:"domain_categories,omitempty"`
}

// DefaultAcademicBlendConfig returns W_p=2, W_a=1/20 and first-declared
// tie-breaking.
func DefaultAcademicBlendConfig() AcademicBlendConfig {
	return AcademicBlendConfig{
		PsychometricWeight: DefaultPsychometricWeight,
		AcademicWeight:     DefaultAcademicWeight,
		TieBreaker:         TieFirst,
	}
}

// NewAcademicBlendUnit creates a blend unit with the default subject rules.
func NewAcademicBlendUnit(name string, config AcademicBlendConfig) (*AcademicBlendUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	categories, err := domainCategories(nil, config.DomainCategories)
	if err != nil {
		return nil, err
	}

	return &AcademicBlendUnit{
		name:       name,
		config:     config,
		classifier: NewSubjectClassifier(domain.DefaultSubjectRules()),
		categories: categories,
		order:      domain.Domains(),
		tracer:     otel.Tracer("academic-blend-unit"),
	}, nil
}

// WithCatalog returns a copy of the unit that reads domain totals through
// the catalog's domain categories and breaks ties in the order of the
// catalog's domain family. Configured overrides still win.
func (u *AcademicBlendUnit) WithCatalog(catalog *domain.Catalog) (*AcademicBlendUnit, error) {
	if catalog == nil {
		return u, nil
	}
	categories, err := domainCategories(catalog, u.config.DomainCategories)
	if err != nil {
		return nil, err
	}
	cp := *u
	cp.categories = categories
	cp.order = catalog.DomainOrder(func(d domain.Domain) string { return categories[d] })
	return &cp, nil
}

// domainCategories resolves the category of every domain: the domain's
// name, replaced by the catalog mapping, replaced by overrides.
func domainCategories(catalog *domain.Catalog, overrides map[string]string) (map[domain.Domain]string, error) {
	out := make(map[domain.Domain]string, len(domain.Domains()))
	for _, d := range domain.Domains() {
		out[d] = d.String()
		if catalog != nil {
			out[d] = catalog.DomainCategory(d)
		}
	}
	for name, category := range overrides {
		d, err := domain.ParseDomain(name)
		if err != nil {
			return nil, fmt.Errorf("domain_categories: %w", err)
		}
		if strings.TrimSpace(category) == "" {
			return nil, fmt.Errorf("domain_categories: %w: category for %s", domain.ErrEmptyValue, d)
		}
		out[d] = category
	}
	return out, nil
}

// Name returns the unique identifier for this unit instance.
func (u *AcademicBlendUnit) Name() string { return u.name }

// Execute reads domain.KeyCategoryScores and, when present,
// domain.KeyAcademicRecord, and writes the ranked domain.KeyDomainBlend.
func (u *AcademicBlendUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := u.tracer.Start(ctx, "AcademicBlendUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", TypeAcademicBlend),
			attribute.String("unit.id", u.name),
			attribute.Float64("config.psychometric_weight", u.config.PsychometricWeight),
			attribute.Float64("config.academic_weight", u.config.AcademicWeight),
		),
	)
	defer span.End()

	scores, ok := domain.Get(state, domain.KeyCategoryScores)
	if !ok {
		err := missing(domain.KeyCategoryScores.Name())
		span.RecordError(err)
		return state, err
	}
	record, _ := domain.Get(state, domain.KeyAcademicRecord)

	ranking := u.Blend(scores, record)
	if u.config.TieBreaker == TieError && len(ranking) > 1 && ranking[0].Blended == ranking[1].Blended {
		err := fmt.Errorf("%w: %s and %s at %.2f", ErrTie, ranking[0].Domain, ranking[1].Domain, ranking[0].Blended)
		span.RecordError(err)
		return state, err
	}

	span.SetAttributes(
		attribute.String("eval.top_domain", ranking[0].Domain.String()),
		attribute.Float64("eval.top_score", ranking[0].Blended),
		attribute.Int("eval.subjects", record.Len()),
	)

	return domain.With(state, domain.KeyDomainBlend, ranking), nil
}

// Blend computes and ranks the blended score of every domain.
func (u *AcademicBlendUnit) Blend(scores domain.CategoryScores, record domain.AcademicRecord) []domain.DomainBlend {
	buckets := u.classifier.Buckets(record)

	ranking := make([]domain.DomainBlend, 0, len(u.order))
	for _, d := range u.order {
		psych := scores.Get(u.categories[d])
		academic := buckets[d]
		ranking = append(ranking, domain.DomainBlend{
			Domain:       d,
			Psychometric: psych,
			Academic:     academic,
			Blended:      float64(psych)*u.config.PsychometricWeight + academic*u.config.AcademicWeight,
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].Blended > ranking[j].Blended })
	return ranking
}

// Validate verifies the unit is properly configured.
func (u *AcademicBlendUnit) Validate() error {
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if u.classifier == nil {
		return fmt.Errorf("%w: subject classifier", ErrMissingDependency)
	}
	return nil
}

// NewAcademicBlendFromConfig is the registry factory for academic_blend.
// When deps carries a catalog the unit follows its domain order and
// categories.
func NewAcademicBlendFromConfig(id string, params map[string]any, deps Dependencies) (ports.Unit, error) {
	cfg := DefaultAcademicBlendConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	unit, err := NewAcademicBlendUnit(id, cfg)
	if err != nil {
		return nil, err
	}
	if unit, err = unit.WithCatalog(deps.Catalog); err != nil {
		return nil, err
	}
	return unit, nil
}

// SubjectClassifier assigns subjects to domain buckets by case-folded
// keyword containment. Rules are tried in order; the first hit wins.
type SubjectClassifier struct {
	rules []domain.SubjectRule
}

// NewSubjectClassifier creates a classifier over rules.
func NewSubjectClassifier(rules []domain.SubjectRule) *SubjectClassifier {
	folded := make([]domain.SubjectRule, len(rules))
	caser := cases.Fold()
	for i, r := range rules {
		kws := make([]string, len(r.Keywords))
		for j, kw := range r.Keywords {
			kws[j] = caser.String(kw)
		}
		folded[i] = domain.SubjectRule{Domain: r.Domain, Keywords: kws}
	}
	return &SubjectClassifier{rules: folded}
}

// Classify returns the bucket of subject. The boolean is false for
// subjects no rule matches; they contribute to no bucket.
func (c *SubjectClassifier) Classify(subject string) (domain.Domain, bool) {
	// cases.Caser keeps internal state, so each call folds with its own.
	name := cases.Fold().String(subject)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(name, kw) {
				return r.Domain, true
			}
		}
	}
	return domain.DomainUnknown, false
}

// Buckets sums subject averages per domain. Subjects are visited in
// normalized-name order so the float sums do not depend on record order.
func (c *SubjectClassifier) Buckets(record domain.AcademicRecord) map[domain.Domain]float64 {
	subjects := append([]domain.SubjectScore(nil), record.Subjects...)
	sort.SliceStable(subjects, func(i, j int) bool {
		return domain.SubjectKey(subjects[i].Name) < domain.SubjectKey(subjects[j].Name)
	})

	buckets := make(map[domain.Domain]float64, len(domain.Domains()))
	for _, s := range subjects {
		d, ok := c.Classify(s.Name)
		if !ok {
			continue
		}
		buckets[d] += s.Average()
	}
	return buckets
}
