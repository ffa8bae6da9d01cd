package units

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

var _ ports.Unit = (*AnswerScorerUnit)(nil)

// ScoringMode selects how an option's weights are credited.
type ScoringMode string

const (
	// ModeWeighted adds each weight's explicit points.
	ModeWeighted ScoringMode = "weighted"
	// ModeTags adds one point per referenced category regardless of the
	// authored weight.
	ModeTags ScoringMode = "tags"
)

// AnswerScorerUnit tallies a Category Score Map from the selected options.
//
// Every category known to the catalog starts at zero, so categories no
// answer touched are still reported. Accumulation is a plain sum and
// therefore independent of answer order.
//
// Concurrency: AnswerScorerUnit is stateless and safe for concurrent use.
type AnswerScorerUnit struct {
	name    string
	catalog *domain.Catalog
	config  AnswerScorerConfig
	tracer  trace.Tracer
}

// AnswerScorerConfig controls how weights are credited.
type AnswerScorerConfig struct {
	// Mode is "weighted" (default) or "tags".
	Mode ScoringMode `yaml:"mode" json:"mode" validate:"required,oneof=weighted tags"`
}

// DefaultAnswerScorerConfig returns the weighted mode.
func DefaultAnswerScorerConfig() AnswerScorerConfig {
	return AnswerScorerConfig{Mode: ModeWeighted}
}

// NewAnswerScorerUnit creates a scorer bound to catalog.
func NewAnswerScorerUnit(name string, catalog *domain.Catalog, config AnswerScorerConfig) (*AnswerScorerUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog", ErrMissingDependency)
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &AnswerScorerUnit{
		name:    name,
		catalog: catalog,
		config:  config,
		tracer:  otel.Tracer("answer-scorer-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (u *AnswerScorerUnit) Name() string { return u.name }

// Execute reads domain.KeyAnswers and writes domain.KeyCategoryScores.
//
// An answer naming a question or option absent from the catalog fails with
// a *domain.AnswerError. Completeness is not checked here; callers reject
// partial answer sets before evaluation.
func (u *AnswerScorerUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := u.tracer.Start(ctx, "AnswerScorerUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", TypeAnswerScorer),
			attribute.String("unit.id", u.name),
			attribute.String("config.mode", string(u.config.Mode)),
			attribute.String("catalog.name", u.catalog.Name),
		),
	)
	defer span.End()

	start := time.Now()

	answers, ok := domain.Get(state, domain.KeyAnswers)
	if !ok {
		err := missing(domain.KeyAnswers.Name())
		span.RecordError(err)
		return state, err
	}

	scores, err := ScoreAnswers(u.catalog, answers, u.config.Mode)
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	span.SetAttributes(
		attribute.Int("eval.answers_count", len(answers)),
		attribute.Int("eval.categories", scores.Len()),
		attribute.Int64("eval.latency_us", time.Since(start).Microseconds()),
	)

	return domain.With(state, domain.KeyCategoryScores, scores), nil
}

// ScoreAnswers tallies answers against catalog. Questions are visited in
// ascending id order; the result does not depend on that order.
func ScoreAnswers(catalog *domain.Catalog, answers map[int]string, mode ScoringMode) (domain.CategoryScores, error) {
	selected, err := resolveSelections(catalog, answers)
	if err != nil {
		return domain.CategoryScores{}, err
	}
	return tally(catalog.Categories(), selected, mode), nil
}

// resolveSelections maps every answer to its catalog option.
func resolveSelections(catalog *domain.Catalog, answers map[int]string) ([]domain.Option, error) {
	ids := make([]int, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]domain.Option, 0, len(ids))
	for _, id := range ids {
		q, ok := catalog.Question(id)
		if !ok {
			return nil, &domain.AnswerError{QuestionID: id, Option: answers[id]}
		}
		opt, ok := q.Option(answers[id])
		if !ok {
			return nil, &domain.AnswerError{QuestionID: id, Option: answers[id]}
		}
		out = append(out, opt)
	}
	return out, nil
}

// tally sums option weights over a zeroed map of categories.
func tally(categories []string, options []domain.Option, mode ScoringMode) domain.CategoryScores {
	scores := domain.NewCategoryScores(categories)
	for _, opt := range options {
		for _, w := range opt.Weights {
			points := w.Points
			if mode == ModeTags {
				points = 1
			}
			scores.Add(w.Category, points)
		}
	}
	return scores
}

// Validate verifies the unit is properly configured.
func (u *AnswerScorerUnit) Validate() error {
	if u.catalog == nil {
		return fmt.Errorf("%w: catalog", ErrMissingDependency)
	}
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// NewAnswerScorerFromConfig is the registry factory for answer_scorer.
func NewAnswerScorerFromConfig(id string, params map[string]any, deps Dependencies) (ports.Unit, error) {
	cfg := DefaultAnswerScorerConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	return NewAnswerScorerUnit(id, deps.Catalog, cfg)
}
