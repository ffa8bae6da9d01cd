package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ahrav/go-compass/infrastructure/middleware"
	"github.com/ahrav/go-compass/infrastructure/units"
	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

// resultNamespace seeds the name-based ids of results, so identical
// submissions get identical ids.
var resultNamespace = uuid.MustParse("6f1c1e84-6a39-4c53-9f7e-3f0d8b0c2a55")

// EngineConfig selects the recommendation variant and tunes the units.
type EngineConfig struct {
	// Variant is "major_minor" or "role_career".
	Variant domain.Variant `yaml:"variant" validate:"required,oneof=major_minor role_career"`
	// Scoring configures the answer scorer.
	Scoring units.AnswerScorerConfig `yaml:"scoring"`
	// Blend configures the academic blend.
	Blend units.AcademicBlendConfig `yaml:"blend"`
}

// DefaultEngineConfig returns the major/minor variant with weighted
// scoring and the default blend weights.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Variant: domain.VariantMajorMinor,
		Scoring: units.DefaultAnswerScorerConfig(),
		Blend:   units.DefaultAcademicBlendConfig(),
	}
}

// Submission is everything a participant hands in for one evaluation.
type Submission struct {
	// SessionID ties the evaluation to a wizard session or batch run. It
	// does not affect the result.
	SessionID string
	Student   domain.Student
	// Answers maps question id to the selected option id. Every catalog
	// question must be answered.
	Answers   map[int]string
	Academics domain.AcademicRecord
}

// Evaluator produces a result from a submission. Engine is the
// production implementation; the wizard depends only on this interface.
type Evaluator interface {
	Evaluate(ctx context.Context, sub Submission) (domain.Result, error)
}

var _ Evaluator = (*Engine)(nil)

// Engine runs the scoring pipeline for one catalog and reference table.
// An Engine is immutable after construction and safe for concurrent use.
type Engine struct {
	catalog    *domain.Catalog
	references ports.ReferenceStore
	config     EngineConfig
	pipeline   *Pipeline
	metrics    ports.MetricsCollector
	logger     *zap.Logger
	now        func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMetrics attaches a metrics collector to the engine and its units.
func WithMetrics(m ports.MetricsCollector) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock replaces time.Now for result timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine validates cfg against the catalog and builds the pipeline
// answer_scorer -> academic_blend -> resolver, where the resolver depends
// on the variant.
func NewEngine(catalog *domain.Catalog, references ports.ReferenceStore, cfg EngineConfig, opts ...EngineOption) (*Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog is required", domain.ErrInvalidConfiguration)
	}
	if references == nil {
		return nil, fmt.Errorf("%w: reference store is required", domain.ErrInvalidConfiguration)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	if cfg.Variant == domain.VariantRoleCareer {
		for _, family := range []string{domain.FamilyRoleType, domain.FamilyCareerLine} {
			if _, ok := catalog.Family(family); !ok {
				return nil, fmt.Errorf("%w: catalog %s declares no %s family required by %s",
					domain.ErrInvalidConfiguration, catalog.Name, family, cfg.Variant)
			}
		}
	}

	e := &Engine{
		catalog:    catalog,
		references: references,
		config:     cfg,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "engine"), zap.String("catalog", catalog.Name))

	pipeline, err := e.buildPipeline()
	if err != nil {
		return nil, err
	}
	e.pipeline = pipeline
	return e, nil
}

func (e *Engine) buildPipeline() (*Pipeline, error) {
	registry := NewDefaultUnitRegistry(units.Dependencies{Catalog: e.catalog, References: e.references})

	resolver := units.TypeMajorMinorResolver
	if e.config.Variant == domain.VariantRoleCareer {
		resolver = units.TypeRoleCareerResolver
	}

	steps := []struct {
		unitType string
		params   map[string]any
	}{
		{units.TypeAnswerScorer, map[string]any{"mode": string(e.config.Scoring.Mode)}},
		{units.TypeAcademicBlend, blendParams(e.config.Blend)},
		{resolver, nil},
	}

	stages := make([]ports.Executable, 0, len(steps))
	for _, step := range steps {
		unit, err := registry.CreateUnit(step.unitType, step.unitType, step.params)
		if err != nil {
			return nil, err
		}
		adapter := NewUnitAdapter(unit, step.unitType)
		if e.metrics != nil {
			adapter = adapter.WithMetrics(e.metrics)
		}
		stages = append(stages, adapter)
	}
	return NewPipeline(string(e.config.Variant), e.logger, stages...)
}

func blendParams(cfg units.AcademicBlendConfig) map[string]any {
	params := map[string]any{
		"psychometric_weight": cfg.PsychometricWeight,
		"academic_weight":     cfg.AcademicWeight,
		"tie_breaker":         string(cfg.TieBreaker),
	}
	if len(cfg.DomainCategories) > 0 {
		params["domain_categories"] = cfg.DomainCategories
	}
	return params
}

// Catalog returns the catalog the engine scores against.
func (e *Engine) Catalog() *domain.Catalog { return e.catalog }

// Variant returns the configured recommendation variant.
func (e *Engine) Variant() domain.Variant { return e.config.Variant }

// Evaluate scores a complete submission and resolves its recommendation.
// An incomplete answer set fails with a *domain.IncompleteError before any
// unit runs. The same submission always yields the same result apart from
// GeneratedAt.
func (e *Engine) Evaluate(ctx context.Context, sub Submission) (domain.Result, error) {
	start := time.Now()

	if err := e.catalog.CheckComplete(sub.Answers); err != nil {
		e.record("incomplete", nil, start)
		return domain.Result{}, err
	}

	state := domain.NewState()
	state = domain.With(state, domain.KeyAnswers, sub.Answers)
	state = domain.With(state, domain.KeyAcademicRecord, sub.Academics)
	state = state.WithExecutionContext(domain.ExecutionContext{SessionID: sub.SessionID, Variant: e.config.Variant})

	out, err := e.pipeline.Execute(ctx, state)
	if err != nil {
		e.record("error", nil, start)
		return domain.Result{}, err
	}

	scores, _ := domain.Get(out, domain.KeyCategoryScores)
	rec, ok := domain.Get(out, domain.KeyRecommendation)
	if !ok {
		e.record("error", nil, start)
		return domain.Result{}, fmt.Errorf("pipeline %s produced no recommendation", e.pipeline.ID())
	}

	id, err := e.resultID(sub)
	if err != nil {
		return domain.Result{}, err
	}

	result := domain.Result{
		ID:             id,
		Catalog:        e.catalog.Name,
		Student:        sub.Student,
		Scores:         scores,
		AcademicRecord: sub.Academics,
		Recommendation: rec,
		GeneratedAt:    e.now().UTC(),
	}

	e.record("success", &rec, start)
	e.logger.Info("evaluation complete",
		zap.String("session_id", sub.SessionID),
		zap.String("result_id", id),
		zap.String("key", rec.Key.String()),
		zap.Bool("matched", rec.Matched))
	return result, nil
}

// resultID derives a stable id from the inputs that determine the result.
func (e *Engine) resultID(sub Submission) (string, error) {
	payload, err := json.Marshal(struct {
		Catalog   string                `json:"catalog"`
		Version   string                `json:"version"`
		Variant   domain.Variant        `json:"variant"`
		Student   domain.Student        `json:"student"`
		Answers   map[int]string        `json:"answers"`
		Academics domain.AcademicRecord `json:"academics"`
	}{e.catalog.Name, e.catalog.Version, e.config.Variant, sub.Student, sub.Answers, sub.Academics})
	if err != nil {
		return "", fmt.Errorf("encode result id: %w", err)
	}
	return uuid.NewSHA1(resultNamespace, payload).String(), nil
}

func (e *Engine) record(status string, rec *domain.Recommendation, start time.Time) {
	if e.metrics == nil {
		return
	}
	labels := map[string]string{"unit": "engine", "variant": string(e.config.Variant), "status": status}
	e.metrics.RecordLatency("evaluate", time.Since(start), labels)
	e.metrics.RecordCounter("evaluations_total", 1, labels)
	if rec == nil {
		return
	}
	matched := "false"
	if rec.Matched {
		matched = "true"
	}
	e.metrics.RecordCounter(middleware.MetricRecommendations, 1, map[string]string{
		"variant": string(e.config.Variant),
		"matched": matched,
	})
	for _, b := range rec.Ranking {
		e.metrics.RecordHistogram(middleware.MetricBlendedScore, b.Blended, map[string]string{"domain": b.Domain.String()})
	}
	if len(rec.Ranking) > 0 {
		e.metrics.RecordGauge("last_top_domain_score", rec.Ranking[0].Blended, map[string]string{"unit": "engine"})
	}
}
