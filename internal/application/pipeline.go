package application

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

var _ ports.Pipeline = (*Pipeline)(nil)

// Pipeline runs the evaluation stages of one variant in a fixed order:
// scorer, blend, then a resolver. A Pipeline is immutable once built, so a
// single value serves every evaluation an Engine performs.
type Pipeline struct {
	id     string
	stages []ports.Executable
	logger *zap.Logger
}

// NewPipeline builds a pipeline over stages. Stages must be non-nil and
// carry unique ids.
func NewPipeline(id string, logger *zap.Logger, stages ...ports.Executable) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: pipeline %s has no stages", domain.ErrInvalidConfiguration, id)
	}
	seen := make(map[string]struct{}, len(stages))
	for i, stage := range stages {
		if stage == nil {
			return nil, fmt.Errorf("%w: pipeline %s: stage %d is nil", domain.ErrInvalidConfiguration, id, i+1)
		}
		if _, dup := seen[stage.ID()]; dup {
			return nil, fmt.Errorf("%w: pipeline %s: duplicate stage %s", domain.ErrInvalidConfiguration, id, stage.ID())
		}
		seen[stage.ID()] = struct{}{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		id:     id,
		stages: slices.Clone(stages),
		logger: logger.With(zap.String("pipeline", id)),
	}, nil
}

// Execute runs every stage in order. Cancellation is checked before each
// stage; on failure the State of the last successful stage is returned with
// an error naming the stage that failed.
func (p *Pipeline) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return state, fmt.Errorf("pipeline %s: cancelled before %s: %w", p.id, stage.ID(), err)
		}
		start := time.Now()
		next, err := stage.Execute(ctx, state)
		if err != nil {
			return state, fmt.Errorf("pipeline %s: stage %d (%s) failed: %w", p.id, i+1, stage.ID(), err)
		}
		p.logger.Debug("stage complete",
			zap.String("stage", stage.ID()),
			zap.Int("keys", len(next.Keys())),
			zap.Duration("duration", time.Since(start)))
		state = next
	}
	return state, nil
}

// ID returns the pipeline id, which is the variant it resolves.
func (p *Pipeline) ID() string { return p.id }

// Stages returns the stage ids in run order.
func (p *Pipeline) Stages() []string {
	ids := make([]string, len(p.stages))
	for i, stage := range p.stages {
		ids[i] = stage.ID()
	}
	return ids
}
