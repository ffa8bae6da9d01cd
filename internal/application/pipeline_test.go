package application

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
	"github.com/ahrav/go-compass/internal/testutils"
)

var keyTrail = domain.NewKey[[]string]("trail")

// stage appends its id to the trail, or fails with err.
type stage struct {
	id  string
	err error
	fn  func()
}

func (s *stage) ID() string { return s.id }

func (s *stage) Execute(_ context.Context, state domain.State) (domain.State, error) {
	if s.fn != nil {
		s.fn()
	}
	if s.err != nil {
		return state, s.err
	}
	trail, _ := domain.Get(state, keyTrail)
	return domain.With(state, keyTrail, append(slices.Clone(trail), s.id)), nil
}

func trailOf(t *testing.T, state domain.State) []string {
	t.Helper()
	trail, _ := domain.Get(state, keyTrail)
	return trail
}

func TestNewPipeline_Errors(t *testing.T) {
	tests := []struct {
		name   string
		stages []ports.Executable
		errMsg string
	}{
		{name: "no stages", errMsg: "has no stages"},
		{name: "nil stage", stages: []ports.Executable{&stage{id: "a"}, nil}, errMsg: "stage 2 is nil"},
		{name: "duplicate id", stages: []ports.Executable{&stage{id: "a"}, &stage{id: "a"}}, errMsg: "duplicate stage a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPipeline("p", nil, tt.stages...)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestPipeline_Execute(t *testing.T) {
	t.Run("runs stages in order", func(t *testing.T) {
		p, err := NewPipeline("major_minor", zaptest.NewLogger(t), &stage{id: "score"}, &stage{id: "blend"}, &stage{id: "resolve"})
		require.NoError(t, err)

		initial := domain.NewState()
		out, err := p.Execute(context.Background(), initial)
		require.NoError(t, err)
		assert.Equal(t, []string{"score", "blend", "resolve"}, trailOf(t, out))
		assert.False(t, domain.Has(initial, keyTrail), "input state must stay untouched")
	})

	t.Run("stops at the failing stage", func(t *testing.T) {
		boom := errors.New("boom")
		last := &stage{id: "resolve"}
		p, err := NewPipeline("major_minor", nil, &stage{id: "score"}, &stage{id: "blend", err: boom}, last)
		require.NoError(t, err)

		out, err := p.Execute(context.Background(), domain.NewState())
		require.ErrorIs(t, err, boom)
		assert.EqualError(t, err, "pipeline major_minor: stage 2 (blend) failed: boom")
		assert.Equal(t, []string{"score"}, trailOf(t, out), "state of the last successful stage is returned")
	})

	t.Run("checks cancellation between stages", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p, err := NewPipeline("role_career", nil, &stage{id: "score", fn: cancel}, &stage{id: "blend"})
		require.NoError(t, err)

		out, err := p.Execute(ctx, domain.NewState())
		require.ErrorIs(t, err, context.Canceled)
		assert.Contains(t, err.Error(), "cancelled before blend")
		assert.Equal(t, []string{"score"}, trailOf(t, out))
	})
}

func TestPipeline_Stages(t *testing.T) {
	stages := []ports.Executable{&stage{id: "score"}, &stage{id: "blend"}}
	p, err := NewPipeline("major_minor", nil, stages...)
	require.NoError(t, err)

	stages[0] = &stage{id: "replaced"}
	assert.Equal(t, []string{"score", "blend"}, p.Stages(), "the pipeline keeps its own copy")
	assert.Equal(t, "major_minor", p.ID())
}

type stubUnit struct {
	name string
	err  error
}

func (s stubUnit) Name() string    { return s.name }
func (s stubUnit) Validate() error { return nil }
func (s stubUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	return state, s.err
}

func TestUnitAdapter_RecordsMetrics(t *testing.T) {
	metrics := &testutils.RecordingMetrics{}

	ok := NewUnitAdapter(stubUnit{name: "ok"}, "ok").WithMetrics(metrics)
	_, err := ok.Execute(context.Background(), domain.NewState())
	require.NoError(t, err)

	failing := NewUnitAdapter(stubUnit{name: "bad", err: errors.New("boom")}, "bad").WithMetrics(metrics)
	_, err = failing.Execute(context.Background(), domain.NewState())
	require.Error(t, err)

	assert.Equal(t, 1.0, metrics.Counter("unit_executions_total", map[string]string{"unit": "ok", "status": "success"}))
	assert.Equal(t, 1.0, metrics.Counter("unit_executions_total", map[string]string{"unit": "bad", "status": "error"}))
	assert.Len(t, metrics.Calls("unit_execute"), 2)
}

func TestUnitAdapter_WithoutMetrics(t *testing.T) {
	adapter := NewUnitAdapter(stubUnit{name: "plain"}, "plain")
	_, err := adapter.Execute(context.Background(), domain.NewState())
	require.NoError(t, err)
	assert.Equal(t, "plain", adapter.ID())
	assert.Equal(t, "plain", adapter.Unit().Name())
}
