package ports

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ConfigError
		wantMsg string
	}{
		{
			name:    "with value",
			err:     NewConfigError("blend.academic_weight", -1, "must not be negative"),
			wantMsg: "config error: key=blend.academic_weight, value=-1, reason=must not be negative",
		},
		{
			name:    "without value",
			err:     NewConfigError("quiz.variant", nil, "required"),
			wantMsg: "config error: key=quiz.variant, reason=required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestRenderError(t *testing.T) {
	err := NewRenderError("pdf", "write", ErrSinkFailed)

	assert.Equal(t, "report error: format=pdf, stage=write, err=report sink failed", err.Error())
	assert.True(t, errors.Is(err, ErrSinkFailed))

	var re *RenderError
	require.True(t, errors.As(fmt.Errorf("generate: %w", err), &re))
	assert.Equal(t, "pdf", re.Format)
}
