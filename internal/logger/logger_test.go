package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewRespectsLevel(t *testing.T) {
	for _, production := range []bool{true, false} {
		l, err := New(production, "warn")
		require.NoError(t, err)

		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(false, "loud")
	assert.Error(t, err)
}
