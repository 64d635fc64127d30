package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		level string
		json  bool
		want  zapcore.Level
	}{
		{level: "debug", want: zapcore.DebugLevel},
		{level: "info", json: true, want: zapcore.InfoLevel},
		{level: " warn ", want: zapcore.WarnLevel},
		{level: "error", json: true, want: zapcore.ErrorLevel},
	} {
		logger, err := New(tc.level, tc.json)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(tc.want))
		assert.False(t, logger.Core().Enabled(tc.want-1))
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := New("chatty", false)
	require.Error(t, err)
	assert.ErrorContains(t, err, "chatty")
}
