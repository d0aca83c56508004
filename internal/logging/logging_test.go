package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level, format string
		want          zapcore.Level
	}{
		{"info", "json", zapcore.InfoLevel},
		{"debug", "console", zapcore.DebugLevel},
		{"warn", "", zapcore.WarnLevel},
		{" ERROR ", "JSON", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		l, err := New(tt.level, tt.format)
		require.NoError(t, err, "level=%q format=%q", tt.level, tt.format)
		require.True(t, l.Core().Enabled(tt.want))
		if tt.want > zapcore.DebugLevel {
			require.False(t, l.Core().Enabled(tt.want-1))
		}
	}
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("loud", "json")
	require.Error(t, err)
	_, err = New("info", "xml")
	require.ErrorContains(t, err, "expected json|console")
}

func TestCtx(t *testing.T) {
	require.NotNil(t, FromCtx(context.Background()))

	l := zaptest.NewLogger(t).With(zap.String("req", "1"))
	ctx := CtxWith(context.Background(), l)
	require.Same(t, l, FromCtx(ctx))
}
