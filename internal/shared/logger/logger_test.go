package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "production", cfg: Config{}},
		{name: "debug", cfg: Config{Debug: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, Initialize(tt.cfg))
			assert.NotNil(t, Default())
			assert.Equal(t, tt.cfg.Debug, Default().Core().Enabled(zap.DebugLevel))
		})
	}
}

func TestLoggingHelpersDoNotPanic(t *testing.T) {
	require.NoError(t, Initialize(Config{Debug: true}))
	ctx := context.Background()

	assert.NotPanics(t, func() {
		Info("info", zap.String("k", "v"))
		InfoCtx(ctx, "info ctx")
		Warn("warn")
		WarnCtx(ctx, "warn ctx")
		Debug("debug")
		Error(errors.New("boom"))
		Error(nil)
		ErrorCtx(ctx, errors.New("boom ctx"))
		Flush(0)
	})
}

func TestFromContextNil(t *testing.T) {
	require.NoError(t, Initialize(Config{}))
	//nolint:staticcheck
	assert.Same(t, Default(), FromContext(nil))
}
