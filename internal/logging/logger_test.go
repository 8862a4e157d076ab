package logging

import (
	"testing"

	"github.com/ppiankov/petty/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		l, err := New(model.LogConfig{Level: "debug", Format: format})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	}

	_, err := New(model.LogConfig{Level: "verbose"})
	assert.Error(t, err)
}

func TestRetryableLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rl := RetryableLogger(zap.New(core))

	rl.Debug("performing request", "method", "POST")
	rl.Warn("retrying", "attempt", 2)

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "POST", entries[0].ContextMap()["method"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
