package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevel(t *testing.T) {
	l, err := New(Cfg{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestNewDefaultsToInfo(t *testing.T) {
	l, err := New(Cfg{JSON: true})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewBadLevel(t *testing.T) {
	_, err := New(Cfg{Level: "loud"})
	assert.Error(t, err)
}

func TestForResource(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ForResource(zap.New(core), "beat", "seanorg:generic:heart-beat").Info("hi")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "beat", entry.LoggerName)
	assert.Equal(t, "beat", entry.ContextMap()["resource"])
	assert.Equal(t, "seanorg:generic:heart-beat", entry.ContextMap()["model"])
}
