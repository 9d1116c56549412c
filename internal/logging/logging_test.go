package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New("debug", "console")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	l, err = New("warn", "json")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))

	_, err = New("loud", "json")
	assert.Error(t, err)

	_, err = New("info", "xml")
	assert.Error(t, err)
}

func TestComponent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := Component(zap.New(core), "resolver")
	l.Info("hello")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "resolver", entry.LoggerName)
	assert.Equal(t, "resolver", entry.ContextMap()["component"])

	// nil parent must not panic
	Component(nil, "x").Info("dropped")
}

func TestCorrelationID(t *testing.T) {
	assert.Equal(t, "", CorrelationID(context.Background()))

	ctx := WithCorrelationID(context.Background(), "req-42")
	assert.Equal(t, "req-42", CorrelationID(ctx))
}
