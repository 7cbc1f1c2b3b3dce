package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nope"))
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core)

	ctx := ToContext(context.Background(), l)
	FromWithFields(ctx, InstanceID("abc")).Info("hello", Step("mint"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "abc", fields["instance_id"])
	assert.Equal(t, "mint", fields["step"])
}

func TestFromFallsBackToSingleton(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	//nolint:staticcheck // nil ctx es un caso soportado
	From(nil).Info("from nil")
	From(context.Background()).Info("from empty")

	assert.Equal(t, 2, logs.Len())
}

func TestReplaceRestores(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	L().Info("captured")
	restore()

	L().Info("not captured")
	assert.Equal(t, 1, logs.Len())
	assert.NotNil(t, L())
}
