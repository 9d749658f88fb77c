package logging

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Field{Key: "n", Value: 3}, Int("n", 3))
	assert.Equal(t, Field{Key: "f", Value: 2.5}, Float64("f", 2.5))
	assert.Equal(t, Field{Key: "b", Value: true}, Bool("b", true))
	assert.Equal(t, Field{Key: "d", Value: time.Second}, Duration("d", time.Second))
	assert.Equal(t, Field{Key: "error", Value: "boom"}, Err(fmt.Errorf("boom")))
	assert.Equal(t, Field{Key: "error", Value: "<nil>"}, Err(nil))
}

func TestZapLoggerEmitsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core)

	log.Info("record skipped", String("file", "input.sdf"), Int("record", 4))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "record skipped", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "input.sdf", fields["file"])
	assert.EqualValues(t, 4, fields["record"])
}

func TestWithAndNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core).Named("ingest").With(String("stamp", "abc"))

	log.Warn("chunk slow")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ingest", entries[0].LoggerName)
	assert.Equal(t, "abc", entries[0].ContextMap()["stamp"])
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", ""} {
		log, err := NewLogger(Config{Level: level})
		require.NoError(t, err, "level %q", level)
		require.NotNil(t, log)
	}
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	t.Cleanup(func() { SetDefault(orig) })

	assert.NotNil(t, Default(), "default starts as a usable no-op")

	log := NewNopLogger()
	SetDefault(log)
	assert.Equal(t, log, Default())

	SetDefault(nil)
	assert.Equal(t, log, Default(), "nil is ignored")
}
