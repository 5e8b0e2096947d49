package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rajivgeraev/unlisted-api/internal/config"
)

func TestWarnDemoMode(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	warnDemoMode(&config.Config{DemoMode: false}, zap.New(core))
	assert.Zero(t, logs.Len())

	warnDemoMode(&config.Config{DemoMode: true, AppEnv: "production"}, zap.New(core))
	entries := logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Contains(t, entries[0].Message, "DEMO_MODE")
	assert.Equal(t, "production", entries[0].ContextMap()["app_env"])
}
