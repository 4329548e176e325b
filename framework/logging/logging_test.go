package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/go-tivi/framework/config"
	"github.com/km-arc/go-tivi/framework/logging"
)

func TestNew_Level(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Name: "Tivi", Env: "production"},
		Log: config.LogConfig{Level: "warn"},
	}

	logger, err := logging.New(cfg)
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}

func TestNew_InvalidLevel(t *testing.T) {
	cfg := &config.Config{Log: config.LogConfig{Level: "loud"}}

	_, err := logging.New(cfg)
	assert.Error(t, err)
}
