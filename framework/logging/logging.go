// Package logging builds the application's zap logger.
package logging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-tivi/framework/config"
)

// New returns a development logger for the local env and a production
// (JSON) logger otherwise, at the configured level.
func New(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "logging: level %q", cfg.Log.Level)
	}

	var zc zap.Config
	if cfg.App.Env == "local" || cfg.App.Debug {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "logging: build")
	}
	return logger.With(
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	), nil
}
