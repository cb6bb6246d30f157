// Package logging wires the ectologger facade used across the codebase onto a
// zap core so log output is structured JSON in production and human readable
// in development.
package logging

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cooljasonmelton/follow-the-money/config"
)

// New builds an ectologger.Logger backed by zap.
func New(cfg *config.Config) (ectologger.Logger, error) {
	var zapCfg zap.Config
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapCfg.Build(zap.WithCaller(false))
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	zapLogger = zapLogger.Named(cfg.AppName)

	sink := func(msg ectologger.EctoLogMessage) {
		fields := make([]zap.Field, 0, len(msg.Fields)+1)
		for k, v := range msg.Fields {
			fields = append(fields, zap.Any(k, v))
		}
		if msg.Err != nil {
			fields = append(fields, zap.Error(msg.Err))
		}

		switch string(msg.Level) {
		case "debug":
			zapLogger.Debug(msg.Message, fields...)
		case "warn":
			zapLogger.Warn(msg.Message, fields...)
		case "error":
			zapLogger.Error(msg.Message, fields...)
		case "fatal":
			zapLogger.Fatal(msg.Message, fields...)
		default:
			zapLogger.Info(msg.Message, fields...)
		}
	}

	return ectologger.NewEctoLogger(sink), nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}
