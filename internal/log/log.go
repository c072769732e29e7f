package log

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stateful/blockstate/internal/config"
)

var defaultLogger = zap.NewNop()

func Get() *zap.Logger {
	return defaultLogger
}

// New builds a logger from cfg. A disabled config yields a no-op logger.
func New(cfg config.Log) (*zap.Logger, error) {
	if !cfg.Enabled {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	if cfg.Encoding == "console" {
		zapConfig.Development = level == zapcore.DebugLevel
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	if cfg.Path != "" {
		zapConfig.OutputPaths = []string{cfg.Path}
		zapConfig.ErrorOutputPaths = []string{cfg.Path}
	}

	l, err := zapConfig.Build()
	return l, errors.WithStack(err)
}

// Set replaces the process-wide logger with one built from cfg.
func Set(cfg config.Log) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	defaultLogger = l
	return nil
}

func Flush() {
	_ = defaultLogger.Sync()
}
