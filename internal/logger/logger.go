package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pliu/nexuschat/internal/config"
)

// New builds the process logger: console output at debug level in
// development, JSON at the configured level otherwise.
func New(cfg config.Log) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
