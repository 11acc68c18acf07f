package cli

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger per cfg, attaching a per-invocation
// correlation ID (runID) to every subsequent line so a run's log output can
// be grepped out of a shared stream.
func NewLogger(cfg LogConfig) (*zap.Logger, string, error) {
	runID := uuid.NewString()

	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, "", err
	}
	return logger.With(zap.String("run_id", runID)), runID, nil
}
