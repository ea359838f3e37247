package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/sigdex/internal/version"
)

// NewLogger creates a zap logger for the given environment.
// prod writes JSON tagged with service and version; local, dev and docker
// write colored console output. level (if non-empty) overrides the
// environment default: debug, info, warn, error.
func NewLogger(env string, level ...string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
		cfg.InitialFields = map[string]any{
			"service": "sigdex",
			"version": version.Version,
		}
	case "local", "dev", "docker":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if len(level) > 0 && level[0] != "" {
		lvl, err := zapcore.ParseLevel(level[0])
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level[0], err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
