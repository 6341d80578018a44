// Package logging builds the zap loggers used by the CLI.
package logging

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LevelNone disables logging.
	LevelNone = "none"
)

// New returns a zap logger writing to stderr at the given level: debug, info, warn, error
// or none. Debug also switches to the human readable development encoder.
func New(level string) (*zap.Logger, error) {
	lower := strings.ToLower(strings.TrimSpace(level))
	if lower == LevelNone {
		return zap.NewNop(), nil
	}
	if lower == "" {
		lower = "info"
	}
	if lower == "warning" {
		lower = "warn"
	}

	var lvl zapcore.Level
	err := lvl.UnmarshalText([]byte(lower))
	if err != nil {
		return nil, errors.Errorf("unknown log level %q (expected debug, info, warn, error or none)", level)
	}

	zapConfig := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	zapConfig.Encoding = "console"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, errors.Wrap(err, "unable to build logger")
	}

	return logger, nil
}
