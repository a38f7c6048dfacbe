// Package logging builds the zap loggers used by the CLI and server.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New builds a logger at the given level. "json" selects the production
// encoder; anything else gets the human-readable development encoder.
func New(levelStr, format string) (logger *zap.Logger, err error) {
	var cfg zap.Config
	if format == FormatJSON {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(levelStr))

	logger, err = cfg.Build()
	return logger, err
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(levelStr string) (level zapcore.Level) {
	level = zapcore.InfoLevel
	switch levelStr {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}
	return level
}

// NewNop returns a logger that discards everything.
func NewNop() (logger *zap.Logger) {
	logger = zap.NewNop()
	return logger
}
