// Package logging builds the zap loggers used by the CLI and the binding.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Levels lists the accepted level names.
var Levels = []string{"debug", "info", "warn", "error"}

// ParseLevel maps a level name to a zap level. "trace" is accepted as an
// alias for debug. Names are case-insensitive.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q (valid levels: %s)", level, strings.Join(Levels, ", "))
	}
}

// EncoderConfig returns the console encoder configuration shared by all
// loggers.
func EncoderConfig(development bool) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "T"
	cfg.LevelKey = "L"
	cfg.NameKey = "N"
	cfg.CallerKey = "C"
	cfg.MessageKey = "M"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if development {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg
}

// New builds a console logger writing to stderr. Stdout is left for
// command output.
func New(level string, development bool) (*zap.Logger, error) {
	return NewWithSink(level, development, zapcore.Lock(os.Stderr))
}

// NewWithSink builds a console logger writing to sink.
func NewWithSink(level string, development bool, sink zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(EncoderConfig(development)),
		sink,
		zap.NewAtomicLevelAt(lvl),
	)

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if development {
		opts = append(opts, zap.AddCaller(), zap.Development())
	}
	return zap.New(core, opts...), nil
}

// Install builds a logger and makes it the zap global. The returned
// function restores the previous globals.
func Install(level string, development bool) (*zap.Logger, func(), error) {
	log, err := New(level, development)
	if err != nil {
		return nil, nil, err
	}
	undo := zap.ReplaceGlobals(log)
	return log, undo, nil
}
