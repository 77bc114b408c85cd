// Package logger holds the process-wide zap logger. Components take a
// named child from Named and never build their own.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "posting-crawler"

var (
	log *zap.Logger
	// helpers skips one frame so package-level calls report their caller
	helpers *zap.Logger
)

// Options controls how the logger is built
type Options struct {
	Debug bool
	// Level is a zap level name. Empty means info, or debug when Debug is set.
	Level string
}

// New builds a logger tagged with the service name. Production output is
// JSON without sampling, so every skipped posting in a run is kept.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var cfg zap.Config
	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	return cfg.Build(zap.Fields(zap.String("service", serviceName)))
}

// Init builds the process logger from opts
func Init(opts Options) error {
	l, err := New(opts)
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set replaces the process logger
func Set(l *zap.Logger) {
	log = l
	helpers = l.WithOptions(zap.AddCallerSkip(1))
}

// Get returns the process logger, building a default one on first use
func Get() *zap.Logger {
	if log == nil {
		l, err := New(Options{Debug: os.Getenv("DEBUG") == "true"})
		if err != nil {
			l = zap.NewNop()
		}
		Set(l)
	}
	return log
}

// Named returns a child logger for a component
func Named(component string) *zap.Logger {
	return Get().Named(component)
}

func Info(msg string, fields ...zap.Field) {
	Get()
	helpers.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Get()
	helpers.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Get()
	helpers.Error(msg, fields...)
}

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
