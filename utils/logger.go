package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides logging functionality
type Logger struct {
	rotator *lumberjack.Logger
	sugar   *zap.SugaredLogger
}

// NewLogger creates a logger writing JSON lines to a rotated file and
// human readable lines to stdout
func NewLogger(cfg LogConfig) (*Logger, error) {
	if cfg.Path == "" {
		cfg.Path = GetLogPath()
	}

	// Ensure directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    orDefault(cfg.MaxSizeMB, 10),
		MaxBackups: orDefault(cfg.MaxBackups, 5),
		MaxAge:     orDefault(cfg.MaxAgeDays, 30),
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotator),
		level,
	)
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stdout),
		level,
	)

	// Skip 1 so the caller of the wrapper shows up, not this file
	l := zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller(), zap.AddCallerSkip(1))

	return &Logger{
		rotator: rotator,
		sugar:   l.Sugar(),
	}, nil
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// Close flushes buffered entries and closes the log file
func (l *Logger) Close() error {
	_ = l.sugar.Sync()
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// With returns a child logger carrying a module field
func (l *Logger) With(module string) *Logger {
	return &Logger{
		rotator: l.rotator,
		sugar:   l.sugar.With("module", module),
	}
}

// GetLogPath returns the default log path
func GetLogPath() string {
	return filepath.Join(".", "logs", "app.log")
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
