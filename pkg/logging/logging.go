package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// FileConfig describes an optional rotating log file sink
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// SetConfig builds a logger from the given zap configuration and installs it
// as the package logger
func SetConfig(cfg zap.Config) error {
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	setLogger(l)
	return nil
}

// SetConfigWithFile behaves like SetConfig and additionally tees every entry
// into a lumberjack rotated file
func SetConfigWithFile(cfg zap.Config, file FileConfig) error {
	if file.Path == "" {
		return SetConfig(cfg)
	}

	rotator := &lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
		Compress:   true,
	}

	l, err := cfg.Build(
		zap.AddCallerSkip(1),
		zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(cfg.EncoderConfig),
				zapcore.AddSync(rotator),
				cfg.Level,
			)
			return zapcore.NewTee(core, fileCore)
		}),
	)
	if err != nil {
		return err
	}
	setLogger(l)
	return nil
}

func setLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Named returns a child logger, used for channels that operators watch
// separately from the main stream
func Named(name string) *zap.Logger {
	return current().WithOptions(zap.AddCallerSkip(-1)).Named(name)
}

// Debug logs a message at debug level
func Debug(msg string, fields ...zap.Field) {
	current().Debug(msg, fields...)
}

// Info logs a message at info level
func Info(msg string, fields ...zap.Field) {
	current().Info(msg, fields...)
}

// Warn logs a message at warn level
func Warn(msg string, fields ...zap.Field) {
	current().Warn(msg, fields...)
}

// Error logs a message at error level
func Error(msg string, fields ...zap.Field) {
	current().Error(msg, fields...)
}

// Fatal logs a message at fatal level and exits
func Fatal(msg string, fields ...zap.Field) {
	current().Fatal(msg, fields...)
}

// Sync flushes buffered entries
func Sync() error {
	return current().Sync()
}
