package logger

import (
	"io"
	"sync/atomic"

	charm "github.com/charmbracelet/log"
)

// defaultLogger is the global default Logger instance stored atomically.
var defaultLogger atomic.Value

func init() {
	// Initialize with charm's default logger.
	defaultLogger.Store(NewLogger(charm.Default()))
}

// Default returns the global default Logger instance.
func Default() *Logger {
	return defaultLogger.Load().(*Logger)
}

// SetDefault sets a new global default Logger instance.
func SetDefault(logger *Logger) {
	if logger != nil {
		defaultLogger.Store(logger)
	}
}

// Package-level helpers delegating to the default logger.

// Trace logs a message at the Trace level.
func Trace(msg interface{}, keyvals ...interface{}) {
	Default().Trace(msg, keyvals...)
}

// Tracef logs a formatted message at the Trace level.
func Tracef(format string, args ...interface{}) {
	Default().Tracef(format, args...)
}

// Debug logs a message at the Debug level.
func Debug(msg interface{}, keyvals ...interface{}) {
	Default().Debug(msg, keyvals...)
}

// Info logs a message at the Info level.
func Info(msg interface{}, keyvals ...interface{}) {
	Default().Info(msg, keyvals...)
}

// Warn logs a message at the Warn level.
func Warn(msg interface{}, keyvals ...interface{}) {
	Default().Warn(msg, keyvals...)
}

// Error logs a message at the Error level.
func Error(msg interface{}, keyvals ...interface{}) {
	Default().Error(msg, keyvals...)
}

// SetLevel sets the level on the default logger.
func SetLevel(level charm.Level) {
	Default().SetLevel(level)
}

// GetLevel returns the default logger's level.
func GetLevel() charm.Level {
	return Default().GetLevel()
}

// SetOutput redirects the default logger's output.
func SetOutput(w io.Writer) {
	Default().SetOutput(w)
}
