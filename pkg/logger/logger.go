// Package logger provides structured logging for the flopen library and CLI,
// built on charmbracelet/log with an extra Trace level below Debug.
package logger

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	charm "github.com/charmbracelet/log"
)

// TraceLevel is one level more verbose than charm's DebugLevel.
const TraceLevel = charm.DebugLevel - 1

// Re-exported charm levels so callers don't need to import charm directly.
const (
	DebugLevel = charm.DebugLevel
	InfoLevel  = charm.InfoLevel
	WarnLevel  = charm.WarnLevel
	ErrorLevel = charm.ErrorLevel
)

// LogLevel is the string form of a level as accepted in configuration.
type LogLevel string

const (
	LogLevelOff     LogLevel = "Off"
	LogLevelTrace   LogLevel = "Trace"
	LogLevelDebug   LogLevel = "Debug"
	LogLevelInfo    LogLevel = "Info"
	LogLevelWarning LogLevel = "Warning"
)

// ErrInvalidLogLevel is returned by ParseLogLevel for unknown level names.
var ErrInvalidLogLevel = errors.New("invalid log level")

// offLevel is above every level charm knows about, so nothing is emitted.
const offLevel = charm.FatalLevel + 1

// Logger wraps a charm logger and adds the Trace level.
type Logger struct {
	*charm.Logger
}

// NewLogger wraps an existing charm logger.
func NewLogger(l *charm.Logger) *Logger {
	l.SetStyles(getLogStyles())
	return &Logger{Logger: l}
}

// New creates a new Logger writing to stderr.
func New() *Logger {
	return NewLogger(charm.New(os.Stderr))
}

// NewWithOutput creates a new Logger writing to w.
func NewWithOutput(w io.Writer) *Logger {
	return NewLogger(charm.New(w))
}

// Trace logs a message at the Trace level.
func (l *Logger) Trace(msg interface{}, keyvals ...interface{}) {
	l.Log(TraceLevel, msg, keyvals...)
}

// Tracef logs a formatted message at the Trace level.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.Log(TraceLevel, fmt.Sprintf(format, args...))
}

// GetLevelString returns the current level name, including "trace".
func (l *Logger) GetLevelString() string {
	level := l.GetLevel()
	switch level {
	case TraceLevel:
		return "trace"
	case offLevel:
		return "off"
	default:
		return level.String()
	}
}

// SetLogLevel applies a parsed configuration level.
func (l *Logger) SetLogLevel(level LogLevel) {
	switch level {
	case LogLevelTrace:
		l.SetLevel(TraceLevel)
	case LogLevelDebug:
		l.SetLevel(DebugLevel)
	case LogLevelInfo:
		l.SetLevel(InfoLevel)
	case LogLevelWarning:
		l.SetLevel(WarnLevel)
	case LogLevelOff:
		l.SetLevel(offLevel)
	}
}

// ParseLogLevel validates a level name from configuration.
// An empty string defaults to Info.
func ParseLogLevel(logLevel string) (LogLevel, error) {
	if logLevel == "" {
		return LogLevelInfo, nil
	}

	switch LogLevel(logLevel) {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelOff:
		return LogLevel(logLevel), nil
	default:
		return "", fmt.Errorf("%w '%s': supported levels are Trace, Debug, Info, Warning, Off", ErrInvalidLogLevel, logLevel)
	}
}

// getLogStyles returns charm styles with a label and color for every level,
// including the custom Trace level.
func getLogStyles() *charm.Styles {
	styles := charm.DefaultStyles()

	styles.Levels[TraceLevel] = lipgloss.NewStyle().
		SetString("TRCE").
		Bold(true).
		MaxWidth(4).
		Foreground(lipgloss.Color("63"))
	styles.Levels[charm.DebugLevel] = lipgloss.NewStyle().
		SetString("DEBU").
		Bold(true).
		MaxWidth(4).
		Foreground(lipgloss.Color("33"))
	styles.Levels[charm.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO").
		Bold(true).
		MaxWidth(4).
		Foreground(lipgloss.Color("86"))
	styles.Levels[charm.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN").
		Bold(true).
		MaxWidth(4).
		Foreground(lipgloss.Color("192"))
	styles.Levels[charm.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERRO").
		Bold(true).
		MaxWidth(4).
		Foreground(lipgloss.Color("204"))

	styles.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	styles.Values["err"] = lipgloss.NewStyle().Bold(true)
	styles.Keys["path"] = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	return styles
}
