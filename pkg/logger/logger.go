package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LogLevel represents the available log levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Logger wraps slog with component/session helpers and intention tagging
type Logger struct {
	*slog.Logger
}

// ParseLevel maps a LogLevel to its slog level, defaulting to info
func ParseLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a logger writing console output to stderr
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithConsoleWriter(level, os.Stderr)
}

// NewLoggerWithConsoleWriter builds a logger whose console output goes to consoleWriter
// and whose structured output goes to ~/.autoctx/logs/autoctx.log.
func NewLoggerWithConsoleWriter(level LogLevel, consoleWriter io.Writer) *Logger {
	slogLevel := ParseLevel(level)
	if consoleWriter == nil {
		consoleWriter = os.Stderr
	}

	handler := newMultiHandler(
		newPlainHandler(consoleWriter, slogLevel),
		newFileTextHandler(slogLevel),
	)
	return &Logger{Logger: slog.New(handler)}
}

// NewConsoleOnlyLogger builds a logger without the file sink
func NewConsoleOnlyLogger(level LogLevel, consoleWriter io.Writer) *Logger {
	if consoleWriter == nil {
		consoleWriter = io.Discard
	}
	return &Logger{Logger: slog.New(newPlainHandler(consoleWriter, ParseLevel(level)))}
}

// WithComponent tags all records with a component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.With("component", component)}
}

// WithSession tags all records with a session id
func (l *Logger) WithSession(sessionID string) *Logger {
	return &Logger{Logger: l.With("session", sessionID)}
}

// LogWithIntention logs msg at level with the structured key "intention".
func (l *Logger) LogWithIntention(level slog.Level, intention Intention, msg string, args ...any) {
	kv := append([]any{"intention", string(intention)}, args...)
	l.Log(context.Background(), level, msg, kv...)
}

func (l *Logger) InfoWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelInfo, intention, msg, args...)
}

func (l *Logger) DebugWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelDebug, intention, msg, args...)
}

// Warnings and errors do not carry intentions; level handles emphasis
func (l *Logger) WarnWithIntention(_ Intention, msg string, args ...any) {
	l.Warn(msg, args...)
}

func (l *Logger) ErrorWithIntention(_ Intention, msg string, args ...any) {
	l.Error(msg, args...)
}

// Default logger instance shared by component loggers
var Default = NewDefaultLogger()

// NewDefaultLogger creates a logger with INFO level
func NewDefaultLogger() *Logger {
	return NewLogger(LogLevelInfo)
}

// SetGlobalLoggerWithConsoleWriter replaces Default using the provided console writer
func SetGlobalLoggerWithConsoleWriter(level LogLevel, consoleWriter io.Writer) {
	Default = NewLoggerWithConsoleWriter(level, consoleWriter)
}

// SetGlobalLogger replaces Default outright
func SetGlobalLogger(l *Logger) {
	if l != nil {
		Default = l
	}
}

// NewComponentLogger creates a logger for a specific component
func NewComponentLogger(component string) *Logger {
	return Default.WithComponent(component)
}

// newFileTextHandler appends to ~/.autoctx/logs/autoctx.log, falling back to stderr
func newFileTextHandler(level slog.Level) slog.Handler {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".autoctx", "logs")
	_ = os.MkdirAll(base, 0o755)

	f, err := os.OpenFile(filepath.Join(base, "autoctx.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{Key: "time", Value: slog.StringValue(a.Value.Time().Format("15:04:05"))}
			}
			return a
		},
	}
	return slog.NewTextHandler(f, opts)
}
