// Package log provides structured logging for the transformer framework and
// the model registry. It defines a minimal slog-compatible Logger interface
// backed by zerolog, standard attribute keys for data-preparation workloads,
// and capture helpers for tests.
package log

// Logger is a structured logging interface compatible with log/slog key-value
// pairs. Fields are alternating key-value arguments:
//
//	logger.Info("transform finished",
//	    log.TransformerNameKey, "cluster_based_normalizer",
//	    log.RowsKey, 1000,
//	)
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs potentially problematic situations that do not stop
	// execution, e.g. output column collisions.
	Warn(msg string, fields ...any)

	// Error logs failures.
	Error(msg string, fields ...any)

	// With returns a child logger with the given fields pre-populated.
	With(fields ...any) Logger
}

// Level is the minimum severity a logger emits.
type Level int

// Log levels, ordered by increasing severity.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates configured loggers. It exists so that tests can
// inject a capturing implementation.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum level for loggers created by this provider.
	SetLevel(level Level)
}
