package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	advErrors "github.com/salijona/C-AdvDGM/pkg/errors"
)

// ZerologProvider is the default LoggerProvider, backed by zerolog.
type ZerologProvider struct {
	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewZerologProvider creates a provider writing JSON lines to w.
func NewZerologProvider(w io.Writer) *ZerologProvider {
	return &ZerologProvider{
		logger: zerolog.New(w).With().Timestamp().Logger(),
	}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{logger: p.logger}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{logger: p.logger.With().Str(ComponentKey, name).Logger()}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = p.logger.Level(toZerologLevel(level))
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

type zerologLogger struct {
	logger zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) { l.emit(l.logger.Debug(), msg, fields) }
func (l *zerologLogger) Info(msg string, fields ...any)  { l.emit(l.logger.Info(), msg, fields) }
func (l *zerologLogger) Warn(msg string, fields ...any)  { l.emit(l.logger.Warn(), msg, fields) }
func (l *zerologLogger) Error(msg string, fields ...any) { l.emit(l.logger.Error(), msg, fields) }

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.logger.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{logger: ctx.Logger()}
}

func (l *zerologLogger) emit(event *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		switch v := fields[i+1].(type) {
		case error:
			event = event.AnErr(key, v)
		case zerolog.LogObjectMarshaler:
			event = event.Object(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	event.Msg(msg)
}

// ===========================================================================
//
//	Default provider
//
// ===========================================================================

var (
	defaultMu       sync.RWMutex
	defaultProvider LoggerProvider = NewZerologProvider(os.Stderr)
)

// SetProvider replaces the package-level provider. Pass a TestLoggerProvider
// in tests to capture output.
func SetProvider(p LoggerProvider) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultProvider = p
}

// GetLogger returns the default logger.
func GetLogger() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultProvider.GetLogger()
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultProvider.GetLoggerWithName(name)
}

// Warnings raised through pkg/errors flow into the structured log. Error
// types implementing zerolog.LogObjectMarshaler keep their fields.
func init() {
	advErrors.SetZerologWarnFunc(func(warning error) {
		GetLogger().Warn("warning raised", "warning", warning)
	})
}
