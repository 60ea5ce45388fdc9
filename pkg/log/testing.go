package log

import (
	"fmt"
	"strings"
	"sync"
)

// TestLogger captures log records in memory for inspection in tests.
type TestLogger struct {
	mu      *sync.Mutex
	records *[]Record
	level   Level
	fields  []any
}

// Record is one captured log entry.
type Record struct {
	Level   Level
	Message string
	Fields  map[string]any
}

// NewTestLogger creates a TestLogger capturing everything at or above level.
func NewTestLogger(level Level) *TestLogger {
	records := make([]Record, 0, 16)
	return &TestLogger{
		mu:      &sync.Mutex{},
		records: &records,
		level:   level,
	}
}

// Records returns a copy of everything captured so far.
func (t *TestLogger) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Record, len(*t.records))
	copy(out, *t.records)
	return out
}

// Contains reports whether any captured message contains substr.
func (t *TestLogger) Contains(substr string) bool {
	for _, r := range t.Records() {
		if strings.Contains(r.Message, substr) {
			return true
		}
	}
	return false
}

// Debug implements Logger.
func (t *TestLogger) Debug(msg string, fields ...any) { t.capture(LevelDebug, msg, fields) }

// Info implements Logger.
func (t *TestLogger) Info(msg string, fields ...any) { t.capture(LevelInfo, msg, fields) }

// Warn implements Logger.
func (t *TestLogger) Warn(msg string, fields ...any) { t.capture(LevelWarn, msg, fields) }

// Error implements Logger.
func (t *TestLogger) Error(msg string, fields ...any) { t.capture(LevelError, msg, fields) }

// With implements Logger. The child shares the parent's record buffer.
func (t *TestLogger) With(fields ...any) Logger {
	child := *t
	child.fields = append(append([]any{}, t.fields...), fields...)
	return &child
}

func (t *TestLogger) capture(level Level, msg string, fields []any) {
	if level < t.level {
		return
	}
	all := append(append([]any{}, t.fields...), fields...)
	m := make(map[string]any, len(all)/2)
	for i := 0; i+1 < len(all); i += 2 {
		m[fmt.Sprintf("%v", all[i])] = all[i+1]
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	*t.records = append(*t.records, Record{Level: level, Message: msg, Fields: m})
}

// TestLoggerProvider is a LoggerProvider serving a single TestLogger.
type TestLoggerProvider struct {
	Logger *TestLogger
}

// NewTestLoggerProvider creates a provider capturing at the given level.
func NewTestLoggerProvider(level Level) *TestLoggerProvider {
	return &TestLoggerProvider{Logger: NewTestLogger(level)}
}

// GetLogger implements LoggerProvider.
func (p *TestLoggerProvider) GetLogger() Logger { return p.Logger }

// GetLoggerWithName implements LoggerProvider.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.Logger.With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.
func (p *TestLoggerProvider) SetLevel(level Level) { p.Logger.level = level }
