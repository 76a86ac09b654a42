package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields carries structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

var (
	baseMu sync.RWMutex
	base   = newBase("info", false)
)

func newBase(level string, development bool) *zap.Logger {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Configure replaces the process-wide base logger. Loggers created before the
// call keep their previous core.
func Configure(level string, development bool) {
	baseMu.Lock()
	defer baseMu.Unlock()
	base = newBase(level, development)
}

// SetBase installs an already built zap logger, mostly for tests.
func SetBase(l *zap.Logger) {
	baseMu.Lock()
	defer baseMu.Unlock()
	base = l
}

func current() *zap.Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()
	return base
}

// Logger is a named structured logger.
type Logger struct {
	z *zap.Logger
}

// NewLogger creates a logger tagged with the given component name.
func NewLogger(component string) *Logger {
	return &Logger{z: current().Named(component)}
}

func (l *Logger) zapFields(fields []Fields) []zap.Field {
	var out []zap.Field
	for _, f := range fields {
		for k, v := range f {
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}

func (l *Logger) Debug(msg string, fields ...Fields) {
	l.z.Debug(msg, l.zapFields(fields)...)
}

func (l *Logger) Info(msg string, fields ...Fields) {
	l.z.Info(msg, l.zapFields(fields)...)
}

func (l *Logger) Warn(msg string, fields ...Fields) {
	l.z.Warn(msg, l.zapFields(fields)...)
}

func (l *Logger) Error(msg string, fields ...Fields) {
	l.z.Error(msg, l.zapFields(fields)...)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...Fields) {
	l.z.Fatal(msg, l.zapFields(fields)...)
}

// With returns a child logger that always carries the given fields.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{z: l.z.With(l.zapFields([]Fields{fields})...)}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

// Info logs on the base logger without a component name.
func Info(msg string, fields ...Fields) {
	(&Logger{z: current()}).Info(msg, fields...)
}

// Infof logs a formatted message on the base logger.
func Infof(format string, args ...interface{}) {
	current().Info(fmt.Sprintf(format, args...))
}
