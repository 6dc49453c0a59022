package logger

import (
	"sync"

	"github.com/hesphoros/lumberhouse/corelog"
	"github.com/hesphoros/lumberhouse/output"
)

var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
)

func init() {
	l, err := NewBuilder().
		WithLevel(corelog.Info).
		AddSink(output.NewConsoleSink(output.ConsoleConfig{SplitStreams: true})).
		Build()
	if err != nil {
		panic(err)
	}
	defaultLogger = l
}

// Default returns the package-level default logger: console-only, Info
// level, stdout/stderr split by level.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Package-level convenience functions delegating to Default().

func Trace(tag, msg string, fields ...corelog.Field) { Default().Trace(tag, msg, fields...) }
func Debug(tag, msg string, fields ...corelog.Field) { Default().Debug(tag, msg, fields...) }
func Info(tag, msg string, fields ...corelog.Field)  { Default().Info(tag, msg, fields...) }
func Notice(tag, msg string, fields ...corelog.Field) {
	Default().Notice(tag, msg, fields...)
}
func Warn(tag, msg string, fields ...corelog.Field)  { Default().Warn(tag, msg, fields...) }
func Error(tag, msg string, fields ...corelog.Field) { Default().Error(tag, msg, fields...) }
func Critical(tag, msg string, fields ...corelog.Field) {
	Default().Critical(tag, msg, fields...)
}
func Alert(tag, msg string, fields ...corelog.Field) { Default().Alert(tag, msg, fields...) }
func Emergency(tag, msg string, fields ...corelog.Field) {
	Default().Emergency(tag, msg, fields...)
}
func Fatal(tag, msg string, fields ...corelog.Field) { Default().Fatal(tag, msg, fields...) }

// With creates a child of the default logger with additional default
// fields.
func With(fields ...corelog.Field) *Logger { return Default().With(fields...) }
