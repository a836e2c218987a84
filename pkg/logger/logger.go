// Package logger provides component-tagged structured logging for the whole
// process. Every line carries a component label so log streams from the
// engine, channels, web surface and heartbeat stay separable.
package logger

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// Level mirrors slog levels under shorter names.
type Level = slog.Level

const (
	DEBUG Level = slog.LevelDebug
	INFO  Level = slog.LevelInfo
	WARN  Level = slog.LevelWarn
	ERROR Level = slog.LevelError
)

var (
	levelVar = &slog.LevelVar{}
	current  atomic.Pointer[slog.Logger]
)

func init() {
	levelVar.Set(INFO)
	current.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar})))
}

// SetLevel changes the minimum emitted level at runtime.
func SetLevel(l Level) {
	levelVar.Set(l)
}

// SetJSON switches output to JSON lines, for running under a collector.
func SetJSON() {
	current.Store(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar})))
}

func log(level Level, component, msg string, fields map[string]interface{}) {
	attrs := make([]any, 0, 2+2*len(fields))
	attrs = append(attrs, "component", component)
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}
	current.Load().Log(context.Background(), level, msg, attrs...)
}

// DebugC logs a debug message for a component.
func DebugC(component, msg string) { log(DEBUG, component, msg, nil) }

// DebugCF logs a debug message with structured fields.
func DebugCF(component, msg string, fields map[string]interface{}) { log(DEBUG, component, msg, fields) }

// InfoC logs an info message for a component.
func InfoC(component, msg string) { log(INFO, component, msg, nil) }

// InfoCF logs an info message with structured fields.
func InfoCF(component, msg string, fields map[string]interface{}) { log(INFO, component, msg, fields) }

// WarnC logs a warning for a component.
func WarnC(component, msg string) { log(WARN, component, msg, nil) }

// WarnCF logs a warning with structured fields.
func WarnCF(component, msg string, fields map[string]interface{}) { log(WARN, component, msg, fields) }

// ErrorC logs an error for a component.
func ErrorC(component, msg string) { log(ERROR, component, msg, nil) }

// ErrorCF logs an error with structured fields.
func ErrorCF(component, msg string, fields map[string]interface{}) { log(ERROR, component, msg, fields) }
