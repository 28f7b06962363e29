// Package logging provides the structured logger used across padaemon.
package logging

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Level mirrors the handful of severities the daemon actually emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	logger *log.Logger
	once   sync.Once
	mu     sync.RWMutex
)

// Config controls logger initialization.
type Config struct {
	Level      Level
	TimeFormat string
	ShowCaller bool
}

// DefaultConfig returns sensible defaults for daemon use.
func DefaultConfig() *Config {
	return &Config{
		Level:      LevelInfo,
		TimeFormat: "2006-01-02T15:04:05Z07:00",
		ShowCaller: false,
	}
}

// Init initializes the global logger. Safe to call multiple times; only
// the first call takes effect.
func Init(cfg *Config) {
	once.Do(func() {
		if cfg == nil {
			cfg = DefaultConfig()
		}
		l := log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      cfg.TimeFormat,
			ReportCaller:    cfg.ShowCaller,
		})
		switch cfg.Level {
		case LevelDebug:
			l.SetLevel(log.DebugLevel)
		case LevelInfo:
			l.SetLevel(log.InfoLevel)
		case LevelWarn:
			l.SetLevel(log.WarnLevel)
		case LevelError:
			l.SetLevel(log.ErrorLevel)
		}
		mu.Lock()
		logger = l
		mu.Unlock()
	})
}

func ensure() *log.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(nil)
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// redactedKeys are field names whose values are always replaced before a
// record leaves this package, regardless of nesting.
var redactedKeys = map[string]struct{}{
	"botToken":      {},
	"appToken":      {},
	"token":         {},
	"password":      {},
	"secret":        {},
	"apiKey":        {},
	"api_key":       {},
	"authorization": {},
	"Authorization": {},
}

const redactedValue = "[REDACTED]"

// Redact walks a flat key/value slice (as passed to the level helpers
// below) and recursively into any map[string]any values, replacing
// redacted fields.
func Redact(kv ...any) []any {
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		if _, blocked := redactedKeys[key]; blocked {
			out[i+1] = redactedValue
			continue
		}
		if m, ok := out[i+1].(map[string]any); ok {
			out[i+1] = redactMap(m)
		}
	}
	return out
}

func redactMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, blocked := redactedKeys[k]; blocked {
			out[k] = redactedValue
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = redactMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// Debug logs at debug level with redacted structured fields.
func Debug(msg string, kv ...any) { ensure().Debug(msg, Redact(kv...)...) }

// Info logs at info level with redacted structured fields.
func Info(msg string, kv ...any) { ensure().Info(msg, Redact(kv...)...) }

// Warn logs at warn level with redacted structured fields.
func Warn(msg string, kv ...any) { ensure().Warn(msg, Redact(kv...)...) }

// Error logs at error level with redacted structured fields.
func Error(msg string, kv ...any) { ensure().Error(msg, Redact(kv...)...) }

// Fatal logs at error level then exits the process with status 1.
func Fatal(msg string, kv ...any) {
	ensure().Error(msg, Redact(kv...)...)
	os.Exit(1)
}
