package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger provides leveled key-value logging for the worker. Services receive
// a *Logger explicitly rather than reaching for package-level state.
type Logger struct {
	prefix string
	debug  bool
	logger *log.Logger
}

// NewLogger creates a new logger with a component prefix. Debug output is
// enabled when LOG_LEVEL=debug is set in the environment.
func NewLogger(prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		debug:  strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug"),
		logger: log.New(os.Stdout, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// Named returns a child logger whose prefix extends the parent's.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		prefix: l.prefix + "." + name,
		debug:  l.debug,
		logger: log.New(os.Stdout, fmt.Sprintf("[%s.%s] ", l.prefix, name), log.LstdFlags),
	}
}

// Info logs an informational message with key-value pairs.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV("INFO", msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV("WARN", msg, keysAndValues...)
}

// Error logs an error message with key-value pairs.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV("ERROR", msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs. No-op unless debug
// logging is enabled.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	if !l.debug {
		return
	}
	l.logWithKV("DEBUG", msg, keysAndValues...)
}

func (l *Logger) logWithKV(level, msg string, keysAndValues ...interface{}) {
	var b strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	l.logger.Printf("[%s] %s%s", level, msg, b.String())
}
