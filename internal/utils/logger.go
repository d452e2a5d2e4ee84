package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger writes leveled diagnostics to stderr. Debug lines only appear in
// verbose mode; command output itself never goes through the logger.
type Logger struct {
	mu      sync.RWMutex
	verbose bool
	out     io.Writer
}

var (
	loggerInstance *Logger
	once           sync.Once
)

// GetLogger returns the singleton logger instance.
func GetLogger() *Logger {
	once.Do(func() {
		loggerInstance = &Logger{out: os.Stderr}
	})
	return loggerInstance
}

// SetVerboseMode toggles verbose mode on the global logger.
func SetVerboseMode(verbose bool) {
	GetLogger().SetVerbose(verbose)
}

// SetVerbose toggles verbose mode for this logger instance.
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
}

// IsVerbose reports whether verbose mode is enabled.
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// SetOutput redirects the logger, which tests use to capture diagnostics.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

func (l *Logger) write(level, format string, args ...interface{}) {
	l.mu.RLock()
	out := l.out
	l.mu.RUnlock()
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	fmt.Fprintf(out, "%s %s\n", level, msg)
}

// Debug logs a debug line, only in verbose mode. Debug lines carry a
// timestamp so store and sync timing can be read off the output.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.IsVerbose() {
		return
	}
	l.write(time.Now().Format("15:04:05")+" [DEBUG]", format, args...)
}

// Info logs an informational line.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write("[INFO]", format, args...)
}

// Warn logs a warning line.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write("[WARN]", format, args...)
}

// Error logs an error line.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write("[ERROR]", format, args...)
}

// Debugf logs a debug line on the global logger.
func Debugf(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

// Infof logs an info line on the global logger.
func Infof(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

// Warnf logs a warning line on the global logger.
func Warnf(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

// Errorf logs an error line on the global logger.
func Errorf(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}
