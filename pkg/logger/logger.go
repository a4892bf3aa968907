// Package logger provides the logging interface shared by every buttonpad
// component. It supports console output, level filtering, fan-out to several
// backends and the Windows Event Log.
package logger

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// Logger defines the interface for logging across all buttonpad components.
// Implementations may log to the console, files or the Windows Event Log.
type Logger interface {
	// Info logs an informational message (e.g., "click on menu").
	Info(format string, args ...interface{})

	// Warning logs a warning message (e.g., "release of unknown button").
	Warning(format string, args ...interface{})

	// Error logs an error message (e.g., "task panicked: index out of range").
	Error(format string, args ...interface{})

	// Close releases resources held by the logger (e.g., Windows Event Log handle).
	// Safe to call multiple times. Returns nil for loggers without resources.
	Close() error
}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

// StandardLogger wraps the stdlib *log.Logger for console/file output.
type StandardLogger struct {
	logger *log.Logger
}

// NewStandardLogger creates a logger that wraps the given *log.Logger.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// Info logs an informational message with [INFO] prefix.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.logger.Printf("[INFO] "+format, args...)
}

// Warning logs a warning message with [WARNING] prefix.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.logger.Printf("[WARNING] "+format, args...)
}

// Error logs an error message with [ERROR] prefix.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}

// Close is a no-op for StandardLogger (no resources to release).
func (s *StandardLogger) Close() error {
	return nil
}

// Level is the minimum severity a LeveledLogger lets through.
type Level uint8

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// ParseLevel maps "info", "warning"/"warn" and "error" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "INVALID"
	}
}

// LeveledLogger drops messages below its level before handing them to the
// wrapped logger.
type LeveledLogger struct {
	next  Logger
	level Level
}

// NewLeveledLogger wraps next so that only messages at or above level pass.
func NewLeveledLogger(next Logger, level Level) *LeveledLogger {
	return &LeveledLogger{next: next, level: level}
}

func (l *LeveledLogger) Info(format string, args ...interface{}) {
	if l.level <= LevelInfo {
		l.next.Info(format, args...)
	}
}

func (l *LeveledLogger) Warning(format string, args ...interface{}) {
	if l.level <= LevelWarning {
		l.next.Warning(format, args...)
	}
}

func (l *LeveledLogger) Error(format string, args ...interface{}) {
	l.next.Error(format, args...)
}

func (l *LeveledLogger) Close() error {
	return l.next.Close()
}

// NopLogger is a logger that discards all messages.
// Useful for testing or when logging should be disabled.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

// Info discards the message.
func (n *NopLogger) Info(format string, args ...interface{}) {}

// Warning discards the message.
func (n *NopLogger) Warning(format string, args ...interface{}) {}

// Error discards the message.
func (n *NopLogger) Error(format string, args ...interface{}) {}

// Close is a no-op.
func (n *NopLogger) Close() error {
	return nil
}

// stdAdapter exposes a Logger through the Println-style API some libraries
// expect.
type stdAdapter struct {
	l Logger
}

// ToStdLogger returns a *log.Logger whose output is forwarded to l at info
// level, one message per write.
func ToStdLogger(l Logger) *log.Logger {
	return log.New(stdAdapter{l: OrNop(l)}, "", 0)
}

func (a stdAdapter) Write(p []byte) (int, error) {
	a.l.Info("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Ensure implementations satisfy the Logger interface.
var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*LeveledLogger)(nil)
	_ Logger = (*NopLogger)(nil)
)

// MockLogger implements Logger for testing purposes.
// It records all log calls for verification in tests. Calls may arrive from
// the scheduler goroutine, so access goes through a mutex; use the accessor
// methods when reading while other goroutines may still log.
type MockLogger struct {
	mu           sync.Mutex
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
	CloseCalled  bool
}

// NewMockLogger creates a new MockLogger for testing.
func NewMockLogger() *MockLogger {
	return &MockLogger{
		InfoCalls:    make([]string, 0),
		WarningCalls: make([]string, 0),
		ErrorCalls:   make([]string, 0),
	}
}

// Info records the formatted message.
func (m *MockLogger) Info(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InfoCalls = append(m.InfoCalls, fmt.Sprintf(format, args...))
}

// Warning records the formatted message.
func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WarningCalls = append(m.WarningCalls, fmt.Sprintf(format, args...))
}

// Error records the formatted message.
func (m *MockLogger) Error(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCalls = append(m.ErrorCalls, fmt.Sprintf(format, args...))
}

// Close records that Close was called.
func (m *MockLogger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return nil
}

// Infos returns a copy of the recorded info messages.
func (m *MockLogger) Infos() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.InfoCalls...)
}

// Warnings returns a copy of the recorded warning messages.
func (m *MockLogger) Warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.WarningCalls...)
}

// Errors returns a copy of the recorded error messages.
func (m *MockLogger) Errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ErrorCalls...)
}

// Ensure MockLogger satisfies the Logger interface.
var _ Logger = (*MockLogger)(nil)
