// Package testingx provides testing utilities for eggdata.
//
// Overview:
//   - Responsibility: Testing helpers, mocks, and backend fixtures
//   - Key Types: MockLogger, LogEntry
//   - Concurrency Model: MockLogger is safe for concurrent use
//   - Error Semantics: Test failures via testing.T
//   - Performance Notes: Fixtures are torn down with t.Cleanup
//
// Usage:
//
//	logger := testingx.NewMockLogger(t)
//	mr := testingx.StartRedis(t)
//	dsn := testingx.SQLiteDSN(t)
package testingx

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"go.eggybyte.com/eggdata/core/errors"
	"go.eggybyte.com/eggdata/core/log"
)

// MockLogger records log entries for assertions.
// Loggers derived with With share the parent's entries.
type MockLogger struct {
	t      *testing.T
	sink   *sink
	fields []any
}

type sink struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogEntry represents a single log entry.
type LogEntry struct {
	Level   string
	Message string
	Fields  []any
	Error   error
}

// Field returns the value logged under key, looking through pair helpers.
func (e LogEntry) Field(key string) (any, bool) {
	flat := flatten(e.Fields)
	for i := 0; i+1 < len(flat); i += 2 {
		if fmt.Sprint(flat[i]) == key {
			return flat[i+1], true
		}
	}
	return nil, false
}

func flatten(kv []any) []any {
	out := make([]any, 0, len(kv))
	for _, item := range kv {
		if pair, ok := item.([]any); ok && len(pair) == 2 {
			out = append(out, pair...)
			continue
		}
		out = append(out, item)
	}
	return out
}

// NewMockLogger creates a new mock logger.
func NewMockLogger(t *testing.T) *MockLogger {
	return &MockLogger{t: t, sink: &sink{}}
}

// With returns a logger that records the given fields with every entry.
func (m *MockLogger) With(kv ...any) log.Logger {
	fields := append(append([]any{}, m.fields...), flatten(kv)...)
	return &MockLogger{t: m.t, sink: m.sink, fields: fields}
}

// Debug logs a debug message.
func (m *MockLogger) Debug(msg string, kv ...any) {
	m.log("DEBUG", msg, nil, kv)
}

// Info logs an info message.
func (m *MockLogger) Info(msg string, kv ...any) {
	m.log("INFO", msg, nil, kv)
}

// Warn logs a warning message.
func (m *MockLogger) Warn(msg string, kv ...any) {
	m.log("WARN", msg, nil, kv)
}

// Error logs an error message.
func (m *MockLogger) Error(err error, msg string, kv ...any) {
	m.log("ERROR", msg, err, kv)
}

func (m *MockLogger) log(level, msg string, err error, kv []any) {
	fields := append(append([]any{}, m.fields...), flatten(kv)...)

	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	m.sink.entries = append(m.sink.entries, LogEntry{
		Level:   level,
		Message: msg,
		Fields:  fields,
		Error:   err,
	})
}

// Entries returns all log entries.
func (m *MockLogger) Entries() []LogEntry {
	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	entries := make([]LogEntry, len(m.sink.entries))
	copy(entries, m.sink.entries)
	return entries
}

// Find returns the entries at level whose message contains substr.
func (m *MockLogger) Find(level, substr string) []LogEntry {
	var out []LogEntry
	for _, entry := range m.Entries() {
		if entry.Level == level && strings.Contains(entry.Message, substr) {
			out = append(out, entry)
		}
	}
	return out
}

// AssertLogged asserts that a message was logged.
func (m *MockLogger) AssertLogged(level, msg string) {
	m.t.Helper()
	for _, entry := range m.Entries() {
		if entry.Level == level && entry.Message == msg {
			return
		}
	}
	m.t.Errorf("Expected log message not found: level=%s msg=%q", level, msg)
}

// AssertNotLogged asserts that no entry at level contains substr.
func (m *MockLogger) AssertNotLogged(level, substr string) {
	m.t.Helper()
	if found := m.Find(level, substr); len(found) > 0 {
		m.t.Errorf("Unexpected log message: level=%s msg=%q", level, found[0].Message)
	}
}

// Clear clears all log entries.
func (m *MockLogger) Clear() {
	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	m.sink.entries = nil
}

// AssertError asserts that an error carries the expected code anywhere in its chain.
func AssertError(t *testing.T, err error, expectedCode errors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error with code %s, got nil", expectedCode)
	}

	if !errors.HasCode(err, expectedCode) {
		t.Errorf("Expected error code %s, got %s (%v)", expectedCode, errors.CodeOf(err), err)
	}
}

// AssertNoError asserts that no error occurred.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

// StartRedis starts an in-process Redis server stopped at test cleanup.
func StartRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr
}

// SQLiteDSN returns a DSN for a fresh SQLite file in the test's temp dir.
// A busy timeout lets concurrent migrations queue instead of failing.
func SQLiteDSN(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "eggdata.db") + "?_busy_timeout=5000"
}
