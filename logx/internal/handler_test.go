package internal

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestKVToAttrs(t *testing.T) {
	tests := []struct {
		name string
		kv   []any
		want []string
	}{
		{name: "pairs", kv: []any{"a", 1, "b", "x"}, want: []string{"a", "b"}},
		{name: "helper pairs", kv: []any{[]any{"a", 1}, []any{"b", 2}}, want: []string{"a", "b"}},
		{name: "mixed", kv: []any{[]any{"a", 1}, "b", 2}, want: []string{"a", "b"}},
		{name: "odd trailing key dropped", kv: []any{"a", 1, "b"}, want: []string{"a"}},
		{name: "empty", kv: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := KVToAttrs(tt.kv)
			if len(attrs) != len(tt.want) {
				t.Fatalf("KVToAttrs() len = %d, want %d", len(attrs), len(tt.want))
			}
			for i, key := range tt.want {
				if attrs[i].Key != key {
					t.Errorf("KVToAttrs()[%d].Key = %q, want %q", i, attrs[i].Key, key)
				}
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	opts := Options{SensitiveFields: []string{"password"}, PayloadMaxBytes: 5}

	tests := []struct {
		name  string
		key   string
		value slog.Value
		want  string
	}{
		{name: "string", key: "k", value: slog.StringValue("abc"), want: `"abc"`},
		{name: "int", key: "k", value: slog.IntValue(42), want: "42"},
		{name: "bool", key: "k", value: slog.BoolValue(true), want: "true"},
		{name: "float", key: "k", value: slog.Float64Value(1.5), want: "1.5"},
		{name: "duration in ms", key: "k", value: slog.DurationValue(2 * time.Second), want: "2000"},
		{name: "sensitive", key: "PASSWORD", value: slog.StringValue("x"), want: `"***REDACTED***"`},
		{name: "truncated", key: "k", value: slog.StringValue("abcdefgh"), want: `"abcde...(truncated, 8 bytes)"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.key, tt.value, opts); got != tt.want {
				t.Errorf("FormatValue() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(Options{Level: slog.LevelWarn, DisableTimestamp: true}, &buf)

	h.LogRecord(slog.LevelInfo, "dropped", nil)
	h.LogRecord(slog.LevelError, "kept", nil)

	if strings.Contains(buf.String(), "dropped") {
		t.Errorf("info record should be filtered: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `msg="kept"`) {
		t.Errorf("error record missing: %s", buf.String())
	}
}

func TestSlogIntegration(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(Options{Level: slog.LevelDebug, DisableTimestamp: true}, &buf)

	logger := slog.New(h).With("component", "storex").WithGroup("pool")
	logger.Info("stats", "open", 3)

	output := buf.String()
	if !strings.Contains(output, `component="storex"`) {
		t.Errorf("expected component attr, got: %s", output)
	}
	if !strings.Contains(output, "pool.open=3") {
		t.Errorf("expected grouped attr, got: %s", output)
	}
}

func TestColorizeLevel(t *testing.T) {
	for _, level := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
		if got := ColorizeLevel(level); !strings.Contains(got, level) || !strings.HasPrefix(got, "\033[") {
			t.Errorf("ColorizeLevel(%s) = %q", level, got)
		}
	}
	if got := ColorizeLevel("OTHER"); got != "OTHER" {
		t.Errorf("ColorizeLevel(OTHER) = %q, want OTHER", got)
	}
}
