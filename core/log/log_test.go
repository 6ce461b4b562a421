package log

import (
	"errors"
	"testing"
	"time"
)

func TestPairHelpers(t *testing.T) {
	tests := []struct {
		name  string
		pair  any
		key   string
		value any
	}{
		{"Str", Str("key", "value"), "key", "value"},
		{"Int", Int("count", 42), "count", 42},
		{"Dur", Dur("latency", 5 * time.Second), "latency", 5 * time.Second},
		{"Bool", Bool("skip", true), "skip", true},
		{"Strs", Strs("models", []string{"user", "order"}), "models", "user,order"},
		{"StrsEmpty", Strs("models", nil), "models", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slice, ok := tt.pair.([]any)
			if !ok {
				t.Fatalf("%s should return []any, got %T", tt.name, tt.pair)
			}
			if len(slice) != 2 {
				t.Fatalf("%s should return slice with 2 elements, got %d", tt.name, len(slice))
			}
			if slice[0] != tt.key || slice[1] != tt.value {
				t.Errorf("%s = %v, want [%v %v]", tt.name, slice, tt.key, tt.value)
			}
		})
	}
}

func TestNop(t *testing.T) {
	logger := Nop()

	// Must not panic and must keep returning a usable logger.
	logger.Debug("debug")
	logger.Info("info", Str("k", "v"))
	logger.Warn("warn")
	logger.Error(errors.New("boom"), "error")

	if logger.With("k", "v") == nil {
		t.Fatal("With() on nop logger should return non-nil logger")
	}
}
