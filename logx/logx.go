// Package logx provides a structured logging implementation based on slog.
//
// Overview:
//   - Responsibility: Unified logging with logfmt/JSON output, field sorting, and colorization
//   - Key Types: Logger implementation, Options for configuration
//   - Concurrency Model: All loggers are safe for concurrent use
//   - Error Semantics: No errors returned; logging failures are silently handled
//   - Performance Notes: Fields are sorted once per record; DSNs and passwords are masked
//
// Usage:
//
//	logger := logx.New(logx.WithFormat(logx.FormatJSON), logx.WithLevelString("debug"))
//	ctx = logx.WithFields(ctx, "run_id", runID)
//	logx.FromContext(ctx, logger).Info("backend started", log.Str("backend", "gorm"))
package logx

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.eggybyte.com/eggdata/core/log"
	"go.eggybyte.com/eggdata/logx/internal"
)

// Format specifies the output format for logs.
type Format string

const (
	// FormatLogfmt outputs logs in logfmt format (key=value pairs).
	FormatLogfmt Format = "logfmt"
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = "json"
)

// DefaultSensitiveFields are masked unless WithSensitiveFields replaces them.
var DefaultSensitiveFields = []string{"password", "dsn", "uri", "url", "token"}

// Options configures the logger behavior.
type Options struct {
	Format           Format     // Output format: logfmt or json
	Level            slog.Level // Minimum log level
	Color            bool       // Enable colorization for level field only
	Writer           io.Writer  // Output writer (default: os.Stderr)
	PayloadMaxBytes  int        // Maximum bytes to log for large payloads (0 = unlimited)
	SensitiveFields  []string   // Field names to mask
	DisableTimestamp bool       // Disable timestamp in output
}

// Logger implements the core/log.Logger interface using slog.
type Logger struct {
	handler *internal.Handler
	attrs   []slog.Attr
}

// New creates a new Logger with the given options.
func New(opts ...Option) log.Logger {
	options := Options{
		Format:           FormatLogfmt,
		Level:            slog.LevelInfo,
		Writer:           os.Stderr,
		SensitiveFields:  DefaultSensitiveFields,
		DisableTimestamp: true, // Container already adds timestamp
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Writer == nil {
		options.Writer = os.Stderr
	}

	handler := internal.NewHandler(internal.Options{
		Format:           string(options.Format),
		Level:            options.Level,
		Color:            options.Color,
		PayloadMaxBytes:  options.PayloadMaxBytes,
		SensitiveFields:  options.SensitiveFields,
		DisableTimestamp: options.DisableTimestamp,
	}, options.Writer)

	return &Logger{
		handler: handler,
	}
}

// Option configures logger behavior.
type Option func(*Options)

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(o *Options) {
		o.Level = level
	}
}

// WithLevelString sets the minimum log level from its name.
// Unknown names leave the level at info.
func WithLevelString(level string) Option {
	return func(o *Options) {
		switch strings.ToLower(level) {
		case "debug":
			o.Level = slog.LevelDebug
		case "warn", "warning":
			o.Level = slog.LevelWarn
		case "error":
			o.Level = slog.LevelError
		default:
			o.Level = slog.LevelInfo
		}
	}
}

// WithColor enables colorization for the level field only.
func WithColor(enabled bool) Option {
	return func(o *Options) {
		o.Color = enabled
	}
}

// WithWriter sets the output writer.
func WithWriter(w io.Writer) Option {
	return func(o *Options) {
		o.Writer = w
	}
}

// WithPayloadLimit sets the maximum bytes to log for large payloads.
func WithPayloadLimit(maxBytes int) Option {
	return func(o *Options) {
		o.PayloadMaxBytes = maxBytes
	}
}

// WithSensitiveFields sets field names to mask in logs.
func WithSensitiveFields(fields ...string) Option {
	return func(o *Options) {
		o.SensitiveFields = fields
	}
}

// WithTimestamp enables the time field.
func WithTimestamp() Option {
	return func(o *Options) {
		o.DisableTimestamp = false
	}
}

// With returns a new Logger with the given key-value pairs attached.
func (l *Logger) With(kv ...any) log.Logger {
	attrs := internal.KVToAttrs(kv)
	newAttrs := append([]slog.Attr{}, l.attrs...)
	newAttrs = append(newAttrs, attrs...)

	return &Logger{
		handler: l.handler,
		attrs:   newAttrs,
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, kv ...any) {
	l.log(slog.LevelDebug, msg, kv...)
}

// Info logs an informational message.
func (l *Logger) Info(msg string, kv ...any) {
	l.log(slog.LevelInfo, msg, kv...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, kv ...any) {
	l.log(slog.LevelWarn, msg, kv...)
}

// Error logs an error message.
func (l *Logger) Error(err error, msg string, kv ...any) {
	attrs := internal.KVToAttrs(kv)
	if err != nil {
		attrs = append([]slog.Attr{slog.String("error", err.Error())}, attrs...)
	}
	l.logWithAttrs(slog.LevelError, msg, attrs)
}

func (l *Logger) log(level slog.Level, msg string, kv ...any) {
	l.logWithAttrs(level, msg, internal.KVToAttrs(kv))
}

func (l *Logger) logWithAttrs(level slog.Level, msg string, attrs []slog.Attr) {
	allAttrs := append([]slog.Attr{}, l.attrs...)
	allAttrs = append(allAttrs, attrs...)

	l.handler.LogRecord(level, msg, allAttrs)
}

type fieldsKey struct{}

// WithFields returns a context carrying key-value pairs that FromContext
// attaches to a logger. Fields accumulate across calls.
func WithFields(ctx context.Context, kv ...any) context.Context {
	existing, _ := ctx.Value(fieldsKey{}).([]any)
	fields := append(append([]any{}, existing...), kv...)
	return context.WithValue(ctx, fieldsKey{}, fields)
}

// FromContext returns base with the context-carried fields attached.
func FromContext(ctx context.Context, base log.Logger) log.Logger {
	if ctx == nil {
		return base
	}
	if fields, ok := ctx.Value(fieldsKey{}).([]any); ok && len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}
