// Package configx provides unified configuration loading and struct binding.
//
// Overview:
//   - Responsibility: Merge configuration from env and files, bind and validate structs
//   - Key Types: Source interface, Manager interface, Options for configuration
//   - Concurrency Model: Manager is safe for concurrent use, sources must be thread-safe
//   - Error Semantics: Functions return errors for load, binding and validation failures
//   - Performance Notes: Sources are read once per Load; reads are served from a snapshot
//
// Usage:
//
//	manager, err := configx.NewManager(ctx, configx.Options{
//	  Logger: logger,
//	  Sources: []configx.Source{
//	    configx.NewFileSource("eggdata.yaml", configx.FileOptions{Optional: true}),
//	    configx.NewEnvSource(configx.EnvOptions{Prefix: "EGGDATA_"}),
//	  },
//	})
//	var settings ormx.Settings
//	err = manager.Bind(&settings)
package configx

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"go.eggybyte.com/eggdata/configx/internal"
	"go.eggybyte.com/eggdata/core/log"
)

// Source describes a configuration source producing a flat key-value snapshot.
// Implementations must be thread-safe and honor context cancellation.
type Source interface {
	// Load reads the current configuration snapshot.
	Load(ctx context.Context) (map[string]string, error)
}

// Manager manages multiple configuration sources and provides unified access.
// The manager merges configurations with later sources taking precedence.
type Manager interface {
	// Snapshot returns a copy of the current merged configuration.
	Snapshot() map[string]string

	// Value returns the value for a key and whether it exists.
	Value(key string) (string, bool)

	// Bind decodes the configuration into a struct with env tags and default
	// values, then validates it with `validate` tags.
	Bind(target any, opts ...BindOption) error

	// Reload reads every source again.
	Reload(ctx context.Context) error
}

// Options holds configuration for the manager.
type Options struct {
	Logger    log.Logger          // Logger for configuration operations
	Sources   []Source            // Configuration sources (later sources override earlier ones)
	Validator *validator.Validate // Validator for Bind (default: NewValidator())
}

// BindOption configures binding behavior.
type BindOption func(*internal.BindConfig)

// WithoutValidation skips struct validation after binding.
func WithoutValidation() BindOption {
	return func(cfg *internal.BindConfig) {
		cfg.SkipValidation = true
	}
}

// manager wraps the internal manager implementation.
type manager struct {
	impl *internal.ManagerImpl
}

// NewManager creates a configuration manager and performs the initial load.
//
// Parameters:
//   - ctx: context for the initial load
//   - opts: manager configuration options
//
// Returns:
//   - Manager: initialized manager instance
//   - error: initialization error if any
func NewManager(ctx context.Context, opts Options) (Manager, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if len(opts.Sources) == 0 {
		return nil, fmt.Errorf("at least one source is required")
	}

	internalSources := make([]internal.Source, len(opts.Sources))
	for i, src := range opts.Sources {
		internalSources[i] = src
	}

	v := opts.Validator
	if v == nil {
		v = NewValidator()
	}

	impl, err := internal.NewManager(opts.Logger, internalSources, func(target any) error {
		return ValidateStruct(v, target)
	})
	if err != nil {
		return nil, err
	}

	if err := impl.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load initial configuration: %w", err)
	}

	return &manager{impl: impl}, nil
}

func (m *manager) Snapshot() map[string]string {
	return m.impl.Snapshot()
}

func (m *manager) Value(key string) (string, bool) {
	return m.impl.Value(key)
}

func (m *manager) Bind(target any, opts ...BindOption) error {
	var cfg internal.BindConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return m.impl.Bind(target, cfg)
}

func (m *manager) Reload(ctx context.Context) error {
	return m.impl.Load(ctx)
}

// EnvOptions configures environment variable source behavior.
type EnvOptions struct {
	Prefix    string // Only variables with this prefix are read; the prefix is stripped
	Lowercase bool
	Uppercase bool
}

// FileOptions configures file source behavior.
type FileOptions struct {
	Format   string // "yaml" or "json"; detected from the extension when empty
	Optional bool   // A missing file yields an empty snapshot
}

// NewEnvSource creates an environment variable configuration source.
func NewEnvSource(opts EnvOptions) Source {
	return internal.NewEnvSource(internal.EnvOptions{
		Prefix:    opts.Prefix,
		Lowercase: opts.Lowercase,
		Uppercase: opts.Uppercase,
	})
}

// NewFileSource creates a YAML or JSON file configuration source.
// Nested keys are flattened to UPPER_SNAKE form.
func NewFileSource(path string, opts FileOptions) Source {
	return internal.NewFileSource(path, internal.FileOptions{
		Format:   opts.Format,
		Optional: opts.Optional,
	})
}

// NewMapSource creates a source serving a fixed snapshot.
func NewMapSource(values map[string]string) Source {
	return internal.MapSource(values)
}
