// Package internal provides internal implementation for the configx package.
package internal

import (
	"context"
	"fmt"
	"sync"

	"go.eggybyte.com/eggdata/core/log"
)

// ManagerImpl merges configuration sources into one snapshot.
type ManagerImpl struct {
	logger   log.Logger
	sources  []Source
	validate func(any) error
	snapshot map[string]string
	mu       sync.RWMutex
}

// BindConfig holds bind configuration options.
type BindConfig struct {
	SkipValidation bool
}

// NewManager creates a new configuration manager.
// A nil validate skips validation on Bind.
func NewManager(logger log.Logger, sources []Source, validate func(any) error) (*ManagerImpl, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("at least one source is required")
	}

	return &ManagerImpl{
		logger:   logger,
		sources:  sources,
		validate: validate,
		snapshot: make(map[string]string),
	}, nil
}

// Load reads every source and merges them, later sources taking precedence.
// Empty values never override a value set by an earlier source.
func (m *ManagerImpl) Load(ctx context.Context) error {
	merged := make(map[string]string)

	for i, source := range m.sources {
		snapshot, err := source.Load(ctx)
		if err != nil {
			return fmt.Errorf("source %d load failed: %w", i, err)
		}

		for k, v := range snapshot {
			if v != "" {
				merged[k] = v
			}
		}
	}

	m.mu.Lock()
	m.snapshot = merged
	m.mu.Unlock()

	m.logger.Debug("configuration loaded", log.Int("keys", len(merged)), log.Int("sources", len(m.sources)))
	return nil
}

// Snapshot returns a copy of the current configuration.
func (m *ManagerImpl) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[string]string, len(m.snapshot))
	for k, v := range m.snapshot {
		snapshot[k] = v
	}
	return snapshot
}

// Value returns the value for a key and whether it exists.
func (m *ManagerImpl) Value(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.snapshot[key]
	return value, exists
}

// Bind decodes the configuration into a struct and validates it.
func (m *ManagerImpl) Bind(target any, cfg BindConfig) error {
	if target == nil {
		return fmt.Errorf("target cannot be nil")
	}

	if err := BindToStruct(m.Snapshot(), target); err != nil {
		return err
	}

	if cfg.SkipValidation || m.validate == nil {
		return nil
	}
	return m.validate(target)
}
