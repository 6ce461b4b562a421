package collectx

import (
	"context"
	"sync"
)

// MemoryAdapter keeps collections in process memory. It is a legacy kind:
// teardown does nothing and its registry entries are never released.
type MemoryAdapter struct {
	registry *Registry
}

// MemoryStore is the per-connection state of a memory adapter.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]map[string]any
}

// Collections returns the identities held by the store.
func (s *MemoryStore) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.records))
	for id := range s.records {
		out = append(out, id)
	}
	return out
}

// NewMemoryAdapter creates a memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{registry: NewRegistry()}
}

// Identity returns "memory".
func (a *MemoryAdapter) Identity() string { return AdapterMemory }

// Registry returns the adapter's connection registry.
func (a *MemoryAdapter) Registry() *Registry { return a.registry }

// RegisterConnection allocates an empty store per collection.
func (a *MemoryAdapter) RegisterConnection(ctx context.Context, conn ConnectionConfig, collections []Definition) error {
	store := &MemoryStore{records: make(map[string][]map[string]any, len(collections))}
	for _, def := range collections {
		store.records[def.Identity] = nil
	}
	a.registry.Add(conn.Name, store)
	return nil
}

// Ping always succeeds.
func (a *MemoryAdapter) Ping(ctx context.Context, connection string) error { return nil }

// Teardown does nothing.
func (a *MemoryAdapter) Teardown(ctx context.Context, connection string) error { return nil }

// NoopAdapter accepts any connection and stores nothing. It is a legacy kind.
type NoopAdapter struct {
	registry *Registry
}

// NewNoopAdapter creates a noop adapter.
func NewNoopAdapter() *NoopAdapter {
	return &NoopAdapter{registry: NewRegistry()}
}

// Identity returns "noop".
func (a *NoopAdapter) Identity() string { return AdapterNoop }

// Registry returns the adapter's connection registry.
func (a *NoopAdapter) Registry() *Registry { return a.registry }

// RegisterConnection records the connection name.
func (a *NoopAdapter) RegisterConnection(ctx context.Context, conn ConnectionConfig, collections []Definition) error {
	a.registry.Add(conn.Name, struct{}{})
	return nil
}

// Ping always succeeds.
func (a *NoopAdapter) Ping(ctx context.Context, connection string) error { return nil }

// Teardown does nothing.
func (a *NoopAdapter) Teardown(ctx context.Context, connection string) error { return nil }
