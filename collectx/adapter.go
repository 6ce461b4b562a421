package collectx

import (
	"context"
	"sort"
	"sync"
)

// Adapter identities shipped with collectx.
const (
	AdapterPostgres = "postgres"
	AdapterSQLite   = "sqlite"
	AdapterRedis    = "redis"
	AdapterMemory   = "memory"
	AdapterNoop     = "noop"
)

// IsLegacy reports whether an adapter identity is one of the no-op kinds
// whose teardown does nothing and whose registry entries are never released.
func IsLegacy(identity string) bool {
	return identity == AdapterMemory || identity == AdapterNoop
}

// Adapter binds collections to one kind of datastore.
// An adapter instance serves every connection of its kind within a container.
type Adapter interface {
	// Identity names the adapter kind, e.g. "postgres".
	Identity() string

	// RegisterConnection opens the connection, records it in the registry
	// and creates the backing structure of every collection bound to it.
	RegisterConnection(ctx context.Context, conn ConnectionConfig, collections []Definition) error

	// Ping checks that the named connection answers.
	Ping(ctx context.Context, connection string) error

	// Teardown releases the resources of the named connection.
	// It does not remove the connection from the registry.
	Teardown(ctx context.Context, connection string) error

	// Registry holds the adapter's live connection handles.
	Registry() *Registry
}

// Registry tracks the live connection handles of one adapter.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]any)}
}

// Add records a handle under the connection name.
func (r *Registry) Add(name string, handle any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[name] = handle
}

// Get returns the handle for a connection name.
func (r *Registry) Get(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[name]
	return h, ok
}

// Has reports whether the connection name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Release removes a connection name and reports whether it was present.
func (r *Registry) Release(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handles[name]
	delete(r.handles, name)
	return ok
}

// Names returns the registered connection names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handles))
	for name := range r.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultAdapters returns fresh instances of every built-in adapter keyed by identity.
func DefaultAdapters() map[string]Adapter {
	adapters := []Adapter{
		NewPostgresAdapter(),
		NewSQLiteAdapter(),
		NewRedisAdapter(),
		NewMemoryAdapter(),
		NewNoopAdapter(),
	}
	out := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		out[a.Identity()] = a
	}
	return out
}
