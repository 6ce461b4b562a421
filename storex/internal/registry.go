// Package internal provides internal implementation details for storex.
package internal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultPingTimeout bounds Registry.Ping when the context has no deadline.
const DefaultPingTimeout = 5 * time.Second

// Store defines the interface for storage backends.
type Store interface {
	Ping(ctx context.Context) error
	Close() error
}

// Registry manages multiple storage connections and their health.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]Store
}

// NewRegistry creates a new storage registry.
func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[string]Store),
	}
}

// Register registers a storage backend with the given name.
func (r *Registry) Register(name string, store Store) error {
	if name == "" {
		return fmt.Errorf("store name is required")
	}
	if store == nil {
		return fmt.Errorf("store cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[name]; exists {
		return fmt.Errorf("store %s already registered", name)
	}

	r.stores[name] = store
	return nil
}

// Unregister removes a storage backend from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[name]; !exists {
		return fmt.Errorf("store %s not found", name)
	}

	delete(r.stores, name)
	return nil
}

// Ping performs health checks on all registered stores in name order.
func (r *Registry) Ping(ctx context.Context) error {
	names := r.List()
	if len(names) == 0 {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultPingTimeout)
		defer cancel()
	}

	var errs []error
	for _, name := range names {
		store, ok := r.Get(name)
		if !ok {
			continue
		}
		if err := store.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("store %s ping failed: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// Close closes all registered storage connections.
func (r *Registry) Close() error {
	var errs []error
	for _, name := range r.List() {
		store, ok := r.Get(name)
		if !ok {
			continue
		}
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store %s close failed: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// List returns the sorted names of all registered stores.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a registered store by name.
func (r *Registry) Get(name string) (Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store, exists := r.stores[name]
	return store, exists
}
