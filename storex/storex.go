// Package storex provides storage interfaces, GORM stores and a health check registry.
//
// Overview:
//   - Responsibility: Open SQL stores through GORM and manage connection health
//   - Key Types: Store interface, GORMStore for SQL backends, Registry for management
//   - Concurrency Model: All types are safe for concurrent use
//   - Error Semantics: Functions return errors for failure cases
//   - Performance Notes: Stores open lazily; no network traffic happens until Ping
//
// Usage:
//
//	store, err := storex.NewGORMStore(storex.GORMOptions{Driver: "postgres", DSN: dsn, Logger: logger})
//	if err := store.Ping(ctx); err != nil { ... }
//	registry := storex.NewRegistry()
//	registry.Register("gorm", store)
//	err = registry.Ping(ctx)
package storex

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go.eggybyte.com/eggdata/core/log"
	"go.eggybyte.com/eggdata/storex/internal"
)

// Store defines the interface for storage backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Ping checks if the storage backend is healthy.
	Ping(ctx context.Context) error

	// Close closes the storage connection.
	Close() error
}

// GORMStore defines the interface for GORM-backed storage.
type GORMStore interface {
	Store

	// GetDB returns the underlying GORM database instance.
	// The returned *gorm.DB is safe for concurrent use.
	GetDB() *gorm.DB

	// Migrate creates missing tables and columns for the given models.
	Migrate(ctx context.Context, models ...any) error

	// IsConnected reports whether the store has not been closed.
	IsConnected() bool

	// Driver returns the driver name the store was opened with.
	Driver() string
}

// Registry manages multiple storage connections and their health.
// This is a thin wrapper around internal.Registry.
type Registry struct {
	impl *internal.Registry
}

// NewRegistry creates a new storage registry.
func NewRegistry() *Registry {
	return &Registry{impl: internal.NewRegistry()}
}

// Register registers a storage backend with the given name.
func (r *Registry) Register(name string, store Store) error {
	return r.impl.Register(name, store)
}

// Unregister removes a storage backend from the registry.
func (r *Registry) Unregister(name string) error {
	return r.impl.Unregister(name)
}

// Ping performs health checks on all registered storage backends.
// Failures are joined; a context without deadline is bounded by five seconds.
func (r *Registry) Ping(ctx context.Context) error {
	return r.impl.Ping(ctx)
}

// Close closes all registered storage connections.
func (r *Registry) Close() error {
	return r.impl.Close()
}

// List returns the sorted names of all registered stores.
func (r *Registry) List() []string {
	return r.impl.List()
}

// Get returns a registered store by name.
func (r *Registry) Get(name string) (Store, bool) {
	return r.impl.Get(name)
}

// GORMOptions holds configuration for GORM database connections.
type GORMOptions struct {
	DSN             string        // Database connection string
	Driver          string        // Database driver (mysql, postgres, sqlite)
	MaxIdleConns    int           // Maximum number of idle connections (default 10)
	MaxOpenConns    int           // Maximum number of open connections (default 100)
	ConnMaxLifetime time.Duration // Maximum connection lifetime (default 1h)
	SlowThreshold   time.Duration // Slow query threshold for debug logging (default 100ms)
	Logger          log.Logger    // Logger for database operations
}

// NewGORMStore opens a GORM store with the given options.
// The server is not contacted; call Ping to authenticate.
func NewGORMStore(opts GORMOptions) (GORMStore, error) {
	return internal.NewGORMStoreFromOptions(internal.GORMOptions{
		DSN:             opts.DSN,
		Driver:          opts.Driver,
		MaxIdleConns:    opts.MaxIdleConns,
		MaxOpenConns:    opts.MaxOpenConns,
		ConnMaxLifetime: opts.ConnMaxLifetime,
		SlowThreshold:   opts.SlowThreshold,
		Logger:          opts.Logger,
	})
}

// WrapGORM adapts an already open *gorm.DB to GORMStore.
func WrapGORM(db *gorm.DB, driver string, logger log.Logger) GORMStore {
	return internal.NewGORMStore(db, driver, logger)
}

// StoreFunc adapts a pair of functions to Store.
type StoreFunc struct {
	PingFunc  func(ctx context.Context) error
	CloseFunc func() error
}

// Ping calls PingFunc when set.
func (s StoreFunc) Ping(ctx context.Context) error {
	if s.PingFunc == nil {
		return nil
	}
	return s.PingFunc(ctx)
}

// Close calls CloseFunc when set.
func (s StoreFunc) Close() error {
	if s.CloseFunc == nil {
		return nil
	}
	return s.CloseFunc()
}
