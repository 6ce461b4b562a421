// Package collectx implements the collection backend: collection definitions
// loaded into a container, bound to named connections through adapters.
//
// Overview:
//   - Responsibility: Turn collection definitions into an ontology of live connections and collections
//   - Key Types: Definition, Container, Adapter, Ontology
//   - Concurrency Model: Connections are registered concurrently; Ontology is read-only after Initialize
//   - Error Semantics: Initialize fails on the first invalid definition and joins connection failures
//   - Performance Notes: Each connection creates its tables once, with create-if-absent statements
//
// Usage:
//
//	c := collectx.New()
//	_ = c.LoadCollection(collectx.Definition{Identity: "order", Attributes: attrs})
//	ont, err := c.Initialize(ctx, collectx.Config{
//	  Connections: map[string]collectx.ConnectionConfig{"default": {Adapter: "sqlite", URL: "app.db"}},
//	})
//	defer ont.Teardown(ctx)
package collectx

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"go.eggybyte.com/eggdata/core/log"
)

// Initialize failures wrap one of these so callers can tell them apart.
var (
	// ErrInvalidConfig marks a definition or connection that names something unknown.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrSchema marks a failure creating a collection's backing structure.
	ErrSchema = errors.New("create collection")
	// ErrAdapterPanic marks an adapter that panicked while registering a connection.
	ErrAdapterPanic = errors.New("panic")
)

// ConnectionConfig configures one named connection.
type ConnectionConfig struct {
	Name    string            `yaml:"-" json:"-"`
	Adapter string            `yaml:"adapter" json:"adapter"`
	URL     string            `yaml:"url" json:"url"`
	Options map[string]string `yaml:"options" json:"options"`
}

// Config configures Container.Initialize.
type Config struct {
	// Connections by name. Each must name an adapter identity.
	Connections map[string]ConnectionConfig
	// Adapters by identity. DefaultAdapters() when nil.
	Adapters map[string]Adapter
	Logger   log.Logger
}

// Connection is a live, named connection owned by an adapter.
type Connection struct {
	Name    string
	Config  ConnectionConfig
	Adapter Adapter
}

// Collection is a definition bound to its connection.
type Collection struct {
	Identity   string
	Definition Definition
	Connection *Connection
}

// Ontology is the result of initialization: every connection and collection.
type Ontology struct {
	Connections map[string]*Connection
	Collections map[string]*Collection
}

// Container collects definitions until Initialize binds them.
type Container struct {
	mu          sync.Mutex
	definitions map[string]Definition
	initialized bool
}

// New creates an empty container.
func New() *Container {
	return &Container{definitions: make(map[string]Definition)}
}

// LoadCollection adds a definition. Identities must be unique.
func (c *Container) LoadCollection(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return fmt.Errorf("container already initialized")
	}
	if _, exists := c.definitions[def.Identity]; exists {
		return fmt.Errorf("collection %s already loaded", def.Identity)
	}
	c.definitions[def.Identity] = def
	return nil
}

// Definitions returns the loaded definitions in identity order.
func (c *Container) Definitions() []Definition {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.definitions))
	for id := range c.definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	defs := make([]Definition, 0, len(ids))
	for _, id := range ids {
		defs = append(defs, c.definitions[id])
	}
	return defs
}

// Initialize registers every configured connection concurrently and binds
// the loaded collections. A container initializes at most once.
// On failure, connections that did register are torn down.
func (c *Container) Initialize(ctx context.Context, cfg Config) (*Ontology, error) {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return nil, fmt.Errorf("container already initialized")
	}
	c.initialized = true
	c.mu.Unlock()

	logger := cfg.Logger
	if logger == nil {
		logger = log.Nop()
	}
	adapters := cfg.Adapters
	if adapters == nil {
		adapters = DefaultAdapters()
	}

	ont := &Ontology{
		Connections: make(map[string]*Connection),
		Collections: make(map[string]*Collection),
	}

	byConn := make(map[string][]Definition)
	for _, def := range c.Definitions() {
		name := def.ConnectionName()
		if _, ok := cfg.Connections[name]; !ok {
			return nil, fmt.Errorf("%w: collection %s: unknown connection %q", ErrInvalidConfig, def.Identity, name)
		}
		byConn[name] = append(byConn[name], def)
	}

	for name, cc := range cfg.Connections {
		adapter, ok := adapters[cc.Adapter]
		if !ok {
			return nil, fmt.Errorf("%w: connection %s: unknown adapter %q", ErrInvalidConfig, name, cc.Adapter)
		}
		cc.Name = name
		ont.Connections[name] = &Connection{Name: name, Config: cc, Adapter: adapter}
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
		live = make(map[string]*Connection)
	)
	for name, conn := range ont.Connections {
		g.Go(func() error {
			if err := register(ctx, conn, byConn[name]); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			logger.Debug("collection connection registered",
				log.Str("connection", name),
				log.Str("adapter", conn.Adapter.Identity()),
				log.Int("collections", len(byConn[name])))
			mu.Lock()
			live[name] = conn
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		partial := &Ontology{Connections: live}
		if err := partial.Teardown(ctx); err != nil {
			logger.Warn("teardown after failed initialization", log.Str("error", err.Error()))
		}
		return nil, errors.Join(errs...)
	}

	for name, defs := range byConn {
		for _, def := range defs {
			ont.Collections[def.Identity] = &Collection{
				Identity:   def.Identity,
				Definition: def,
				Connection: ont.Connections[name],
			}
		}
	}

	return ont, nil
}

// register runs the adapter's registration for conn. A panicking adapter is
// reported as ErrAdapterPanic and leaves nothing registered for conn.
func register(ctx context.Context, conn *Connection, defs []Definition) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("connection %s (%s): %w: %v", conn.Name, conn.Config.Adapter, ErrAdapterPanic, r)
		}
	}()
	if err := conn.Adapter.RegisterConnection(ctx, conn.Config, defs); err != nil {
		return fmt.Errorf("connection %s (%s): %w", conn.Name, conn.Adapter.Identity(), err)
	}
	return nil
}

// ConnectionNames returns the connection names in order.
func (o *Ontology) ConnectionNames() []string {
	if o == nil {
		return nil
	}
	names := make([]string, 0, len(o.Connections))
	for name := range o.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CollectionNames returns the collection identities in order.
func (o *Ontology) CollectionNames() []string {
	if o == nil {
		return nil
	}
	names := make([]string, 0, len(o.Collections))
	for name := range o.Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ping checks every connection and joins the failures.
func (o *Ontology) Ping(ctx context.Context) error {
	var errs []error
	for _, name := range o.ConnectionNames() {
		conn := o.Connections[name]
		if err := conn.Adapter.Ping(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("connection %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Teardown runs every connection's adapter teardown concurrently, then
// releases each connection from its adapter registry unless the adapter is
// a legacy no-op kind. A nil ontology or one without connections is a no-op.
func (o *Ontology) Teardown(ctx context.Context) error {
	if o == nil || len(o.Connections) == 0 {
		return nil
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for name, conn := range o.Connections {
		if conn == nil || conn.Adapter == nil {
			continue
		}
		g.Go(func() error {
			if err := conn.Adapter.Teardown(ctx, name); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("connection %s: %w", name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	for name, conn := range o.Connections {
		if conn == nil || conn.Adapter == nil || IsLegacy(conn.Adapter.Identity()) {
			continue
		}
		conn.Adapter.Registry().Release(name)
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return errors.Join(errs...)
}
