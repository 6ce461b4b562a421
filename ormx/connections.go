package ormx

import (
	"context"

	"gorm.io/gorm"

	"go.eggybyte.com/eggdata/cachex"
	"go.eggybyte.com/eggdata/collectx"
	"go.eggybyte.com/eggdata/core/log"
	"go.eggybyte.com/eggdata/storex"
)

// GORMConnection is the result of the shared-instance GORM backend.
type GORMConnection struct {
	DB       *gorm.DB
	Store    storex.GORMStore
	Entities map[string]any
}

// EntityConnection is the result of the entity-set backend.
type EntityConnection struct {
	Store    storex.GORMStore
	Entities map[string]any
}

// Connections is the record produced by a successful Setup. Each backend
// field is owned by its backend; callers treat the record as read-only and
// pass it back to Teardown or Close at shutdown.
type Connections struct {
	Redis      *cachex.Client
	GORM       *GORMConnection
	Entity     *EntityConnection
	Collection *collectx.Ontology

	attempted map[Kind]bool
	logger    log.Logger
}

func newConnections(logger log.Logger) *Connections {
	return &Connections{attempted: make(map[Kind]bool), logger: logger}
}

// Attempted lists the backends Setup tried to start, in fixed order.
func (c *Connections) Attempted() []Kind {
	if c == nil {
		return nil
	}
	var out []Kind
	for _, k := range Kinds {
		if c.attempted[k] {
			out = append(out, k)
		}
	}
	return out
}

// Backends lists the backends holding a live result, in fixed order.
func (c *Connections) Backends() []Kind {
	if c == nil {
		return nil
	}
	var out []Kind
	for _, k := range Kinds {
		if c.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Has reports whether the backend holds a result.
func (c *Connections) Has(kind Kind) bool {
	if c == nil {
		return false
	}
	switch kind {
	case KindRedis:
		return c.Redis != nil
	case KindGORM:
		return c.GORM != nil
	case KindEntity:
		return c.Entity != nil
	case KindCollection:
		return c.Collection != nil
	}
	return false
}

// Empty reports whether no backend holds a result.
func (c *Connections) Empty() bool {
	return len(c.Backends()) == 0
}

// Registry exposes every live backend as a storex.Store. Closing the
// registry is not a substitute for Teardown.
func (c *Connections) Registry() *storex.Registry {
	reg := storex.NewRegistry()
	if c == nil {
		return reg
	}
	if c.Redis != nil {
		_ = reg.Register(string(KindRedis), storex.StoreFunc{PingFunc: c.Redis.Ping, CloseFunc: c.Redis.Close})
	}
	if c.GORM != nil && c.GORM.Store != nil {
		_ = reg.Register(string(KindGORM), c.GORM.Store)
	}
	if c.Entity != nil && c.Entity.Store != nil {
		_ = reg.Register(string(KindEntity), c.Entity.Store)
	}
	if c.Collection != nil {
		ont := c.Collection
		_ = reg.Register(string(KindCollection), storex.StoreFunc{
			PingFunc:  ont.Ping,
			CloseFunc: func() error { return ont.Teardown(context.Background()) },
		})
	}
	return reg
}

// Ping health-checks every live backend.
func (c *Connections) Ping(ctx context.Context) error {
	return c.Registry().Ping(ctx)
}
