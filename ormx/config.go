package ormx

import (
	"go.eggybyte.com/eggdata/cachex"
	"go.eggybyte.com/eggdata/collectx"
	"go.eggybyte.com/eggdata/storex"
)

// Config holds the per-backend configuration. A nil section means the
// backend is not attempted; a section with Skip set is excluded as well.
type Config struct {
	Redis      *RedisConfig
	GORM       *GORMConfig
	Entity     *EntityConfig
	Collection *CollectionConfig
}

// RedisConfig configures the cache backend.
type RedisConfig struct {
	Skip bool
	cachex.Options
}

// GORMConfig configures the shared-instance GORM backend.
type GORMConfig struct {
	Skip bool
	storex.GORMOptions
}

// EntityConfig configures the entity-set backend.
type EntityConfig struct {
	Skip bool
	// Synchronize auto-migrates every entity after the connection opens.
	Synchronize bool
	storex.GORMOptions
}

// CollectionConfig configures the collection backend.
type CollectionConfig struct {
	Skip        bool
	Connections map[string]collectx.ConnectionConfig
	// Adapters by identity; collectx.DefaultAdapters() when nil.
	Adapters map[string]collectx.Adapter
}

// Enabled reports whether the backend has a present, non-skipped section.
func (c Config) Enabled(kind Kind) bool {
	switch kind {
	case KindRedis:
		return c.Redis != nil && !c.Redis.Skip
	case KindGORM:
		return c.GORM != nil && !c.GORM.Skip
	case KindEntity:
		return c.Entity != nil && !c.Entity.Skip
	case KindCollection:
		return c.Collection != nil && !c.Collection.Skip
	}
	return false
}

// AnyEnabled reports whether at least one backend would be attempted.
func (c Config) AnyEnabled() bool {
	for _, k := range Kinds {
		if c.Enabled(k) {
			return true
		}
	}
	return false
}
