package collectx

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisSchemaPrefix prefixes the hash that records a collection's attributes.
const RedisSchemaPrefix = "collectx:schema:"

// RedisCollectionsKey is the set of collection identities on a connection.
const RedisCollectionsKey = "collectx:collections"

// RedisAdapter binds collections to key namespaces on a Redis server.
// Each collection's attribute types are recorded in a schema hash.
type RedisAdapter struct {
	registry *Registry
}

type redisHandle struct {
	client *redis.Client
	once   sync.Once
}

// NewRedisAdapter creates a redis adapter.
func NewRedisAdapter() *RedisAdapter {
	return &RedisAdapter{registry: NewRegistry()}
}

// Identity returns "redis".
func (a *RedisAdapter) Identity() string { return AdapterRedis }

// Registry returns the adapter's connection registry.
func (a *RedisAdapter) Registry() *Registry { return a.registry }

// RegisterConnection connects, pings and records collection schemas.
func (a *RedisAdapter) RegisterConnection(ctx context.Context, conn ConnectionConfig, collections []Definition) error {
	opts, err := redis.ParseURL(conn.URL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping: %w", err)
	}

	pipe := client.TxPipeline()
	for _, def := range collections {
		pipe.SAdd(ctx, RedisCollectionsKey, def.Identity)
		fields := map[string]any{"__primaryKey": def.PrimaryKeyName()}
		for name, attr := range def.Attributes {
			fields[name] = attr.Type
		}
		pipe.HSet(ctx, RedisSchemaPrefix+def.Identity, fields)
	}
	if len(collections) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			_ = client.Close()
			return fmt.Errorf("%w: record schemas: %w", ErrSchema, err)
		}
	}

	a.registry.Add(conn.Name, &redisHandle{client: client})
	return nil
}

// Ping pings the named client.
func (a *RedisAdapter) Ping(ctx context.Context, connection string) error {
	client, err := a.Client(connection)
	if err != nil {
		return err
	}
	return client.Ping(ctx).Err()
}

// Teardown closes the named client once.
func (a *RedisAdapter) Teardown(ctx context.Context, connection string) error {
	h, ok := a.registry.Get(connection)
	if !ok {
		return nil
	}
	handle := h.(*redisHandle)
	var err error
	handle.once.Do(func() { err = handle.client.Close() })
	return err
}

// Client returns the go-redis client of a connection.
func (a *RedisAdapter) Client(connection string) (*redis.Client, error) {
	h, ok := a.registry.Get(connection)
	if !ok {
		return nil, fmt.Errorf("connection %s not registered", connection)
	}
	return h.(*redisHandle).client, nil
}
