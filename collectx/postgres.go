package collectx

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAdapter binds collections to PostgreSQL tables through pgxpool.
type PostgresAdapter struct {
	registry *Registry
}

// NewPostgresAdapter creates a postgres adapter.
func NewPostgresAdapter() *PostgresAdapter {
	return &PostgresAdapter{registry: NewRegistry()}
}

// Identity returns "postgres".
func (a *PostgresAdapter) Identity() string { return AdapterPostgres }

// Registry returns the adapter's connection registry.
func (a *PostgresAdapter) Registry() *Registry { return a.registry }

// RegisterConnection opens a pool, pings it and creates missing tables.
// Options: max_conns, min_conns.
func (a *PostgresAdapter) RegisterConnection(ctx context.Context, conn ConnectionConfig, collections []Definition) error {
	poolConfig, err := pgxpool.ParseConfig(conn.URL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if v, ok := conn.Options["max_conns"]; ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("max_conns: %w", err)
		}
		poolConfig.MaxConns = int32(n)
	}
	if v, ok := conn.Options["min_conns"]; ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("min_conns: %w", err)
		}
		poolConfig.MinConns = int32(n)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping: %w", err)
	}

	for _, def := range collections {
		stmt, err := def.CreateTableSQL(AdapterPostgres)
		if err != nil {
			pool.Close()
			return fmt.Errorf("%w %s: %w", ErrSchema, def.Identity, err)
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return fmt.Errorf("%w %s: %w", ErrSchema, def.Table(), err)
		}
	}

	a.registry.Add(conn.Name, pool)
	return nil
}

// Ping pings the named pool.
func (a *PostgresAdapter) Ping(ctx context.Context, connection string) error {
	pool, err := a.Pool(connection)
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Teardown closes the named pool.
func (a *PostgresAdapter) Teardown(ctx context.Context, connection string) error {
	h, ok := a.registry.Get(connection)
	if !ok {
		return nil
	}
	h.(*pgxpool.Pool).Close()
	return nil
}

// Pool returns the pgx pool of a connection.
func (a *PostgresAdapter) Pool(connection string) (*pgxpool.Pool, error) {
	h, ok := a.registry.Get(connection)
	if !ok {
		return nil, fmt.Errorf("connection %s not registered", connection)
	}
	return h.(*pgxpool.Pool), nil
}
