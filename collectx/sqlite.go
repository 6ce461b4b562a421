package collectx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// SQLiteAdapter binds collections to SQLite tables through the pure-Go modernc driver.
type SQLiteAdapter struct {
	registry *Registry
}

// NewSQLiteAdapter creates a sqlite adapter.
func NewSQLiteAdapter() *SQLiteAdapter {
	return &SQLiteAdapter{registry: NewRegistry()}
}

// Identity returns "sqlite".
func (a *SQLiteAdapter) Identity() string { return AdapterSQLite }

// Registry returns the adapter's connection registry.
func (a *SQLiteAdapter) Registry() *Registry { return a.registry }

// RegisterConnection opens the database file and creates missing tables.
// The URL is a file path, optionally prefixed with sqlite://.
func (a *SQLiteAdapter) RegisterConnection(ctx context.Context, conn ConnectionConfig, collections []Definition) error {
	path := strings.TrimPrefix(conn.URL, "sqlite://")
	if path == "" {
		return fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	// A single writer keeps DDL and pragmas on one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping: %w", err)
	}

	for _, pragma := range sqlitePragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}

	for _, def := range collections {
		stmt, err := def.CreateTableSQL(AdapterSQLite)
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("%w %s: %w", ErrSchema, def.Identity, err)
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("%w %s: %w", ErrSchema, def.Table(), err)
		}
	}

	a.registry.Add(conn.Name, db)
	return nil
}

// Ping pings the named database.
func (a *SQLiteAdapter) Ping(ctx context.Context, connection string) error {
	db, err := a.DB(connection)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Teardown closes the named database.
func (a *SQLiteAdapter) Teardown(ctx context.Context, connection string) error {
	h, ok := a.registry.Get(connection)
	if !ok {
		return nil
	}
	return h.(*sql.DB).Close()
}

// DB returns the *sql.DB of a connection.
func (a *SQLiteAdapter) DB(connection string) (*sql.DB, error) {
	h, ok := a.registry.Get(connection)
	if !ok {
		return nil, fmt.Errorf("connection %s not registered", connection)
	}
	return h.(*sql.DB), nil
}
