// Package internal contains the GORM database adapter implementation.
package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go.eggybyte.com/eggdata/core/log"
)

// GORMStore implements the Store interface using GORM.
type GORMStore struct {
	db        *gorm.DB
	driver    string
	logger    log.Logger
	connected atomic.Bool
}

// NewGORMStore wraps an open *gorm.DB.
func NewGORMStore(db *gorm.DB, driver string, logger log.Logger) *GORMStore {
	s := &GORMStore{
		db:     db,
		driver: driver,
		logger: logger,
	}
	s.connected.Store(db != nil)
	return s
}

// Ping checks if the database connection is healthy.
func (s *GORMStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// Migrate runs AutoMigrate for the given models in one call.
func (s *GORMStore) Migrate(ctx context.Context, models ...any) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if len(models) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).AutoMigrate(models...)
}

// Close closes the database connection. Closing twice is a no-op.
func (s *GORMStore) Close() error {
	if s.db == nil || !s.connected.CompareAndSwap(true, false) {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	return nil
}

// IsConnected reports whether Close has not yet been called.
func (s *GORMStore) IsConnected() bool {
	return s.connected.Load()
}

// GetDB returns the underlying GORM database instance.
func (s *GORMStore) GetDB() *gorm.DB {
	return s.db
}

// Driver returns the driver name the store was opened with.
func (s *GORMStore) Driver() string {
	return s.driver
}

// GORMOptions holds configuration for GORM database connections.
type GORMOptions struct {
	DSN             string          // Database connection string
	Driver          string          // Database driver (mysql, postgres, sqlite)
	MaxIdleConns    int             // Maximum number of idle connections
	MaxOpenConns    int             // Maximum number of open connections
	ConnMaxLifetime time.Duration   // Maximum connection lifetime
	SlowThreshold   time.Duration   // Queries slower than this are logged at debug
	Logger          log.Logger      // Logger for database operations
	LogLevel        logger.LogLevel // GORM log level when Logger is nil
}

// DefaultGORMOptions returns default GORM options.
func DefaultGORMOptions() GORMOptions {
	return GORMOptions{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		SlowThreshold:   100 * time.Millisecond,
		LogLevel:        logger.Silent,
	}
}

// NewGORMStoreFromOptions opens a GORM store without contacting the server.
// Callers authenticate with Ping.
func NewGORMStoreFromOptions(opts GORMOptions) (*GORMStore, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("DSN is required")
	}

	if opts.Driver == "" {
		return nil, fmt.Errorf("driver is required")
	}

	defaults := DefaultGORMOptions()
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = defaults.MaxIdleConns
	}
	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = defaults.MaxOpenConns
	}
	if opts.ConnMaxLifetime == 0 {
		opts.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
	if opts.SlowThreshold == 0 {
		opts.SlowThreshold = defaults.SlowThreshold
	}

	var gormLogger logger.Interface
	if opts.Logger != nil {
		gormLogger = &gormLogAdapter{logger: opts.Logger, slow: opts.SlowThreshold}
	} else {
		gormLogger = logger.Default.LogMode(opts.LogLevel)
	}

	driver, err := getGORMDriver(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}

	db, err := gorm.Open(driver, &gorm.Config{
		Logger:               gormLogger,
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	return NewGORMStore(db, opts.Driver, opts.Logger), nil
}

// getGORMDriver returns the GORM dialector for the given driver name.
func getGORMDriver(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(driver) {
	case "mysql", "mariadb":
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}

// gormLogAdapter adapts our logger to GORM's logger interface.
type gormLogAdapter struct {
	logger log.Logger
	slow   time.Duration
}

func (l *gormLogAdapter) LogMode(level logger.LogLevel) logger.Interface {
	return l
}

func (l *gormLogAdapter) Info(ctx context.Context, msg string, data ...interface{}) {
	l.logger.Info(fmt.Sprintf(msg, data...))
}

func (l *gormLogAdapter) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.logger.Warn(fmt.Sprintf(msg, data...))
}

func (l *gormLogAdapter) Error(ctx context.Context, msg string, data ...interface{}) {
	l.logger.Error(nil, fmt.Sprintf(msg, data...))
}

func (l *gormLogAdapter) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if err != nil {
		if isDatabaseConnectionError(err) {
			l.logger.Error(err, "database query failed", log.Str("error_type", "connection_error"))
		} else {
			l.logger.Debug("database query completed with error", log.Str("error", err.Error()))
		}
		return
	}

	duration := time.Since(begin)
	if duration > l.slow {
		sql, rows := fc()
		l.logger.Debug("slow database query",
			log.Str("sql", sql),
			log.Int("rows", int(rows)),
			log.Dur("duration", duration))
	}
}

// isDatabaseConnectionError determines whether a database error is
// connection-related or a business logic error.
func isDatabaseConnectionError(err error) bool {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}

	errStr := err.Error()

	for _, marker := range []string{
		"duplicate key",
		"unique constraint",
		"foreign key constraint",
		"check constraint",
		"not null constraint",
	} {
		if strings.Contains(errStr, marker) {
			return false
		}
	}

	// Unknown database errors are treated as connection errors.
	return true
}
