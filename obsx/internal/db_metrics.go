// Package internal provides internal implementation for obsx.
package internal

import (
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var dbPoolInstruments = []poolInstrument[sql.DBStats]{
	{name: "db_pool_open_connections", desc: "Number of established connections both in use and idle", unit: "{connection}",
		i64: func(s sql.DBStats) int64 { return int64(s.OpenConnections) }},
	{name: "db_pool_in_use", desc: "Number of connections currently in use", unit: "{connection}",
		i64: func(s sql.DBStats) int64 { return int64(s.InUse) }},
	{name: "db_pool_idle", desc: "Number of idle connections", unit: "{connection}",
		i64: func(s sql.DBStats) int64 { return int64(s.Idle) }},
	{name: "db_pool_wait_count_total", desc: "Total number of connections waited for", unit: "{wait}", counter: true,
		i64: func(s sql.DBStats) int64 { return s.WaitCount }},
	{name: "db_pool_wait_seconds_total", desc: "Total time blocked waiting for new connections", unit: "s", counter: true,
		f64: func(s sql.DBStats) float64 { return s.WaitDuration.Seconds() }},
	{name: "db_pool_max_open", desc: "Maximum number of open connections to the database", unit: "{connection}",
		i64: func(s sql.DBStats) int64 { return int64(s.MaxOpenConnections) }},
}

// RegisterDBMetrics registers pool gauges for db, labelled db_name.
// Stats are read from sql.DBStats on every collection.
func RegisterDBMetrics(name string, db *sql.DB, meterProvider metric.MeterProvider) (metric.Registration, error) {
	return registerPool(meterProvider, "database", attribute.String("db_name", name), dbPoolInstruments,
		func() (sql.DBStats, bool) { return db.Stats(), true })
}

// RegisterGORMMetrics registers pool metrics for anything exposing DB() (*sql.DB, error),
// such as *gorm.DB.
func RegisterGORMMetrics(name string, gormDB interface{ DB() (*sql.DB, error) }, meterProvider metric.MeterProvider) (metric.Registration, error) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}

	return RegisterDBMetrics(name, sqlDB, meterProvider)
}
