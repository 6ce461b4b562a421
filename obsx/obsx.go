// Package obsx provides Prometheus-backed metrics for persistence backends.
//
// Overview:
//   - Responsibility: Bootstrap an OpenTelemetry meter provider with Prometheus export
//   - Key Types: Options for configuration, Provider for managing lifecycle
//   - Concurrency Model: Provider is safe for concurrent use
//   - Error Semantics: NewProvider returns error for initialization failures
//   - Performance Notes: Pool stats are read on scrape, never polled
//
// Usage:
//
//	provider, err := obsx.NewProvider(ctx, obsx.Options{ServiceName: "eggdata"})
//	if err != nil {
//	    return err
//	}
//	defer provider.Shutdown(ctx)
//	_ = provider.RegisterGORMMetrics("gorm", db)
package obsx

import (
	"context"
	"database/sql"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	api "go.opentelemetry.io/otel/metric"

	"go.eggybyte.com/eggdata/obsx/internal"
)

// Options holds configuration for the metrics provider.
type Options struct {
	ServiceName    string            // Service name for metrics
	ServiceVersion string            // Service version
	ResourceAttrs  map[string]string // Additional resource attributes
	SetGlobal      bool              // Install as the global otel meter provider
	// DurationBuckets overrides DefaultDurationBuckets for *_seconds histograms.
	DurationBuckets []float64
}

// DefaultDurationBuckets are the histogram boundaries, in seconds, used for
// backend initialisation timings.
var DefaultDurationBuckets = internal.DefaultDurationBuckets

// Provider manages an OpenTelemetry meter provider with Prometheus export.
// The provider must be shut down when no longer needed.
type Provider struct {
	impl *internal.Provider
}

// NewProvider creates a new metrics provider with Prometheus export.
func NewProvider(ctx context.Context, opts Options) (*Provider, error) {
	impl, err := internal.NewProvider(ctx, internal.ProviderOptions{
		ServiceName:    opts.ServiceName,
		ServiceVersion: opts.ServiceVersion,
		ResourceAttrs:  opts.ResourceAttrs,
		SetGlobal:      opts.SetGlobal,
		DurationBuckets: opts.DurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &Provider{impl: impl}, nil
}

// MeterProvider returns the OpenTelemetry meter provider.
func (p *Provider) MeterProvider() api.MeterProvider {
	return p.impl.MeterProvider
}

// Meter returns a named meter for custom instruments.
//
// Example:
//
//	meter := provider.Meter("eggdata")
//	counter, _ := meter.Int64Counter("eggdata.setups.total")
//	counter.Add(ctx, 1)
func (p *Provider) Meter(name string) api.Meter {
	return p.impl.MeterProvider.Meter(name)
}

// PrometheusHandler returns an HTTP handler serving metrics in Prometheus text format.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.Handle("/metrics", provider.PrometheusHandler())
func (p *Provider) PrometheusHandler() http.Handler {
	return p.impl.Handler()
}

// Registerer exposes the underlying Prometheus registry so client_golang
// collectors can be served from the same endpoint.
func (p *Provider) Registerer() promclient.Registerer {
	return p.impl.Registerer()
}

// Shutdown flushes and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.impl.Shutdown(ctx)
}

// RegisterDBMetrics registers gauges for a database/sql connection pool.
//
// Metrics collected:
//   - db_pool_open_connections
//   - db_pool_in_use
//   - db_pool_idle
//   - db_pool_wait_count_total
//   - db_pool_wait_seconds_total
//   - db_pool_max_open
func (p *Provider) RegisterDBMetrics(name string, db *sql.DB) error {
	return RegisterDBMetrics(p.impl.MeterProvider, name, db)
}

// RegisterGORMMetrics is RegisterDBMetrics for anything exposing DB() (*sql.DB, error).
func (p *Provider) RegisterGORMMetrics(name string, gormDB interface{ DB() (*sql.DB, error) }) error {
	return RegisterGORMMetrics(p.impl.MeterProvider, name, gormDB)
}

// RegisterRedisMetrics registers gauges for a go-redis pool. stats is called on every scrape.
func (p *Provider) RegisterRedisMetrics(name string, stats func() *redis.PoolStats) error {
	return RegisterRedisMetrics(p.impl.MeterProvider, name, stats)
}

// RegisterDBMetrics registers pool gauges against any meter provider.
func RegisterDBMetrics(mp api.MeterProvider, name string, db *sql.DB) error {
	_, err := internal.RegisterDBMetrics(name, db, mp)
	return err
}

// RegisterGORMMetrics registers pool gauges for a GORM handle against any meter provider.
func RegisterGORMMetrics(mp api.MeterProvider, name string, gormDB interface{ DB() (*sql.DB, error) }) error {
	_, err := internal.RegisterGORMMetrics(name, gormDB, mp)
	return err
}

// RegisterRedisMetrics registers go-redis pool gauges against any meter provider.
func RegisterRedisMetrics(mp api.MeterProvider, name string, stats func() *redis.PoolStats) error {
	_, err := internal.RegisterRedisPoolMetrics(name, stats, mp)
	return err
}
