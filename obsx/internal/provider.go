// Package internal provides internal implementation for the obsx package.
package internal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"go.eggybyte.com/eggdata/core/utils"
)

// DefaultDurationBuckets spans a cached redis dial up to a slow schema sync.
var DefaultDurationBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// ProviderOptions holds configuration for the metrics provider.
type ProviderOptions struct {
	ServiceName     string
	ServiceVersion  string
	ResourceAttrs   map[string]string
	SetGlobal       bool
	DurationBuckets []float64 // Buckets for every *_seconds histogram
}

// Provider owns the SDK meter provider and the registry its exporter writes to.
type Provider struct {
	MeterProvider *metric.MeterProvider
	registry      *promclient.Registry
}

// NewProvider builds a meter provider exporting to a private Prometheus registry.
func NewProvider(ctx context.Context, opts ProviderOptions) (*Provider, error) {
	if opts.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}

	res, err := newResource(ctx, opts)
	if err != nil {
		return nil, err
	}

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(
		prometheus.WithRegisterer(registry),
		prometheus.WithoutUnits(),
		prometheus.WithoutScopeInfo(),
		prometheus.WithoutCounterSuffixes(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = DefaultDurationBuckets
	}

	mp := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(exporter),
		metric.WithView(metric.NewView(
			metric.Instrument{Name: "*_seconds", Kind: metric.InstrumentKindHistogram},
			metric.Stream{Aggregation: metric.AggregationExplicitBucketHistogram{Boundaries: buckets}},
		)),
	)

	if opts.SetGlobal {
		otel.SetMeterProvider(mp)
	}

	return &Provider{MeterProvider: mp, registry: registry}, nil
}

func newResource(ctx context.Context, opts ProviderOptions) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if len(opts.ResourceAttrs) == 0 {
		return res, nil
	}

	attrs := make([]attribute.KeyValue, 0, len(opts.ResourceAttrs))
	for _, k := range utils.SortedKeys(opts.ResourceAttrs) {
		attrs = append(attrs, attribute.String(k, opts.ResourceAttrs[k]))
	}
	res, err = resource.Merge(res, resource.NewWithAttributes(semconv.SchemaURL, attrs...))
	if err != nil {
		return nil, fmt.Errorf("failed to add resource attributes: %w", err)
	}
	return res, nil
}

// Handler serves the registry in Prometheus text or OpenMetrics format.
// A provider without a registry answers 503.
func (p *Provider) Handler() http.Handler {
	if p.registry == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("# metrics registry not initialised\n"))
		})
	}

	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registerer returns the Prometheus registerer backing the handler.
func (p *Provider) Registerer() promclient.Registerer {
	return p.registry
}

// Shutdown flushes and stops the meter provider, waiting at most five seconds.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.MeterProvider == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.MeterProvider.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}
