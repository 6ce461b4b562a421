// Package runtimex runs services alongside their HTTP servers.
//
// Overview:
//   - Responsibility: Start services, serve HTTP and metrics, stop everything on cancellation
//   - Key Types: Service interface, Options for configuration, Endpoint for address binding
//   - Concurrency Model: Services start and stop concurrently; servers start after every service
//   - Error Semantics: Start failures stop what had started and are returned joined
//   - Performance Notes: Servers drain in-flight requests before services stop
//
// Usage:
//
//	err := runtimex.Run(ctx, []runtimex.Service{backends}, runtimex.Options{
//	  Logger:  logger,
//	  HTTP:    &runtimex.Endpoint{Addr: ":8080", Handler: backends},
//	  Metrics: &runtimex.Endpoint{Addr: ":9091", Handler: provider.PrometheusHandler()},
//	})
package runtimex

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.eggybyte.com/eggdata/core/log"
	"go.eggybyte.com/eggdata/runtimex/internal"
)

// Service defines the interface for services that can be started and stopped.
type Service interface {
	// Start begins the service operation.
	// Servers are not started until every Start has returned.
	Start(ctx context.Context) error

	// Stop shuts the service down.
	// The context carries the shutdown timeout.
	Stop(ctx context.Context) error
}

// Endpoint is an address served by a handler.
type Endpoint struct {
	Addr    string       // Network address (e.g., ":8080")
	Handler http.Handler // Handler for every request
}

// Options holds configuration for the runtime.
type Options struct {
	Logger          log.Logger    // Logger for runtime operations
	HTTP            *Endpoint     // Main HTTP server (optional)
	Metrics         *Endpoint     // Separate metrics server (optional)
	ShutdownTimeout time.Duration // Graceful shutdown timeout, default 15s
}

// Run starts all services and servers and blocks until ctx is cancelled or
// a server fails. Servers are drained before services are stopped.
func Run(ctx context.Context, services []Service, opts Options) error {
	if opts.Logger == nil {
		return fmt.Errorf("logger is required")
	}

	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 15 * time.Second
	}

	internalServices := make([]internal.Service, len(services))
	for i, service := range services {
		internalServices[i] = service
	}

	runtime := internal.NewRuntime(opts.Logger, internalServices, shutdownTimeout)
	if opts.HTTP != nil {
		runtime.AddServer("http", newServer(opts.HTTP))
	}
	if opts.Metrics != nil {
		runtime.AddServer("metrics", newServer(opts.Metrics))
	}

	if err := runtime.Start(ctx); err != nil {
		return fmt.Errorf("runtime start failed: %w", err)
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-runtime.Errors():
	}

	if err := runtime.Stop(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("runtime stop failed: %w", err)
	}
	return serveErr
}

func newServer(e *Endpoint) *http.Server {
	return &http.Server{
		Addr:              e.Addr,
		Handler:           e.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
