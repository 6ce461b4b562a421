package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"go.eggybyte.com/eggdata/core/errors"
	"go.eggybyte.com/eggdata/core/log"
	"go.eggybyte.com/eggdata/httpx"
	"go.eggybyte.com/eggdata/obsx"
	"go.eggybyte.com/eggdata/ormx"
	"go.eggybyte.com/eggdata/runtimex"
)

var (
	serveAddr       string
	metricsAddr     string
	shutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the backends and serve health, metrics and backend listings",
	Long: `Start every enabled backend and serve:

  /healthz   pings every live backend
  /metrics   Prometheus metrics, including pool gauges
  /backends  the backends and collections attached to the request

With --metrics-addr, /metrics moves to its own listener.
SIGINT or SIGTERM stops the server and tears the backends down.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Separate metrics listen address")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings, logger, err := loadRuntime(ctx)
	if err != nil {
		return err
	}

	provider, err := obsx.NewProvider(ctx, obsx.Options{ServiceName: "eggdata", ServiceVersion: Version})
	if err != nil {
		return err
	}
	defer provider.Shutdown(context.Background())
	if err := provider.Registerer().Register(collectors.NewGoCollector()); err != nil {
		logger.Warn("go collector not registered", log.Str("error", err.Error()))
	}

	svc := &backendService{
		opts: ormx.Options{
			Logger:         logger,
			ModelSets:      demoModelSets(),
			Config:         settings.Config(),
			MeterProvider:  provider.MeterProvider(),
			CloseOnFailure: true,
		},
	}

	opts := runtimex.Options{
		Logger:          logger,
		ShutdownTimeout: shutdownTimeout,
	}
	if metricsAddr != "" {
		svc.metrics = http.NotFoundHandler()
		opts.Metrics = &runtimex.Endpoint{Addr: metricsAddr, Handler: provider.PrometheusHandler()}
	} else {
		svc.metrics = provider.PrometheusHandler()
	}
	opts.HTTP = &runtimex.Endpoint{Addr: serveAddr, Handler: svc}

	return runtimex.Run(ctx, []runtimex.Service{svc}, opts)
}

var errNotStarted = errors.New(errors.CodeUnavailable, "backends not started")

// backendService owns the backends for the lifetime of the server.
// It serves requests through the mux built once the backends are up.
type backendService struct {
	opts    ormx.Options
	metrics http.Handler

	conns   *ormx.Connections
	handler http.Handler
}

func (s *backendService) Start(ctx context.Context) error {
	mw, conns, err := ormx.Setup(ctx, s.opts)
	if err != nil {
		return err
	}
	s.conns = conns
	s.handler = newMux(conns, mw, s.metrics)
	return nil
}

func (s *backendService) Stop(ctx context.Context) error {
	done := make(chan error, 1)
	ormx.Teardown(ctx, s.conns, func(err error) { done <- err })
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *backendService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.handler == nil {
		_ = httpx.WriteErrorStatus(w, errNotStarted, http.StatusServiceUnavailable)
		return
	}
	s.handler.ServeHTTP(w, r)
}

func newMux(conns *ormx.Connections, mw ormx.Middleware, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", httpx.NotFoundHandler())
	mux.Handle("/metrics", metrics)
	mux.Handle("/healthz", newHealthCheck(conns.Ping, 3, 10*time.Second))
	mux.Handle("/backends", mw(http.HandlerFunc(serveBackends)))
	return httpx.SecureMiddleware(httpx.DefaultSecurityHeaders())(mux)
}

type backendsResponse struct {
	Backends    []ormx.Kind `json:"backends"`
	Collections []string    `json:"collections,omitempty"`
}

func serveBackends(w http.ResponseWriter, r *http.Request) {
	resp := backendsResponse{Backends: []ormx.Kind{}}
	conns, ok := ormx.FromRequest(r)
	if ok {
		resp.Backends = append(resp.Backends, conns.Backends()...)
	}
	if ok && conns.Collection != nil {
		resp.Collections = conns.Collection.CollectionNames()
	}
	_ = httpx.WriteJSON(w, http.StatusOK, resp)
}
