// Package internal contains the runtime implementation.
package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"go.eggybyte.com/eggdata/core/log"
)

// Service is the interface for services that can be started and stopped.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type server struct {
	name string
	srv  *http.Server
	ln   net.Listener
}

// Runtime manages the lifecycle of services and servers.
type Runtime struct {
	logger          log.Logger
	services        []Service
	servers         []*server
	shutdownTimeout time.Duration
	errs            chan error
}

// NewRuntime creates a new runtime instance.
func NewRuntime(logger log.Logger, services []Service, shutdownTimeout time.Duration) *Runtime {
	return &Runtime{
		logger:          logger,
		services:        services,
		shutdownTimeout: shutdownTimeout,
		errs:            make(chan error, 1),
	}
}

// AddServer registers a server started after every service.
func (r *Runtime) AddServer(name string, srv *http.Server) {
	r.servers = append(r.servers, &server{name: name, srv: srv})
}

// Addr returns the bound address of the named server, or "" before Start.
func (r *Runtime) Addr(name string) string {
	for _, s := range r.servers {
		if s.name == name && s.ln != nil {
			return s.ln.Addr().String()
		}
	}
	return ""
}

// Errors reports the first server that stopped serving on its own.
func (r *Runtime) Errors() <-chan error {
	return r.errs
}

// Start starts all services concurrently, then binds and serves every server.
// A failed start stops whatever had started.
func (r *Runtime) Start(ctx context.Context) error {
	r.logger.Info("starting runtime", log.Int("services", len(r.services)))

	started := make([]bool, len(r.services))
	errs := make([]error, len(r.services))
	var g errgroup.Group
	for i, svc := range r.services {
		g.Go(func() error {
			if err := svc.Start(ctx); err != nil {
				r.logger.Error(err, "service start failed", log.Int("index", i))
				errs[i] = fmt.Errorf("service %d start failed: %w", i, err)
				return nil
			}
			started[i] = true
			r.logger.Info("service started", log.Int("index", i))
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		r.stopServices(ctx, started)
		return err
	}

	for _, s := range r.servers {
		ln, err := net.Listen("tcp", s.srv.Addr)
		if err != nil {
			for _, opened := range r.servers {
				if opened.ln != nil {
					_ = opened.ln.Close()
					opened.ln = nil
				}
			}
			r.stopServices(ctx, started)
			return fmt.Errorf("%s server listen on %s: %w", s.name, s.srv.Addr, err)
		}
		s.ln = ln
	}

	for _, s := range r.servers {
		go r.serve(s)
	}

	r.logger.Info("runtime started successfully")
	return nil
}

func (r *Runtime) serve(s *server) {
	r.logger.Info("starting server", log.Str("server", s.name), log.Str("addr", s.ln.Addr().String()))
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		r.logger.Error(err, "server failed", log.Str("server", s.name))
		select {
		case r.errs <- fmt.Errorf("%s server: %w", s.name, err):
		default:
		}
	}
}

// Stop drains the servers, then stops every service.
// Service stop failures are joined into the returned error.
func (r *Runtime) Stop(ctx context.Context) error {
	r.logger.Info("stopping runtime")

	shutdownCtx, cancel := context.WithTimeout(ctx, r.shutdownTimeout)
	defer cancel()

	r.shutdownServers(shutdownCtx)

	all := make([]bool, len(r.services))
	for i := range all {
		all[i] = true
	}
	err := r.stopServices(shutdownCtx, all)

	r.logger.Info("runtime stopped")
	return err
}

func (r *Runtime) shutdownServers(ctx context.Context) {
	for _, s := range r.servers {
		if s.ln == nil {
			continue
		}
		if err := s.srv.Shutdown(ctx); err != nil {
			r.logger.Error(err, "server shutdown failed", log.Str("server", s.name))
		}
	}
}

func (r *Runtime) stopServices(ctx context.Context, which []bool) error {
	errs := make([]error, len(r.services))
	var g errgroup.Group
	for i, svc := range r.services {
		if !which[i] {
			continue
		}
		g.Go(func() error {
			if err := svc.Stop(ctx); err != nil {
				r.logger.Error(err, "service stop failed", log.Int("index", i))
				errs[i] = fmt.Errorf("service %d stop failed: %w", i, err)
				return nil
			}
			r.logger.Info("service stopped", log.Int("index", i))
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
