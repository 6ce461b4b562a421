// Package ormx wires model definitions into persistence backends and
// starts them as one unit.
//
// Overview:
//   - Responsibility: Classify models, start redis, gorm, entity and collection
//     backends concurrently, tear them down symmetrically
//   - Key Types: Options, Config, Connections, Buckets, Middleware
//   - Concurrency Model: Backends start on their own goroutines; Setup waits for all
//   - Error Semantics: One aggregate error with CodeBackendFailed, one BackendError per failed backend
//   - Performance Notes: Entity syncs of the gorm backend run concurrently after authentication
//
// Usage:
//
//	mw, conns, err := ormx.Setup(ctx, ormx.Options{
//	    Logger: logger,
//	    Models: ormx.Models{"users": ormx.AsFactory(newUser)},
//	    Config: ormx.Config{GORM: &ormx.GORMConfig{GORMOptions: storex.GORMOptions{Driver: "postgres", DSN: dsn}}},
//	})
//	if err != nil {
//	    return err
//	}
//	defer ormx.Close(ctx, conns)
//	http.ListenAndServe(addr, mw(handler))
package ormx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"

	"go.eggybyte.com/eggdata/core/errors"
	"go.eggybyte.com/eggdata/core/log"
	"go.eggybyte.com/eggdata/logx"
	"go.eggybyte.com/eggdata/obsx"
)

const meterName = "go.eggybyte.com/eggdata/ormx"

// Callback receives the outcome of Setup.
type Callback func(mw Middleware, conns *Connections, err error)

// Options configures Setup.
type Options struct {
	Logger log.Logger

	// Models is a pre-built map of model definitions.
	Models Models
	// ModelSets maps file-like names to model maps. Only sets whose name
	// contains "model" are classified.
	ModelSets map[string]Models
	// Omit names skipped during classification. DefaultOmit when nil.
	Omit []string

	Config Config

	// Callback, when set, receives the outcome and Setup returns a nil error.
	Callback Callback

	// CloseOnFailure closes the backends that did start when a sibling
	// failed. When false they are left open and named in a warning.
	CloseOnFailure bool

	// MeterProvider records init durations and registers pool gauges.
	MeterProvider metric.MeterProvider
}

// Setup classifies the models, starts every enabled backend concurrently
// and returns a middleware exposing the resulting record.
//
// When no backend is enabled the pass-through middleware and an empty
// record are returned without starting anything. When any backend fails
// the error has CodeBackendFailed, wraps one BackendError per failed
// backend in fixed order, and no record is returned.
func Setup(ctx context.Context, opts Options) (Middleware, *Connections, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	if !opts.Config.AnyEnabled() {
		logger.Warn("not registering any ORMs or cursors")
		return opts.deliver(PassThrough, newConnections(logger), nil)
	}

	ctx = logx.WithFields(ctx, "run_id", uuid.NewString())
	logger = logx.FromContext(ctx, logger)

	omit := opts.Omit
	if omit == nil {
		omit = DefaultOmit
	}
	buckets := NewBuckets()
	classifyInto(opts.Models, omit, buckets, logger)
	classifySets(opts.ModelSets, omit, buckets, logger)
	warnUnrecognized(buckets, logger)

	mp := opts.MeterProvider
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	initDuration, err := mp.Meter(meterName).Float64Histogram(
		"eggdata_backend_init_seconds",
		metric.WithDescription("Time taken to initialise one backend"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("init duration histogram unavailable", log.Str("error", err.Error()))
		initDuration, _ = noop.NewMeterProvider().Meter(meterName).Float64Histogram("eggdata_backend_init_seconds")
	}

	conns := newConnections(logger)
	cfg := opts.Config
	errs := make([]error, len(Kinds))

	var g errgroup.Group
	for i, kind := range Kinds {
		if !cfg.Enabled(kind) {
			continue
		}
		conns.attempted[kind] = true
		blog := logger.With(log.Str("backend", string(kind)))

		g.Go(func() error {
			start := time.Now()
			err := startRecovered(ctx, kind, cfg, buckets, conns, blog)

			outcome := "ok"
			if err != nil {
				outcome = "error"
				errs[i] = &BackendError{Backend: kind, Err: err}
			}
			initDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
				attribute.String("backend", string(kind)),
				attribute.String("outcome", outcome),
			))
			blog.Debug("backend settled", log.Str("outcome", outcome), log.Dur("elapsed", time.Since(start)))
			return nil
		})
	}
	_ = g.Wait()

	if joined := errors.Join(errs...); joined != nil {
		agg := errors.Wrap(CodeBackendFailed, "ormx.Setup", joined)
		logger.Error(agg, "backend setup failed", log.Strs("failed", kindNames(FailedBackends(agg))))
		abandon(ctx, conns, opts.CloseOnFailure, logger)
		return opts.deliver(nil, nil, agg)
	}

	if opts.MeterProvider != nil {
		registerPoolMetrics(opts.MeterProvider, conns, logger)
	}

	logger.Info("backends started", log.Strs("backends", kindNames(conns.Backends())))
	return opts.deliver(conns.Middleware(), conns, nil)
}

// startRecovered runs startBackend and reports a panic escaping an
// initializer as a construction failure of that backend.
func startRecovered(ctx context.Context, kind Kind, cfg Config, b *Buckets, conns *Connections, logger log.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(CodeConstruction, "ormx."+string(kind), fmt.Errorf("panic: %v", r), "start %s", kind)
		}
	}()
	return startBackend(ctx, kind, cfg, b, conns, logger)
}

func startBackend(ctx context.Context, kind Kind, cfg Config, b *Buckets, conns *Connections, logger log.Logger) error {
	var err error
	switch kind {
	case KindRedis:
		conns.Redis, err = initRedis(ctx, cfg.Redis, logger)
	case KindGORM:
		conns.GORM, err = initGORM(ctx, cfg.GORM, b.Factories, logger)
	case KindEntity:
		conns.Entity, err = initEntity(ctx, cfg.Entity, b.Entities, logger)
	case KindCollection:
		conns.Collection, err = initCollection(ctx, cfg.Collection, b.Collections, logger)
	}
	return err
}

// abandon handles backends that started during a failed run.
func abandon(ctx context.Context, conns *Connections, closeThem bool, logger log.Logger) {
	started := conns.Backends()
	if len(started) == 0 {
		return
	}
	if !closeThem {
		logger.Warn("started backends left open after failed setup", log.Strs("backends", kindNames(started)))
		return
	}
	if err := Close(ctx, conns); err != nil {
		logger.Error(err, "closing started backends failed")
		return
	}
	logger.Info("closed started backends", log.Strs("backends", kindNames(started)))
}

func registerPoolMetrics(mp metric.MeterProvider, conns *Connections, logger log.Logger) {
	warn := func(kind Kind, err error) {
		if err != nil {
			logger.Warn("pool metrics unavailable", log.Str("backend", string(kind)), log.Str("error", err.Error()))
		}
	}
	if conns.Redis != nil {
		warn(KindRedis, obsx.RegisterRedisMetrics(mp, string(KindRedis), conns.Redis.PoolStats))
	}
	if conns.GORM != nil {
		warn(KindGORM, obsx.RegisterGORMMetrics(mp, string(KindGORM), conns.GORM.DB))
	}
	if conns.Entity != nil {
		warn(KindEntity, obsx.RegisterGORMMetrics(mp, string(KindEntity), conns.Entity.Store.GetDB()))
	}
}

func (o Options) deliver(mw Middleware, conns *Connections, err error) (Middleware, *Connections, error) {
	if o.Callback == nil {
		return mw, conns, err
	}
	o.Callback(mw, conns, err)
	return mw, conns, nil
}

func kindNames(kinds []Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
