package ormx

import (
	"context"

	"golang.org/x/sync/errgroup"

	"go.eggybyte.com/eggdata/core/log"
)

// Teardown closes every backend of conns concurrently and then calls done
// exactly once. A nil record calls done(nil) before returning; otherwise
// done runs on its own goroutine.
//
// Close failures of the redis, gorm and collection backends are logged and
// swallowed. An entity close failure is passed to done.
func Teardown(ctx context.Context, conns *Connections, done func(error)) {
	if done == nil {
		done = func(error) {}
	}
	if conns == nil {
		done(nil)
		return
	}
	go func() {
		done(closeAll(ctx, conns))
	}()
}

// Close is the synchronous form of Teardown.
func Close(ctx context.Context, conns *Connections) error {
	if conns == nil {
		return nil
	}
	return closeAll(ctx, conns)
}

func closeAll(ctx context.Context, conns *Connections) error {
	logger := conns.logger
	if logger == nil {
		logger = log.Nop()
	}
	swallow := func(kind Kind, err error) {
		if err != nil {
			logger.Warn("backend close failed", log.Str("backend", string(kind)), log.Str("error", err.Error()))
		}
	}

	var (
		g         errgroup.Group
		entityErr error
	)

	if c := conns.Redis; c != nil {
		g.Go(func() error {
			swallow(KindRedis, c.Close())
			return nil
		})
	}
	if c := conns.GORM; c != nil && c.Store != nil {
		g.Go(func() error {
			swallow(KindGORM, c.Store.Close())
			return nil
		})
	}
	if c := conns.Entity; c != nil && c.Store != nil && c.Store.IsConnected() {
		g.Go(func() error {
			entityErr = c.Store.Close()
			return nil
		})
	}
	if ont := conns.Collection; ont != nil {
		g.Go(func() error {
			swallow(KindCollection, ont.Teardown(ctx))
			return nil
		})
	}

	_ = g.Wait()
	return entityErr
}
