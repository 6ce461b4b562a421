// Package cachex opens the Redis cache backend.
//
// Overview:
//   - Responsibility: Open one go-redis client and report its first connection outcome
//   - Key Types: Options, Client
//   - Concurrency Model: Client is safe for concurrent use
//   - Error Semantics: Connect returns CodeUnavailable errors; there is no retry
//   - Performance Notes: One pooled client per process
//
// Connect settles on whichever happens first: the client's connect hook
// firing for a fully initialised connection, or the first dial/ping error.
//
// Usage:
//
//	client, err := cachex.Connect(ctx, cachex.Options{Host: "localhost", Port: 6379, Logger: logger})
//	defer client.Close()
package cachex

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"go.eggybyte.com/eggdata/cachex/internal"
	"go.eggybyte.com/eggdata/core/errors"
	"go.eggybyte.com/eggdata/core/log"
)

// Options configures the Redis connection.
type Options struct {
	URL          string        // redis:// or rediss:// URL; overrides Host, Port, Password and DB
	Host         string        // default localhost
	Port         int           // default 6379
	Username     string
	Password     string
	DB           int
	PoolSize     int           // default 10
	DialTimeout  time.Duration // default 5s
	ReadTimeout  time.Duration // default 3s
	WriteTimeout time.Duration // default 3s
	Logger       log.Logger
}

// Addr returns host:port for the options.
func (o Options) Addr() string {
	host := o.Host
	if host == "" {
		host = "localhost"
	}
	port := o.Port
	if port == 0 {
		port = 6379
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (o Options) redisOptions() (*redis.Options, error) {
	var ro *redis.Options
	if o.URL != "" {
		parsed, err := redis.ParseURL(o.URL)
		if err != nil {
			return nil, err
		}
		ro = parsed
	} else {
		ro = &redis.Options{
			Addr:     o.Addr(),
			Username: o.Username,
			Password: o.Password,
			DB:       o.DB,
		}
	}

	ro.PoolSize = o.PoolSize
	if ro.PoolSize == 0 {
		ro.PoolSize = 10
	}
	ro.DialTimeout = orDefault(o.DialTimeout, 5*time.Second)
	ro.ReadTimeout = orDefault(o.ReadTimeout, 3*time.Second)
	ro.WriteTimeout = orDefault(o.WriteTimeout, 3*time.Second)
	// A failed attempt is reported as is.
	ro.MaxRetries = -1
	return ro, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	return d
}

// Client is an open Redis connection.
type Client struct {
	rdb    *redis.Client
	addr   string
	closed atomic.Bool
}

// Connect opens a client and waits for the first connection outcome.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	ro, err := opts.redisOptions()
	if err != nil {
		return nil, errors.Wrap(errors.CodeInvalidArgument, "cachex.Connect", err)
	}
	addr := ro.Addr

	latch := internal.NewLatch()
	ro.OnConnect = func(ctx context.Context, cn *redis.Conn) error {
		latch.Succeed()
		return nil
	}

	rdb := redis.NewClient(ro)
	go func() {
		if err := rdb.Ping(ctx).Err(); err != nil {
			latch.Fail(err)
		}
	}()

	if err := latch.Wait(ctx); err != nil {
		host, port := splitAddr(addr)
		logger.Error(err, "redis connection failed", log.Str("host", host), log.Str("port", port))
		_ = rdb.Close()
		return nil, errors.Wrapf(errors.CodeUnavailable, "cachex.Connect", err, "connect %s", addr)
	}

	logger.Info("redis connected", log.Str("addr", addr))
	return &Client{rdb: rdb, addr: addr}, nil
}

func splitAddr(addr string) (string, string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, ""
	}
	return host, port
}

// Redis returns the underlying go-redis client.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Addr returns the host:port the client dials.
func (c *Client) Addr() string {
	return c.addr
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return fmt.Errorf("redis client %s is closed", c.addr)
	}
	return c.rdb.Ping(ctx).Err()
}

// PoolStats returns connection pool statistics.
func (c *Client) PoolStats() *redis.PoolStats {
	return c.rdb.PoolStats()
}

// Close disconnects the client. Closing twice is a no-op.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

// IsClosed reports whether Close has been called.
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
