package cachex

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"go.eggybyte.com/eggdata/core/errors"
	"go.eggybyte.com/eggdata/testingx"
)

func hostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("SplitHostPort(%s) error = %v", addr, err)
	}
	p, _ := strconv.Atoi(port)
	return host, p
}

func TestConnect(t *testing.T) {
	mr := testingx.StartRedis(t)
	host, port := hostPort(t, mr.Addr())
	logger := testingx.NewMockLogger(t)

	client, err := Connect(context.Background(), Options{Host: host, Port: port, Logger: logger})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if client.Addr() != mr.Addr() {
		t.Errorf("Addr() = %s, want %s", client.Addr(), mr.Addr())
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := client.Redis().Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	if client.PoolStats() == nil {
		t.Error("PoolStats() = nil")
	}
	logger.AssertLogged("INFO", "redis connected")

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if !client.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if err := client.Ping(context.Background()); err == nil {
		t.Error("Ping() after Close should fail")
	}
}

func TestCloseAfterUnderlyingClientClosed(t *testing.T) {
	mr := testingx.StartRedis(t)
	host, port := hostPort(t, mr.Addr())

	client, err := Connect(context.Background(), Options{Host: host, Port: port})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := client.Redis().Close(); err != nil {
		t.Fatalf("underlying Close() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil for an already closed pool", err)
	}
	if !client.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
}

func TestConnectURL(t *testing.T) {
	mr := testingx.StartRedis(t)

	client, err := Connect(context.Background(), Options{URL: "redis://" + mr.Addr() + "/2"})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if got := client.Redis().Options().DB; got != 2 {
		t.Errorf("DB = %d, want 2", got)
	}
}

func TestConnectRefused(t *testing.T) {
	mr := testingx.StartRedis(t)
	host, port := hostPort(t, mr.Addr())
	mr.Close()

	logger := testingx.NewMockLogger(t)
	_, err := Connect(context.Background(), Options{
		Host:        host,
		Port:        port,
		DialTimeout: 200 * time.Millisecond,
		Logger:      logger,
	})
	testingx.AssertError(t, err, errors.CodeUnavailable)

	failures := logger.Find("ERROR", "redis connection failed")
	if len(failures) != 1 {
		t.Fatalf("expected one failure log, got %v", logger.Entries())
	}
	if v, _ := failures[0].Field("host"); v != host {
		t.Errorf("logged host = %v, want %s", v, host)
	}
	if v, _ := failures[0].Field("port"); v != strconv.Itoa(port) {
		t.Errorf("logged port = %v, want %d", v, port)
	}
}

func TestConnectAuthFailure(t *testing.T) {
	mr := testingx.StartRedis(t)
	mr.RequireAuth("secret")
	host, port := hostPort(t, mr.Addr())

	_, err := Connect(context.Background(), Options{Host: host, Port: port, Password: "wrong"})
	testingx.AssertError(t, err, errors.CodeUnavailable)
}

func TestConnectInvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), Options{URL: "http://nope"})
	testingx.AssertError(t, err, errors.CodeInvalidArgument)
}

func TestOptionsAddr(t *testing.T) {
	tests := []struct {
		opts Options
		want string
	}{
		{opts: Options{}, want: "localhost:6379"},
		{opts: Options{Host: "cache", Port: 6380}, want: "cache:6380"},
		{opts: Options{Host: "::1", Port: 1}, want: "[::1]:1"},
	}
	for _, tt := range tests {
		if got := tt.opts.Addr(); got != tt.want {
			t.Errorf("Addr() = %s, want %s", got, tt.want)
		}
	}
}
