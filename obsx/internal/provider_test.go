package internal

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(context.Background(), ProviderOptions{
		ServiceName:    "eggdata-test",
		ServiceVersion: "0.0.1",
		ResourceAttrs:  map[string]string{"env": "test", "region": "local"},
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p
}

func scrape(t *testing.T, p *Provider) string {
	t.Helper()
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d, want %d", rec.Code, http.StatusOK)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		opts    ProviderOptions
		wantErr bool
	}{
		{"valid", ProviderOptions{ServiceName: "svc", ServiceVersion: "1.0.0"}, false},
		{"empty version", ProviderOptions{ServiceName: "svc"}, false},
		{"empty service name", ProviderOptions{ServiceVersion: "1.0.0"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(context.Background(), tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if p.MeterProvider == nil {
					t.Error("MeterProvider is nil")
				}
				if p.Registerer() == nil {
					t.Error("Registerer() is nil")
				}
				_ = p.Shutdown(context.Background())
			}
		})
	}
}

func TestDurationBuckets(t *testing.T) {
	tests := []struct {
		name    string
		buckets []float64
		want    []string
		absent  string
	}{
		{"default", nil, []string{`le="0.25"`, `le="30"`}, `le="0.75"`},
		{"custom", []float64{0.75, 3}, []string{`le="0.75"`, `le="3"`}, `le="0.25"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(context.Background(), ProviderOptions{ServiceName: "svc", DurationBuckets: tt.buckets})
			if err != nil {
				t.Fatalf("NewProvider() error = %v", err)
			}
			defer p.Shutdown(context.Background())

			h, err := p.MeterProvider.Meter("test").Float64Histogram("setup_seconds")
			if err != nil {
				t.Fatalf("Float64Histogram() error = %v", err)
			}
			h.Record(context.Background(), 0.2)

			body := scrape(t, p)
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("scrape missing %s", want)
				}
			}
			if strings.Contains(body, tt.absent) {
				t.Errorf("scrape contains unexpected %s", tt.absent)
			}
		})
	}
}

func TestHandler_NilRegistry(t *testing.T) {
	p := &Provider{}
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestShutdown_NilMeterProvider(t *testing.T) {
	p := &Provider{}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestRegisterDBMetrics(t *testing.T) {
	p := newTestProvider(t)

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "metrics.db"))
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(3)

	if _, err := RegisterDBMetrics("main", db, p.MeterProvider); err != nil {
		t.Fatalf("RegisterDBMetrics() error = %v", err)
	}

	body := scrape(t, p)
	for _, want := range []string{"db_pool_open_connections", "db_pool_max_open", `db_name="main"`} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

type stubGORM struct {
	db  *sql.DB
	err error
}

func (s stubGORM) DB() (*sql.DB, error) { return s.db, s.err }

func TestRegisterGORMMetrics_Error(t *testing.T) {
	p := newTestProvider(t)
	_, err := RegisterGORMMetrics("gorm", stubGORM{err: errors.New("no pool")}, p.MeterProvider)
	if err == nil || !strings.Contains(err.Error(), "no pool") {
		t.Errorf("RegisterGORMMetrics() error = %v, want wrapped 'no pool'", err)
	}
}

func TestRegisterRedisPoolMetrics(t *testing.T) {
	p := newTestProvider(t)

	stats := &redis.PoolStats{Hits: 7, Misses: 2, TotalConns: 4, IdleConns: 3}
	if _, err := RegisterRedisPoolMetrics("cache", func() *redis.PoolStats { return stats }, p.MeterProvider); err != nil {
		t.Fatalf("RegisterRedisPoolMetrics() error = %v", err)
	}

	body := scrape(t, p)
	for _, want := range []string{"redis_pool_total_conns", "redis_pool_hits_total", `redis_name="cache"`} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

func TestRegisterRedisPoolMetrics_NilStats(t *testing.T) {
	p := newTestProvider(t)
	if _, err := RegisterRedisPoolMetrics("cache", func() *redis.PoolStats { return nil }, p.MeterProvider); err != nil {
		t.Fatalf("RegisterRedisPoolMetrics() error = %v", err)
	}
	if body := scrape(t, p); strings.Contains(body, `redis_name="cache"`) {
		t.Error("nil stats should not produce observations")
	}
}
