package ormx

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.eggybyte.com/eggdata/cachex"
	"go.eggybyte.com/eggdata/collectx"
	"go.eggybyte.com/eggdata/storex"
	"go.eggybyte.com/eggdata/testingx"
)

// failingStore reports itself connected and fails to close.
type failingStore struct {
	storex.GORMStore
	err error
}

func (s *failingStore) IsConnected() bool { return true }
func (s *failingStore) Close() error      { return s.err }

// stuckAdapter is a memory adapter whose teardown always fails.
type stuckAdapter struct {
	*collectx.MemoryAdapter
}

func (a stuckAdapter) Teardown(ctx context.Context, connection string) error {
	return errors.New("adapter stuck")
}

func waitDone(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("teardown did not complete")
		return nil
	}
}

func TestTeardown_Nil(t *testing.T) {
	calls := 0
	Teardown(context.Background(), nil, func(err error) {
		calls++
		if err != nil {
			t.Errorf("done(%v), want nil", err)
		}
	})
	if calls != 1 {
		t.Errorf("done called %d times before return, want 1", calls)
	}

	if err := Close(context.Background(), nil); err != nil {
		t.Errorf("Close(nil) error = %v", err)
	}
	Teardown(context.Background(), nil, nil)
}

func TestTeardown_EmptyRecord(t *testing.T) {
	done := make(chan error, 2)
	Teardown(context.Background(), &Connections{}, func(err error) { done <- err })
	if err := waitDone(t, done); err != nil {
		t.Errorf("done(%v), want nil", err)
	}

	partial := &Connections{GORM: &GORMConnection{}, Entity: &EntityConnection{}}
	if err := Close(context.Background(), partial); err != nil {
		t.Errorf("Close(partial) error = %v", err)
	}
}

func TestTeardown_LegacyAdaptersKeepRegistry(t *testing.T) {
	ctx := context.Background()
	sqlite := collectx.NewSQLiteAdapter()
	memory := collectx.NewMemoryAdapter()
	noop := collectx.NewNoopAdapter()

	_, conns, err := Setup(ctx, Options{
		Models: Models{
			"orders": order{Identity: "orders", Connection: "sql"},
			"drafts": order{Identity: "drafts"},
			"audits": order{Identity: "audits", Connection: "void"},
		},
		Config: Config{Collection: &CollectionConfig{
			Connections: map[string]collectx.ConnectionConfig{
				"sql":     {Adapter: collectx.AdapterSQLite, URL: filepath.Join(t.TempDir(), "c.db")},
				"default": {Adapter: collectx.AdapterMemory},
				"void":    {Adapter: collectx.AdapterNoop},
			},
			Adapters: map[string]collectx.Adapter{
				collectx.AdapterSQLite: sqlite,
				collectx.AdapterMemory: memory,
				collectx.AdapterNoop:   noop,
			},
		}},
	})
	testingx.AssertNoError(t, err)

	for _, r := range []struct {
		name string
		reg  *collectx.Registry
		conn string
	}{{"sqlite", sqlite.Registry(), "sql"}, {"memory", memory.Registry(), "default"}, {"noop", noop.Registry(), "void"}} {
		if !r.reg.Has(r.conn) {
			t.Fatalf("%s registry missing %s before teardown", r.name, r.conn)
		}
	}

	done := make(chan error, 2)
	Teardown(ctx, conns, func(err error) { done <- err })
	if err := waitDone(t, done); err != nil {
		t.Errorf("done(%v), want nil", err)
	}

	if sqlite.Registry().Has("sql") {
		t.Error("sqlite connection still registered after teardown")
	}
	if !memory.Registry().Has("default") {
		t.Error("memory connection released; legacy adapters must keep their registry")
	}
	if !noop.Registry().Has("void") {
		t.Error("noop connection released; legacy adapters must keep their registry")
	}

	select {
	case err := <-done:
		t.Errorf("done called twice (second err = %v)", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTeardown_AllBackendsIdempotent(t *testing.T) {
	ctx := context.Background()
	mr := testingx.StartRedis(t)

	_, conns, err := Setup(ctx, Options{
		Models: Models{
			"books":  func() *book { return &book{} },
			"drafts": order{Identity: "drafts"},
		},
		Config: Config{
			Redis:  redisURL(mr),
			Entity: sqliteEntity(t),
			Collection: &CollectionConfig{
				Connections: map[string]collectx.ConnectionConfig{"default": {Adapter: collectx.AdapterMemory}},
			},
		},
	})
	testingx.AssertNoError(t, err)

	for i := 0; i < 2; i++ {
		if err := Close(ctx, conns); err != nil {
			t.Errorf("Close() #%d error = %v", i+1, err)
		}
	}
	if !conns.Redis.IsClosed() {
		t.Error("redis client not closed")
	}
	if conns.Entity.Store.IsConnected() {
		t.Error("entity store still connected")
	}
}

func TestTeardown_ForwardsOnlyEntityCloseError(t *testing.T) {
	ctx := context.Background()
	logger := testingx.NewMockLogger(t)
	mr := testingx.StartRedis(t)

	rdb, err := cachex.Connect(ctx, redisURL(mr).Options)
	testingx.AssertNoError(t, err)

	entityErr := errors.New("entity close failed")
	adapter := stuckAdapter{collectx.NewMemoryAdapter()}
	conns := &Connections{
		Redis:  rdb,
		GORM:   &GORMConnection{Store: &failingStore{err: errors.New("gorm close failed")}},
		Entity: &EntityConnection{Store: &failingStore{err: entityErr}},
		Collection: &collectx.Ontology{Connections: map[string]*collectx.Connection{
			"default": {Name: "default", Adapter: adapter},
		}},
		logger: logger,
	}

	done := make(chan error, 2)
	Teardown(ctx, conns, func(err error) { done <- err })
	got := waitDone(t, done)
	if !errors.Is(got, entityErr) {
		t.Fatalf("done(%v), want %v", got, entityErr)
	}
	if !rdb.IsClosed() {
		t.Error("redis client not closed")
	}

	warned := map[string]bool{}
	for _, entry := range logger.Find("WARN", "backend close failed") {
		if v, ok := entry.Field("backend"); ok {
			warned[v.(string)] = true
		}
	}
	for _, kind := range []Kind{KindGORM, KindCollection} {
		if !warned[string(kind)] {
			t.Errorf("no close warning for %s (got %v)", kind, warned)
		}
	}
	if warned[string(KindEntity)] {
		t.Error("entity close error logged as swallowed")
	}
}
