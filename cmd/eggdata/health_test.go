package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHealthCheckBreaker(t *testing.T) {
	var calls atomic.Int32
	failing := errors.New("database ping failed")
	h := newHealthCheck(func(ctx context.Context) error {
		calls.Add(1)
		return failing
	}, 2, time.Minute)

	check := func() (int, healthResponse) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		var resp healthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return rec.Code, resp
	}

	for i := 0; i < 2; i++ {
		code, resp := check()
		if code != http.StatusServiceUnavailable || resp.Error != failing.Error() {
			t.Errorf("check %d = %d %+v", i, code, resp)
		}
	}

	code, resp := check()
	if code != http.StatusServiceUnavailable || resp.Breaker != "open" {
		t.Errorf("tripped check = %d %+v, want open breaker", code, resp)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("ping calls = %d, want 2", got)
	}
}

func TestHealthCheckOK(t *testing.T) {
	h := newHealthCheck(func(ctx context.Context) error { return nil }, 3, time.Second)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || resp.Status != "ok" || resp.Breaker != "closed" {
		t.Errorf("healthz = %d %+v", rec.Code, resp)
	}
}
