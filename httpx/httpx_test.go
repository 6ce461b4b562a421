package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.eggybyte.com/eggdata/core/errors"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.CodeInvalidArgument, "bad"), http.StatusBadRequest},
		{errors.New(errors.CodeNotFound, "missing"), http.StatusNotFound},
		{errors.Wrap(errors.CodeUnavailable, "redis", fmt.Errorf("refused")), http.StatusServiceUnavailable},
		{errors.New(errors.CodeDeadlineExceeded, "slow"), http.StatusGatewayTimeout},
		{errors.New(errors.Code("CONNECTIVITY"), "custom"), http.StatusInternalServerError},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusOf(tt.err); got != tt.want {
			t.Errorf("StatusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteError(rec, errors.New(errors.CodeUnavailable, "redis down")); err != nil {
		t.Fatalf("WriteError() error = %v", err)
	}

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "UNAVAILABLE" || resp.Error != "Service Unavailable" {
		t.Errorf("response = %+v", resp)
	}
}

func TestWriteJSON_NilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, http.StatusNoContent, nil); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Errorf("got %d with %d bytes", rec.Code, rec.Body.Len())
	}
}

func TestNotFoundHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFoundHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSecureMiddleware(t *testing.T) {
	h := SecureMiddleware(DefaultSecurityHeaders())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("X-Frame-Options not set")
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set although disabled by default")
	}
}

func TestSecurityHeadersApply(t *testing.T) {
	tests := []struct {
		name    string
		headers SecurityHeaders
		want    map[string]string
	}{
		{
			name:    "none",
			headers: SecurityHeaders{},
			want: map[string]string{
				"X-Content-Type-Options":    "",
				"Strict-Transport-Security": "",
			},
		},
		{
			name: "all",
			headers: SecurityHeaders{
				ContentTypeOptions:    true,
				FrameOptions:          true,
				ReferrerPolicy:        true,
				StrictTransportSec:    true,
				HSTSMaxAge:            60,
				ContentSecurityPolicy: "default-src 'self'",
			},
			want: map[string]string{
				"X-Content-Type-Options":    "nosniff",
				"X-Frame-Options":           "DENY",
				"Referrer-Policy":           "no-referrer",
				"Strict-Transport-Security": "max-age=60; includeSubDomains",
				"Content-Security-Policy":   "default-src 'self'",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			tt.headers.Apply(h)
			for k, v := range tt.want {
				if got := h.Get(k); got != v {
					t.Errorf("header %s = %q, want %q", k, got, v)
				}
			}
		})
	}
}
