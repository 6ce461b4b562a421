// Package httpx provides JSON responses, error mapping and security headers.
//
// Overview:
//   - Responsibility: HTTP response helpers shared by eggdata servers
//   - Key Types: ErrorResponse, SecurityHeaders
//   - Concurrency Model: All functions are safe for concurrent use
//   - Error Semantics: Structured error codes map onto HTTP status codes
//   - Performance Notes: Responses are streamed through json.Encoder
//
// Usage:
//
//	mux.Handle("/", httpx.NotFoundHandler())
//	handler := httpx.SecureMiddleware(httpx.DefaultSecurityHeaders())(mux)
//	if err := conns.Ping(ctx); err != nil {
//	    httpx.WriteError(w, err)
//	}
package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.eggybyte.com/eggdata/core/errors"
)

// ErrorResponse represents a standard JSON error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// StatusOf maps the code of err onto an HTTP status.
// Errors without a known code are internal server errors.
func StatusOf(err error) int {
	switch errors.CodeOf(err) {
	case errors.CodeInvalidArgument:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeAlreadyExists, errors.CodeAborted:
		return http.StatusConflict
	case errors.CodeFailedPrecond:
		return http.StatusPreconditionFailed
	case errors.CodeUnavailable:
		return http.StatusServiceUnavailable
	case errors.CodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	case errors.CodeUnimplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as a JSON error response with the status from StatusOf.
func WriteError(w http.ResponseWriter, err error) error {
	return WriteErrorStatus(w, err, StatusOf(err))
}

// WriteErrorStatus writes err as a JSON error response with an explicit status.
func WriteErrorStatus(w http.ResponseWriter, err error, status int) error {
	return WriteJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    string(errors.CodeOf(err)),
		Message: err.Error(),
	})
}

// NotFoundHandler returns a standard 404 JSON response.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = WriteJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "Not Found",
			Message: fmt.Sprintf("Path %s not found", r.URL.Path),
		})
	}
}

// SecurityHeaders selects the security headers added to every response.
type SecurityHeaders struct {
	ContentTypeOptions    bool   // X-Content-Type-Options: nosniff
	FrameOptions          bool   // X-Frame-Options: DENY
	ReferrerPolicy        bool   // Referrer-Policy: no-referrer
	StrictTransportSec    bool   // Strict-Transport-Security (HSTS)
	HSTSMaxAge            int    // Max age for HSTS in seconds
	ContentSecurityPolicy string // Optional CSP header
}

// DefaultSecurityHeaders returns security headers with sensible defaults.
// HSTS is off; it belongs at the load balancer.
func DefaultSecurityHeaders() SecurityHeaders {
	return SecurityHeaders{
		ContentTypeOptions: true,
		FrameOptions:       true,
		ReferrerPolicy:     true,
		HSTSMaxAge:         31536000,
	}
}

// Apply sets the selected headers on h.
func (s SecurityHeaders) Apply(h http.Header) {
	if s.ContentTypeOptions {
		h.Set("X-Content-Type-Options", "nosniff")
	}
	if s.FrameOptions {
		h.Set("X-Frame-Options", "DENY")
	}
	if s.ReferrerPolicy {
		h.Set("Referrer-Policy", "no-referrer")
	}
	if s.StrictTransportSec {
		h.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", s.HSTSMaxAge))
	}
	if s.ContentSecurityPolicy != "" {
		h.Set("Content-Security-Policy", s.ContentSecurityPolicy)
	}
}

// SecureMiddleware adds security headers to responses.
func SecureMiddleware(headers SecurityHeaders) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers.Apply(w.Header())
			next.ServeHTTP(w, r)
		})
	}
}
