package ormx

import (
	"context"
	"net/http"
)

// Middleware wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// PassThrough is the middleware returned when no backend is configured.
func PassThrough(next http.Handler) http.Handler {
	return next
}

type connectionsKey struct{}

// WithConnections returns a context carrying the record.
func WithConnections(ctx context.Context, conns *Connections) context.Context {
	return context.WithValue(ctx, connectionsKey{}, conns)
}

// FromContext returns the record attached by the middleware.
func FromContext(ctx context.Context) (*Connections, bool) {
	conns, ok := ctx.Value(connectionsKey{}).(*Connections)
	return conns, ok && conns != nil
}

// FromRequest is FromContext on the request context.
func FromRequest(r *http.Request) (*Connections, bool) {
	return FromContext(r.Context())
}

// Middleware returns a middleware attaching the record to every request.
func (c *Connections) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithConnections(r.Context(), c)))
		})
	}
}
