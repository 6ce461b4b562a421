package main

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"go.eggybyte.com/eggdata/httpx"
)

// healthCheck pings the backends behind a circuit breaker, so a health check
// storm against a dead backend answers from the open breaker.
type healthCheck struct {
	ping func(ctx context.Context) error
	cb   *gobreaker.CircuitBreaker
}

type healthResponse struct {
	Status  string `json:"status"`
	Breaker string `json:"breaker"`
	Error   string `json:"error,omitempty"`
}

func newHealthCheck(ping func(ctx context.Context) error, threshold uint32, cooldown time.Duration) *healthCheck {
	return &healthCheck{
		ping: ping,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "backends",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
		}),
	}
}

func (h *healthCheck) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, err := h.cb.Execute(func() (interface{}, error) {
		return nil, h.ping(r.Context())
	})

	resp := healthResponse{Status: "ok", Breaker: h.cb.State().String()}
	if err != nil {
		resp.Status = "unavailable"
		resp.Error = err.Error()
		_ = httpx.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, resp)
}
