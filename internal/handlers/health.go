package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"jamwathq/internal/api"
	"jamwathq/internal/apperr"
)

var ErrRouteNotFound = apperr.New(apperr.NotFound, "Endpoint not found")

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db             Pinger
	started        time.Time
	reviewsEnabled bool
	now            func() time.Time
}

func NewHealthHandler(db Pinger, reviewsEnabled bool, now func() time.Time) *HealthHandler {
	if now == nil {
		now = time.Now
	}
	return &HealthHandler{db: db, started: now(), reviewsEnabled: reviewsEnabled, now: now}
}

func (h *HealthHandler) Health(r *http.Request) (*api.Response, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, database, code := "ok", "connected", http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		slog.Warn("health check database ping failed", "error", err)
		status, database, code = "degraded", "unavailable", http.StatusServiceUnavailable
	}

	now := h.now()
	return &api.Response{
		Status: code,
		Data: map[string]any{
			"status":    status,
			"timestamp": now.UTC(),
			"uptime":    int(now.Sub(h.started).Seconds()),
			"database":  database,
			"reviews":   h.reviewsEnabled,
		},
	}, nil
}

// UnderDevelopment answers every request with a 503 stub.
func UnderDevelopment(message string) api.HandlerFunc {
	err := apperr.New(apperr.Unavailable, message).WithFields(map[string]any{"underDevelopment": true})
	return func(r *http.Request) (*api.Response, error) {
		return nil, err
	}
}
