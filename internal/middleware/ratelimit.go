package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"jamwathq/internal/api"
	"jamwathq/internal/apperr"
	"jamwathq/internal/audit"
	"jamwathq/internal/models"
)

var ErrRateLimited = apperr.New(apperr.RateLimited, "Too many requests, please try again later.")

// WindowStore keeps one sliding window of hit times per key.
type WindowStore interface {
	// Allow drops hits at or before now-window, then records a hit at now
	// unless max hits remain. It returns whether the hit was recorded and the
	// number of hits in the window afterwards. The three steps are atomic
	// per key.
	Allow(ctx context.Context, key string, now time.Time, window time.Duration, max int) (bool, int, error)
}

type RateLimiter struct {
	store    WindowStore
	security SecurityRecorder
	window   time.Duration
	max      int
	now      func() time.Time
}

func NewRateLimiter(store WindowStore, security SecurityRecorder, window time.Duration, max int, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		store:    store,
		security: security,
		window:   window,
		max:      max,
		now:      now,
	}
}

// RetryAfter is the window length in whole seconds, rounded up.
func (l *RateLimiter) RetryAfter() int {
	return int(math.Ceil(l.window.Seconds()))
}

func rateKey(r *http.Request) string {
	principal := "anonymous"
	if admin := GetAdmin(r); admin != nil {
		principal = admin.ID
	}
	return api.ClientIP(r) + "-" + principal
}

// Handler limits requests per client IP and principal. A store failure lets
// the request through.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rateKey(r)
		allowed, count, err := l.store.Allow(r.Context(), key, l.now(), l.window, l.max)
		if err != nil {
			slog.Error("rate limit store failed", "key", key, "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		ev := audit.SecurityEvent{
			Type:     models.EventRateLimitViolation,
			Severity: models.SeverityMedium,
			Message:  "Rate limit exceeded",
			Details: map[string]any{
				"requestCount": count,
				"path":         r.URL.Path,
				"method":       r.Method,
			},
			IP:        api.ClientIP(r),
			UserAgent: r.UserAgent(),
		}
		if admin := GetAdmin(r); admin != nil {
			ev.UserID = admin.ID
		}
		if _, err := l.security.Log(r.Context(), ev); err != nil {
			slog.Error("failed to record security event", "type", ev.Type, "error", err)
		}

		retryAfter := l.RetryAfter()
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		api.WriteError(w, r, ErrRateLimited.WithFields(map[string]any{"retryAfter": retryAfter}))
	})
}
