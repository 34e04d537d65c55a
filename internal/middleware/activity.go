package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"jamwathq/internal/api"
	"jamwathq/internal/audit"
	"jamwathq/internal/models"

	"github.com/go-chi/chi/v5"
)

const maxLoggedBody = 64 << 10

// ActivityLogger records successful admin mutations.
type ActivityLogger struct {
	recorder ActivityRecorder
}

func NewActivityLogger(recorder ActivityRecorder) *ActivityLogger {
	return &ActivityLogger{recorder: recorder}
}

// Wrap runs h and, if it returned a 2xx response, records one activity entry
// for the principal in the request context. Failed handlers and non-2xx
// responses are never logged. Recording failures do not affect the response.
func (l *ActivityLogger) Wrap(action models.Action, targetType models.TargetType, h api.HandlerFunc) api.HandlerFunc {
	return func(r *http.Request) (*api.Response, error) {
		body := captureBody(r)

		resp, err := h(r)
		if err != nil {
			return resp, err
		}

		status := http.StatusOK
		if resp != nil && resp.Status != 0 {
			status = resp.Status
		}
		if status < 200 || status >= 300 {
			return resp, nil
		}

		admin := GetAdmin(r)
		if admin == nil {
			slog.Warn("activity without principal", "action", action, "path", r.URL.Path)
			return resp, nil
		}

		entry := audit.ActivityEntry{
			AdminID:    admin.ID,
			Action:     action,
			TargetType: targetType,
			TargetID:   chi.URLParam(r, "id"),
			Details: map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"query":  flattenQuery(r),
				"body":   body,
			},
			IP:        api.ClientIP(r),
			UserAgent: r.UserAgent(),
		}
		if _, err := l.recorder.Log(r.Context(), entry); err != nil {
			slog.Error("failed to record activity", "action", action, "admin_id", admin.ID, "error", err)
		}
		return resp, nil
	}
}

// captureBody reads at most maxLoggedBody bytes of the JSON request body for
// the log and puts a reader back that yields the full original body. Larger
// bodies are passed through unlogged.
func captureBody(r *http.Request) any {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(raw), r.Body), r.Body}
	if err != nil || len(raw) == 0 || len(raw) > maxLoggedBody {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}
	return redact(decoded)
}

var sensitiveKeys = []string{"password", "token", "secret"}

func redact(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			lower := strings.ToLower(k)
			masked := false
			for _, s := range sensitiveKeys {
				if strings.Contains(lower, s) {
					t[k] = "[REDACTED]"
					masked = true
					break
				}
			}
			if !masked {
				t[k] = redact(inner)
			}
		}
	case []any:
		for i, inner := range t {
			t[i] = redact(inner)
		}
	}
	return v
}

func flattenQuery(r *http.Request) map[string]any {
	query := map[string]any{}
	for k, v := range r.URL.Query() {
		if len(v) == 1 {
			query[k] = v[0]
		} else {
			query[k] = v
		}
	}
	return query
}
