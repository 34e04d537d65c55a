package handlers

import (
	"net/http"
	"strconv"

	"jamwathq/internal/api"
	"jamwathq/internal/apperr"
	"jamwathq/internal/audit"
	"jamwathq/internal/middleware"
	"jamwathq/internal/models"

	"github.com/go-chi/chi/v5"
)

type LogsHandler struct {
	activity *audit.ActivityStore
	security *audit.SecurityStore
}

func NewLogsHandler(activity *audit.ActivityStore, security *audit.SecurityStore) *LogsHandler {
	return &LogsHandler{activity: activity, security: security}
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Invalid(name + " must be a non-negative integer")
	}
	return n, nil
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func (h *LogsHandler) Activity(r *http.Request) (*api.Response, error) {
	limit, err := queryInt(r, "limit", audit.DefaultLimit)
	if err != nil {
		return nil, err
	}
	filter := audit.ActivityFilter{
		AdminID: r.URL.Query().Get("adminId"),
		Action:  models.Action(r.URL.Query().Get("action")),
		Limit:   limit,
	}
	if filter.Action != "" && !filter.Action.Valid() {
		return nil, apperr.Invalid("Unknown action filter")
	}

	logs, err := h.activity.List(r.Context(), filter)
	if err != nil {
		return nil, err
	}
	return api.OK(map[string]any{"count": len(logs), "logs": logs}), nil
}

func (h *LogsHandler) Security(r *http.Request) (*api.Response, error) {
	if queryBool(r, "critical") {
		logs, err := h.security.Critical(r.Context())
		if err != nil {
			return nil, err
		}
		return api.OK(map[string]any{"count": len(logs), "logs": logs}), nil
	}

	limit, err := queryInt(r, "limit", audit.DefaultLimit)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	filter := audit.SecurityFilter{
		Type:       models.SecurityEventType(q.Get("type")),
		Severity:   models.Severity(q.Get("severity")),
		IP:         q.Get("ip"),
		Unresolved: queryBool(r, "unresolved"),
		Limit:      limit,
	}
	if filter.Severity != "" && !filter.Severity.Valid() {
		return nil, apperr.Invalid("Unknown severity filter")
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, apperr.Invalid("Unknown event type filter")
	}

	logs, err := h.security.List(r.Context(), filter)
	if err != nil {
		return nil, err
	}
	return api.OK(map[string]any{"count": len(logs), "logs": logs}), nil
}

func (h *LogsHandler) SecurityStats(r *http.Request) (*api.Response, error) {
	days, err := queryInt(r, "days", 7)
	if err != nil {
		return nil, err
	}
	if days == 0 {
		days = 7
	}
	stats, err := h.security.Stats(r.Context(), days)
	if err != nil {
		return nil, err
	}
	return api.OK(map[string]any{"days": days, "stats": stats}), nil
}

func (h *LogsHandler) Resolve(r *http.Request) (*api.Response, error) {
	admin := middleware.GetAdmin(r)
	entry, err := h.security.Resolve(r.Context(), chi.URLParam(r, "id"), admin.ID)
	if err != nil {
		return nil, err
	}
	return &api.Response{Status: http.StatusOK, Message: "Security event resolved", Data: map[string]any{"log": entry}}, nil
}
