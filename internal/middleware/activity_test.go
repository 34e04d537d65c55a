package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jamwathq/internal/api"
	"jamwathq/internal/apperr"
	"jamwathq/internal/audit"
	"jamwathq/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityLogger_LogsOnlySuccess(t *testing.T) {
	h := newHarness(t)
	admin := h.createAdmin(t, "mod@jamwathq.com", models.RoleModerator)
	logger := NewActivityLogger(h.activity)

	var seenBody string
	respond := func(status int) api.HandlerFunc {
		return func(r *http.Request) (*api.Response, error) {
			b, _ := io.ReadAll(r.Body)
			seenBody = string(b)
			return &api.Response{Status: status}, nil
		}
	}

	router := chi.NewRouter()
	router.Use(h.auth.RequireAdmin)
	router.Post("/reviews/{id}/approve", api.Handle(logger.Wrap(models.ActionReviewApprove, models.TargetReview, respond(http.StatusOK))))
	router.Post("/reviews/{id}/reject", api.Handle(logger.Wrap(models.ActionReviewReject, models.TargetReview, respond(http.StatusBadRequest))))
	router.Post("/reviews/{id}/fail", api.Handle(logger.Wrap(models.ActionReviewDelete, models.TargetReview,
		func(r *http.Request) (*api.Response, error) {
			return nil, apperr.New(apperr.NotFound, "Review not found")
		})))

	send := func(path, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		r.Header.Set("Authorization", "Bearer "+h.token(t, admin))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		return w
	}

	w := send("/reviews/r1/reject", `{"reason":"spam"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, h.activityLogs(t))

	w = send("/reviews/r1/fail", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, h.activityLogs(t))

	w = send("/reviews/r1/approve?notify=1", `{"note":"ok","password":"hunter22"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"note":"ok","password":"hunter22"}`, seenBody)

	logs := h.activityLogs(t)
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, admin.ID, entry.AdminID)
	assert.Equal(t, models.ActionReviewApprove, entry.Action)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, "r1", *entry.TargetID)
	assert.Equal(t, "POST", entry.Details["method"])
	assert.Equal(t, "/reviews/r1/approve", entry.Details["path"])
	assert.Equal(t, map[string]any{"notify": "1"}, entry.Details["query"])
	assert.Equal(t, map[string]any{"note": "ok", "password": "[REDACTED]"}, entry.Details["body"])
}

type failingActivity struct{}

func (failingActivity) Log(context.Context, audit.ActivityEntry) (*models.ActivityLog, error) {
	return nil, errors.New("disk full")
}

func TestActivityLogger_RecorderFailureKeepsResponse(t *testing.T) {
	logger := NewActivityLogger(failingActivity{})
	h := logger.Wrap(models.ActionCacheClear, models.TargetSystem, func(r *http.Request) (*api.Response, error) {
		return api.OK(map[string]any{"cleared": true}), nil
	})

	r := httptest.NewRequest(http.MethodPost, "/cache", nil)
	r = r.WithContext(WithAdmin(r.Context(), &models.Admin{ID: "a1", Role: models.RoleSuperAdmin}))
	w := httptest.NewRecorder()
	api.Handle(h).ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["cleared"])
}

func TestActivityLogger_LargeBodyPassedThroughUnlogged(t *testing.T) {
	h := newHarness(t)
	admin := h.createAdmin(t, "mod@jamwathq.com", models.RoleModerator)
	logger := NewActivityLogger(h.activity)

	payload := `{"note":"` + strings.Repeat("x", maxLoggedBody) + `"}`
	var seen int
	wrapped := logger.Wrap(models.ActionContentUpdate, models.TargetContent, func(r *http.Request) (*api.Response, error) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = len(b)
		return api.OK(nil), nil
	})

	r := httptest.NewRequest(http.MethodPost, "/content", strings.NewReader(payload))
	r = r.WithContext(WithAdmin(r.Context(), admin))
	w := httptest.NewRecorder()
	api.Handle(wrapped).ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, len(payload), seen)

	logs := h.activityLogs(t)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].Details["body"])
}

func TestRedact(t *testing.T) {
	in := map[string]any{
		"newPassword": "x",
		"apiToken":    "y",
		"nested":      map[string]any{"clientSecret": "z", "keep": 1.0},
		"list":        []any{map[string]any{"password": "p"}},
	}
	out := redact(in)
	assert.Equal(t, map[string]any{
		"newPassword": "[REDACTED]",
		"apiToken":    "[REDACTED]",
		"nested":      map[string]any{"clientSecret": "[REDACTED]", "keep": 1.0},
		"list":        []any{map[string]any{"password": "[REDACTED]"}},
	}, out)
}
