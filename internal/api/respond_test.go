package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jamwathq/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestStatusFor(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.Unauthenticated:       401,
		apperr.InvalidOrExpiredToken: 401,
		apperr.AccountInactive:       403,
		apperr.AccountLocked:         403,
		apperr.Forbidden:             403,
		apperr.RateLimited:           429,
		apperr.StoreUnavailable:      500,
		apperr.NotFound:              404,
		apperr.InvalidInput:          400,
		apperr.Conflict:              409,
		apperr.Unavailable:           503,
		apperr.PayloadTooLarge:       413,
		apperr.Internal:              500,
	}
	for kind, status := range cases {
		assert.Equal(t, status, StatusFor(kind), kind.String())
	}
}

func TestHandle_Success(t *testing.T) {
	h := Handle(func(r *http.Request) (*Response, error) {
		return Created("Review submitted successfully!", map[string]any{"id": "r1"}), nil
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Review submitted successfully!", body["message"])
	assert.Equal(t, "r1", body["id"])
}

func TestHandle_ZeroStatusIsOK(t *testing.T) {
	h := Handle(func(r *http.Request) (*Response, error) {
		return &Response{Message: "done"}, nil
	})

	w := httptest.NewRecorder()
	require.NotPanics(t, func() { h(w, httptest.NewRequest(http.MethodPost, "/", nil)) })

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "done", body["message"])
}

func TestLimitBody(t *testing.T) {
	var decoded map[string]any
	h := LimitBody(64)(Handle(func(r *http.Request) (*Response, error) {
		if err := DecodeJSON(r, &decoded); err != nil {
			return nil, err
		}
		return OK(nil), nil
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@b.c", decoded["email"])

	oversized := `{"email":"` + strings.Repeat("a", 200) + `"}`

	// Declared length over the cap is rejected before the handler runs.
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(oversized)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "Request body is too large", decode(t, w)["message"])

	// Unknown length fails while decoding.
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(oversized))
	r.ContentLength = -1
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestHandle_ErrorEnvelope(t *testing.T) {
	h := Handle(func(r *http.Request) (*Response, error) {
		return nil, apperr.New(apperr.RateLimited, "Too many requests.").WithFields(map[string]any{"retryAfter": 900})
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Too many requests.", body["message"])
	assert.Equal(t, float64(900), body["retryAfter"])
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), apperr.Store("insert", errors.New("disk I/O error")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "An unexpected error occurred.", body["message"])
	assert.NotContains(t, w.Body.String(), "disk")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:51234"
	assert.Equal(t, "203.0.113.9", ClientIP(r))

	r.RemoteAddr = "203.0.113.9"
	assert.Equal(t, "203.0.113.9", ClientIP(r))
}
