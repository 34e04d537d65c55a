package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"jamwathq/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withCookies returns a fresh request carrying the cookies set on w.
func withCookies(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestSessionManager_AdminRoundTrip(t *testing.T) {
	m := NewSessionManager("0123456789abcdef0123456789abcdef", 3600, false)

	w := httptest.NewRecorder()
	require.NoError(t, m.SetAdmin(w, httptest.NewRequest(http.MethodPost, "/", nil), "admin-1"))

	id, ok := m.GetAdminID(withCookies(w))
	assert.True(t, ok)
	assert.Equal(t, "admin-1", id)

	_, ok = m.GetAdminID(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestSessionManager_Clear(t *testing.T) {
	m := NewSessionManager("0123456789abcdef0123456789abcdef", 3600, false)

	w := httptest.NewRecorder()
	require.NoError(t, m.SetAdmin(w, httptest.NewRequest(http.MethodPost, "/", nil), "admin-1"))

	cleared := httptest.NewRecorder()
	require.NoError(t, m.Clear(cleared, withCookies(w)))

	cookies := cleared.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestSessionManager_Visitor(t *testing.T) {
	m := NewSessionManager("0123456789abcdef0123456789abcdef", 3600, false)

	w := httptest.NewRecorder()
	require.NoError(t, m.SetVisitor(w, httptest.NewRequest(http.MethodGet, "/", nil), models.Visitor{ID: "u1", FirstName: "Kerry"}))

	visitor, ok := m.GetVisitor(withCookies(w))
	assert.True(t, ok)
	assert.Equal(t, models.Visitor{ID: "u1", FirstName: "Kerry"}, visitor)

	_, ok = m.GetAdminID(withCookies(w))
	assert.False(t, ok)
}

func TestSessionManager_ForeignCookieIgnored(t *testing.T) {
	signer := NewSessionManager("0123456789abcdef0123456789abcdef", 3600, false)
	reader := NewSessionManager("fedcba9876543210fedcba9876543210", 3600, false)

	w := httptest.NewRecorder()
	require.NoError(t, signer.SetAdmin(w, httptest.NewRequest(http.MethodPost, "/", nil), "admin-1"))

	_, ok := reader.GetAdminID(withCookies(w))
	assert.False(t, ok)
}
