package auth

import (
	"net/http"

	"jamwathq/internal/models"

	"github.com/gorilla/sessions"
)

const (
	SessionName          = "jamwathq-session"
	SessionAdminID       = "admin_id"
	SessionUserID        = "user_id"
	SessionUserFirstName = "user_first_name"
)

type SessionManager struct {
	store *sessions.CookieStore
}

func NewSessionManager(secret string, maxAge int, secure bool) *SessionManager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
	return &SessionManager{store: store}
}

func (m *SessionManager) Get(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, SessionName)
}

func (m *SessionManager) SetAdmin(w http.ResponseWriter, r *http.Request, adminID string) error {
	session, err := m.Get(r)
	if session == nil {
		return err
	}

	session.Values[SessionAdminID] = adminID
	return session.Save(r, w)
}

func (m *SessionManager) GetAdminID(r *http.Request) (string, bool) {
	session, err := m.Get(r)
	if err != nil {
		return "", false
	}

	adminID, ok := session.Values[SessionAdminID].(string)
	return adminID, ok && adminID != ""
}

// SetVisitor records a site user authenticated by the OAuth layer.
func (m *SessionManager) SetVisitor(w http.ResponseWriter, r *http.Request, visitor models.Visitor) error {
	session, err := m.Get(r)
	if session == nil {
		return err
	}

	session.Values[SessionUserID] = visitor.ID
	session.Values[SessionUserFirstName] = visitor.FirstName
	return session.Save(r, w)
}

func (m *SessionManager) GetVisitor(r *http.Request) (models.Visitor, bool) {
	session, err := m.Get(r)
	if err != nil {
		return models.Visitor{}, false
	}

	id, ok := session.Values[SessionUserID].(string)
	if !ok || id == "" {
		return models.Visitor{}, false
	}
	firstName, _ := session.Values[SessionUserFirstName].(string)
	return models.Visitor{ID: id, FirstName: firstName}, true
}

func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	// A cookie that no longer decodes still yields a fresh session to overwrite it.
	session, err := m.Get(r)
	if session == nil {
		return err
	}

	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1

	return session.Save(r, w)
}
