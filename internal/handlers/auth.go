package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"jamwathq/internal/api"
	"jamwathq/internal/apperr"
	"jamwathq/internal/audit"
	"jamwathq/internal/auth"
	"jamwathq/internal/middleware"
	"jamwathq/internal/models"
)

type AuthHandler struct {
	admins   *auth.AdminService
	tokens   *auth.TokenIssuer
	sessions *auth.SessionManager
	activity middleware.ActivityRecorder
	security middleware.SecurityRecorder
}

func NewAuthHandler(
	admins *auth.AdminService,
	tokens *auth.TokenIssuer,
	sessions *auth.SessionManager,
	activity middleware.ActivityRecorder,
	security middleware.SecurityRecorder,
) *AuthHandler {
	return &AuthHandler{
		admins:   admins,
		tokens:   tokens,
		sessions: sessions,
		activity: activity,
		security: security,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials, then issues both a bearer token and a session
// cookie so either authentication path works afterwards.
func (h *AuthHandler) Login(r *http.Request) (*api.Response, error) {
	var req loginRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, apperr.Invalid("Email and password are required")
	}

	ip := api.ClientIP(r)
	admin, err := h.admins.Authenticate(r.Context(), req.Email, req.Password, ip)
	if err != nil {
		var failure *auth.LoginFailure
		if errors.As(err, &failure) {
			h.recordLoginFailure(r, failure)
		}
		return nil, err
	}

	token, err := h.tokens.Issue(admin)
	if err != nil {
		return nil, err
	}

	cookies := api.NewHeaderWriter()
	if err := h.sessions.SetAdmin(cookies, r, admin.ID); err != nil {
		slog.Warn("failed to set admin session", "admin_id", admin.ID, "error", err)
	}

	if _, err := h.activity.Log(r.Context(), audit.ActivityEntry{
		AdminID:    admin.ID,
		Action:     models.ActionAdminLogin,
		TargetType: models.TargetAdmin,
		TargetID:   admin.ID,
		Details:    map[string]any{"method": r.Method, "path": r.URL.Path},
		IP:         ip,
		UserAgent:  r.UserAgent(),
	}); err != nil {
		slog.Error("failed to record activity", "action", models.ActionAdminLogin, "error", err)
	}

	return &api.Response{
		Status:  http.StatusOK,
		Header:  cookies.Header(),
		Message: "Login successful",
		Data: map[string]any{
			"token":     token,
			"expiresIn": int(h.tokens.TTL().Seconds()),
			"admin":     admin,
		},
	}, nil
}

func (h *AuthHandler) recordLoginFailure(r *http.Request, f *auth.LoginFailure) {
	details := map[string]any{
		"email":  f.Email,
		"reason": f.Reason,
	}
	if f.Attempts > 0 {
		details["attempts"] = f.Attempts
	}

	ev := audit.SecurityEvent{
		Type:      models.EventFailedLogin,
		Severity:  models.SeverityMedium,
		Message:   "Failed admin login",
		Details:   details,
		IP:        api.ClientIP(r),
		UserAgent: r.UserAgent(),
		UserID:    f.AdminID,
	}
	if f.Reason == "unknown_email" {
		ev.Severity = models.SeverityLow
	}
	h.logSecurity(r, ev)

	if f.LockedNow {
		lockDetails := map[string]any{"email": f.Email, "attempts": f.Attempts}
		if f.LockedUntil != nil {
			lockDetails["lockedUntil"] = f.LockedUntil
		}
		h.logSecurity(r, audit.SecurityEvent{
			Type:      models.EventAccountLockout,
			Severity:  models.SeverityHigh,
			Message:   "Admin account locked after repeated failed logins",
			Details:   lockDetails,
			IP:        ev.IP,
			UserAgent: ev.UserAgent,
			UserID:    f.AdminID,
		})
	}
}

func (h *AuthHandler) logSecurity(r *http.Request, ev audit.SecurityEvent) {
	if _, err := h.security.Log(r.Context(), ev); err != nil {
		slog.Error("failed to record security event", "type", ev.Type, "error", err)
	}
}

func (h *AuthHandler) Logout(r *http.Request) (*api.Response, error) {
	admin := middleware.GetAdmin(r)

	cookies := api.NewHeaderWriter()
	if err := h.sessions.Clear(cookies, r); err != nil {
		slog.Warn("failed to clear admin session", "error", err)
	}

	if _, err := h.activity.Log(r.Context(), audit.ActivityEntry{
		AdminID:    admin.ID,
		Action:     models.ActionAdminLogout,
		TargetType: models.TargetAdmin,
		TargetID:   admin.ID,
		IP:         api.ClientIP(r),
		UserAgent:  r.UserAgent(),
	}); err != nil {
		slog.Error("failed to record activity", "action", models.ActionAdminLogout, "error", err)
	}

	return &api.Response{Status: http.StatusOK, Message: "Logged out", Header: cookies.Header()}, nil
}

func (h *AuthHandler) Me(r *http.Request) (*api.Response, error) {
	return api.OK(map[string]any{"admin": middleware.GetAdmin(r)}), nil
}
