package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"jamwathq/internal/api"
	"jamwathq/internal/apperr"
	"jamwathq/internal/audit"
	"jamwathq/internal/auth"
	"jamwathq/internal/models"
)

type contextKey string

const AdminContextKey contextKey = "admin"

var (
	ErrNoToken            = apperr.New(apperr.Unauthenticated, "No token provided")
	ErrNotAuthenticated   = apperr.New(apperr.Unauthenticated, "Authentication required")
	ErrPrincipalNotFound  = apperr.New(apperr.Unauthenticated, "Admin not found")
	ErrInsufficientRole   = apperr.New(apperr.Forbidden, "Insufficient permissions")
	ErrAccountDeactivated = apperr.New(apperr.AccountInactive, "Account is deactivated")
)

type AdminLookup interface {
	GetByID(ctx context.Context, id string) (*models.Admin, error)
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type SessionReader interface {
	GetAdminID(r *http.Request) (string, bool)
	Clear(w http.ResponseWriter, r *http.Request) error
}

type ActivityRecorder interface {
	Log(ctx context.Context, e audit.ActivityEntry) (*models.ActivityLog, error)
}

type SecurityRecorder interface {
	Log(ctx context.Context, ev audit.SecurityEvent) (*models.SecurityLog, error)
}

// Auth resolves the request principal from a bearer token or the admin
// session cookie and gates routes by role.
type Auth struct {
	admins   AdminLookup
	tokens   TokenVerifier
	sessions SessionReader
	activity ActivityRecorder
	security SecurityRecorder
}

func NewAuth(admins AdminLookup, tokens TokenVerifier, sessions SessionReader, activity ActivityRecorder, security SecurityRecorder) *Auth {
	return &Auth{
		admins:   admins,
		tokens:   tokens,
		sessions: sessions,
		activity: activity,
		security: security,
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func (a *Auth) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			api.WriteError(w, r, ErrNoToken)
			return
		}

		claims, err := a.tokens.Verify(token)
		if err != nil {
			reason := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				reason = "token expired"
			}
			a.logSecurity(r, audit.SecurityEvent{
				Type:     models.EventInvalidToken,
				Severity: models.SeverityMedium,
				Message:  "Invalid token attempt",
				Details:  map[string]any{"reason": reason, "path": r.URL.Path},
			})
			api.WriteError(w, r, err)
			return
		}

		admin, err := a.admins.GetByID(r.Context(), claims.AdminID)
		if err != nil {
			if errors.Is(err, auth.ErrAdminNotFound) {
				err = ErrPrincipalNotFound
			}
			api.WriteError(w, r, err)
			return
		}
		if !admin.IsActive {
			api.WriteError(w, r, ErrAccountDeactivated)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), admin)))
	})
}

func (a *Auth) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminID, ok := a.sessions.GetAdminID(r)
		if !ok {
			api.WriteError(w, r, ErrNotAuthenticated)
			return
		}

		admin, err := a.admins.GetByID(r.Context(), adminID)
		if err != nil {
			if errors.Is(err, auth.ErrAdminNotFound) {
				a.clearSession(w, r)
				err = ErrPrincipalNotFound
			}
			api.WriteError(w, r, err)
			return
		}
		if !admin.IsActive {
			a.clearSession(w, r)
			api.WriteError(w, r, ErrAccountDeactivated)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), admin)))
	})
}

// RequireAdmin accepts either credential. A bearer header selects the token
// path even when a session cookie is also present.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	byToken := a.RequireToken(next)
	bySession := a.RequireSession(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			byToken.ServeHTTP(w, r)
			return
		}
		bySession.ServeHTTP(w, r)
	})
}

// RequireRole must run after RequireAdmin. Each denial is recorded once in
// the activity log and once in the security log before the 403.
func (a *Auth) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	required := make([]string, len(roles))
	for i, role := range roles {
		allowed[role] = true
		required[i] = string(role)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin := GetAdmin(r)
			if admin == nil {
				api.WriteError(w, r, ErrNotAuthenticated)
				return
			}
			if allowed[admin.Role] {
				next.ServeHTTP(w, r)
				return
			}

			if _, err := a.activity.Log(r.Context(), audit.ActivityEntry{
				AdminID:    admin.ID,
				Action:     models.ActionUnauthorizedAccess,
				TargetType: models.TargetSystem,
				Details: map[string]any{
					"requiredRole": required,
					"actualRole":   admin.Role,
					"path":         r.URL.Path,
				},
				IP:        api.ClientIP(r),
				UserAgent: r.UserAgent(),
			}); err != nil {
				slog.Error("failed to record activity", "action", models.ActionUnauthorizedAccess, "error", err)
			}

			a.logSecurity(r, audit.SecurityEvent{
				Type:     models.EventUnauthorizedAccess,
				Severity: models.SeverityMedium,
				Message:  "Unauthorized access attempt",
				Details: map[string]any{
					"adminId":      admin.ID,
					"adminEmail":   admin.Email,
					"requiredRole": required,
					"actualRole":   admin.Role,
					"path":         r.URL.Path,
				},
				UserID: admin.ID,
			})

			api.WriteError(w, r, ErrInsufficientRole)
		})
	}
}

func (a *Auth) RequireSuperAdmin(next http.Handler) http.Handler {
	return a.RequireRole(models.RoleSuperAdmin)(next)
}

func (a *Auth) RequireModerator(next http.Handler) http.Handler {
	return a.RequireRole(models.RoleSuperAdmin, models.RoleModerator)(next)
}

func (a *Auth) clearSession(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Clear(w, r); err != nil {
		slog.Warn("failed to clear session", "error", err)
	}
}

// logSecurity fills in the request fields and records ev. Failures are
// logged and otherwise ignored.
func (a *Auth) logSecurity(r *http.Request, ev audit.SecurityEvent) {
	ev.IP = api.ClientIP(r)
	ev.UserAgent = r.UserAgent()
	if _, err := a.security.Log(r.Context(), ev); err != nil {
		slog.Error("failed to record security event", "type", ev.Type, "error", err)
	}
}

func WithAdmin(ctx context.Context, admin *models.Admin) context.Context {
	return context.WithValue(ctx, AdminContextKey, admin)
}

func GetAdmin(r *http.Request) *models.Admin {
	admin, _ := r.Context().Value(AdminContextKey).(*models.Admin)
	return admin
}
