package handlers

import (
	"net/http"
	"time"

	"jamwathq/internal/api"
	"jamwathq/internal/audit"
	"jamwathq/internal/auth"
	"jamwathq/internal/database"
	"jamwathq/internal/middleware"
	"jamwathq/internal/models"
	"jamwathq/internal/services"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps is everything the HTTP surface needs. The server and the tests build
// it the same way.
type Deps struct {
	DB       *database.DB
	Admins   *auth.AdminService
	Tokens   *auth.TokenIssuer
	Sessions *auth.SessionManager
	Activity *audit.ActivityStore
	Security *audit.SecurityStore
	Reviews  *services.ReviewService
	Agencies *services.AgencyReviewService

	// AdminLimiter guards the admin API; APILimiter the public review API.
	AdminLimiter *middleware.RateLimiter
	APILimiter   *middleware.RateLimiter

	AllowedOrigins []string
	ReviewsEnabled bool
	MaxBodyBytes   int64
	AccessLog      bool
	Now            func() time.Time
}

func NewRouter(d Deps) http.Handler {
	authMiddleware := middleware.NewAuth(d.Admins, d.Tokens, d.Sessions, d.Activity, d.Security)
	activity := middleware.NewActivityLogger(d.Activity)

	authHandler := NewAuthHandler(d.Admins, d.Tokens, d.Sessions, d.Activity, d.Security)
	adminsHandler := NewAdminsHandler(d.Admins)
	logsHandler := NewLogsHandler(d.Activity, d.Security)
	reviewsHandler := NewReviewsHandler(d.Reviews, d.Agencies, d.Sessions)
	moderationHandler := NewModerationHandler(d.Reviews)
	healthHandler := NewHealthHandler(d.DB, d.ReviewsEnabled, d.Now)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if d.AccessLog {
		r.Use(chimiddleware.Logger)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(chimiddleware.SetHeader("X-Frame-Options", "DENY"))
	r.Use(chimiddleware.SetHeader("Referrer-Policy", "strict-origin-when-cross-origin"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(api.LimitBody(d.MaxBodyBytes))

	r.NotFound(api.Handle(func(r *http.Request) (*api.Response, error) {
		return nil, ErrRouteNotFound
	}))

	r.Get("/api/health", api.Handle(healthHandler.Health))
	r.HandleFunc("/auth/*", api.Handle(UnderDevelopment("Authentication is handled by the site login service.")))

	// Public review API
	r.Group(func(r chi.Router) {
		r.Use(d.APILimiter.Handler)

		if !d.ReviewsEnabled {
			stub := api.Handle(UnderDevelopment("Review features are under development. Database integration required."))
			r.HandleFunc("/api/reviews", stub)
			r.HandleFunc("/api/reviews/*", stub)
			r.HandleFunc("/api/agency-reviews", stub)
			r.HandleFunc("/api/agency-reviews/*", stub)
			return
		}

		r.Get("/api/reviews", api.Handle(reviewsHandler.List))
		r.Post("/api/reviews", api.Handle(reviewsHandler.Submit))
		r.Get("/api/reviews/stats", api.Handle(reviewsHandler.Stats))
		r.Get("/api/reviews/stats/{state}", api.Handle(reviewsHandler.StateStats))
		r.Get("/api/reviews/analytics", api.Handle(reviewsHandler.Analytics))
		r.Post("/api/agency-reviews", api.Handle(reviewsHandler.SubmitAgency))
		r.Get("/api/agency-reviews/{agencyId}", api.Handle(reviewsHandler.ForAgency))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.With(d.AdminLimiter.Handler).Post("/login", api.Handle(authHandler.Login))

		// Protected routes: principal, then rate limit, then role gate.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAdmin)
			r.Use(d.AdminLimiter.Handler)

			r.Post("/logout", api.Handle(authHandler.Logout))
			r.Get("/me", api.Handle(authHandler.Me))

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireSuperAdmin)
				r.Get("/admins", api.Handle(adminsHandler.List))
				r.Post("/admins", api.Handle(activity.Wrap(models.ActionAdminCreate, models.TargetAdmin, adminsHandler.Create)))
				r.Put("/admins/{id}", api.Handle(activity.Wrap(models.ActionAdminUpdate, models.TargetAdmin, adminsHandler.Update)))
				r.Post("/admins/{id}/unlock", api.Handle(activity.Wrap(models.ActionAdminUpdate, models.TargetAdmin, adminsHandler.Unlock)))
				r.Delete("/reviews/{id}", api.Handle(activity.Wrap(models.ActionReviewDelete, models.TargetReview, moderationHandler.Delete)))
			})

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireModerator)
				r.Get("/activity", api.Handle(logsHandler.Activity))
				r.Get("/security", api.Handle(logsHandler.Security))
				r.Get("/security/stats", api.Handle(logsHandler.SecurityStats))
				r.Post("/security/{id}/resolve", api.Handle(activity.Wrap(models.ActionSettingsUpdate, models.TargetSettings, logsHandler.Resolve)))
				r.Post("/reviews/{id}/approve", api.Handle(activity.Wrap(models.ActionReviewApprove, models.TargetReview, moderationHandler.Approve)))
				r.Post("/reviews/{id}/reject", api.Handle(activity.Wrap(models.ActionReviewReject, models.TargetReview, moderationHandler.Reject)))
			})
		})
	})

	return r
}
