package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"jamwathq/internal/audit"
	"jamwathq/internal/auth"
	"jamwathq/internal/config"
	"jamwathq/internal/database"
	"jamwathq/internal/handlers"
	"jamwathq/internal/middleware"
	"jamwathq/internal/services"

	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg := config.Load()
	slog.SetDefault(newLogger(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// Initialize database
	db, err := database.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize services
	admins := auth.NewAdminService(db, auth.AdminServiceOptions{
		LockoutThreshold: cfg.LockoutThreshold,
		LockoutDuration:  cfg.LockoutDuration,
	})
	tokens := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL, nil)
	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionMaxAge, cfg.SecureCookies)
	activity := audit.NewActivityStore(db, nil)
	security := audit.NewSecurityStore(db, nil)

	// Ensure default admin exists
	if cfg.DefaultAdminEmail != "" && cfg.DefaultAdminPassword != "" {
		if err := admins.EnsureDefaultAdmin(ctx, cfg.DefaultAdminEmail, cfg.DefaultAdminPassword); err != nil {
			slog.Warn("failed to create default admin", "error", err)
		}
	}

	adminStore, apiStore, closeStores, err := windowStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	router := handlers.NewRouter(handlers.Deps{
		DB:             db,
		Admins:         admins,
		Tokens:         tokens,
		Sessions:       sessions,
		Activity:       activity,
		Security:       security,
		Reviews:        services.NewReviewService(db, nil),
		Agencies:       services.NewAgencyReviewService(db, nil),
		AdminLimiter:   middleware.NewRateLimiter(adminStore, security, cfg.RateWindow, cfg.RateMax, nil),
		APILimiter:     middleware.NewRateLimiter(apiStore, security, cfg.RateWindow, cfg.APIRateMax, nil),
		AllowedOrigins: cfg.AllowedOrigins,
		ReviewsEnabled: cfg.ReviewsEnabled,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		AccessLog:      true,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting JamWatHQ server", "addr", srv.Addr, "env", cfg.Environment, "reviews", cfg.ReviewsEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// windowStores picks the rate-limit backend: redis when configured, so
// limits hold across instances, otherwise per-process memory with a
// background sweep.
func windowStores(ctx context.Context, cfg *config.Config) (middleware.WindowStore, middleware.WindowStore, func(), error) {
	if cfg.RedisURL == "" {
		adminStore := middleware.NewMemoryStore()
		apiStore := middleware.NewMemoryStore()
		go adminStore.RunJanitor(ctx, time.Minute, cfg.RateWindow)
		go apiStore.RunJanitor(ctx, time.Minute, cfg.RateWindow)
		return adminStore, apiStore, func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Info("using redis rate limit store", "addr", opts.Addr)

	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	return middleware.NewRedisStore(client, "jamwathq:ratelimit:admin:"),
		middleware.NewRedisStore(client, "jamwathq:ratelimit:api:"),
		closeFn, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
