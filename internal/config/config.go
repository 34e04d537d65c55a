package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port          int
	DataDir       string
	Environment   string
	LogLevel      string
	SessionSecret string
	SessionMaxAge int
	SecureCookies bool

	TokenSecret string
	TokenTTL    time.Duration

	LockoutThreshold int
	LockoutDuration  time.Duration

	RateWindow time.Duration
	RateMax    int
	APIRateMax int
	RedisURL   string

	AllowedOrigins []string
	ReviewsEnabled bool
	MaxBodyBytes   int64

	DefaultAdminEmail    string
	DefaultAdminPassword string
}

func Load() *Config {
	cfg := &Config{
		Port:          getEnvInt("JAMWATHQ_PORT", 3000),
		DataDir:       getEnvString("JAMWATHQ_DATA_DIR", "./data"),
		Environment:   getEnvString("JAMWATHQ_ENV", "production"),
		LogLevel:      getEnvString("JAMWATHQ_LOG_LEVEL", "info"),
		SessionSecret: getEnvString("JAMWATHQ_SESSION_SECRET", ""),
		SessionMaxAge: getEnvInt("JAMWATHQ_SESSION_MAX_AGE", 7*86400), // 7 days
		SecureCookies: getEnvBool("JAMWATHQ_SECURE_COOKIES", true),

		TokenSecret: getEnvString("JAMWATHQ_TOKEN_SECRET", ""),
		TokenTTL:    getEnvDuration("JAMWATHQ_TOKEN_TTL", 24*time.Hour),

		LockoutThreshold: getEnvInt("JAMWATHQ_LOCKOUT_THRESHOLD", 5),
		LockoutDuration:  getEnvDuration("JAMWATHQ_LOCKOUT_DURATION", 2*time.Hour),

		RateWindow: getEnvDuration("JAMWATHQ_RATE_WINDOW", 15*time.Minute),
		RateMax:    getEnvInt("JAMWATHQ_RATE_MAX", 100),
		APIRateMax: getEnvInt("JAMWATHQ_API_RATE_MAX", 300),
		RedisURL:   getEnvString("JAMWATHQ_REDIS_URL", ""),

		AllowedOrigins: getEnvList("JAMWATHQ_ALLOWED_ORIGINS", []string{"http://localhost:3000", "https://localhost:3000"}),
		ReviewsEnabled: getEnvBool("JAMWATHQ_REVIEWS_ENABLED", false),
		MaxBodyBytes:   int64(getEnvInt("JAMWATHQ_MAX_BODY_BYTES", 10<<20)), // 10 MB

		DefaultAdminEmail:    getEnvString("JAMWATHQ_DEFAULT_ADMIN_EMAIL", ""),
		DefaultAdminPassword: getEnvString("JAMWATHQ_DEFAULT_ADMIN_PASSWORD", ""),
	}

	// The token secret falls back to the session secret.
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = cfg.SessionSecret
	}

	os.MkdirAll(cfg.DataDir, 0755)

	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate reports configuration the server cannot safely start without.
func (c *Config) Validate() error {
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("JAMWATHQ_SESSION_SECRET is required"))
	}
	if c.TokenSecret == "" {
		errs = append(errs, errors.New("JAMWATHQ_TOKEN_SECRET is required"))
	}
	if c.LockoutThreshold < 1 {
		errs = append(errs, errors.New("JAMWATHQ_LOCKOUT_THRESHOLD must be at least 1"))
	}
	if c.RateMax < 1 || c.APIRateMax < 1 {
		errs = append(errs, errors.New("rate limits must be at least 1"))
	}
	if c.RateWindow <= 0 || c.TokenTTL <= 0 || c.LockoutDuration <= 0 {
		errs = append(errs, errors.New("durations must be positive"))
	}
	return errors.Join(errs...)
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
