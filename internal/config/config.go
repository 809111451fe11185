package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	// Application
	AppName  string
	AppEnv   string
	AppURL   string // Frontend base URL, used for password reset links
	Port     string
	LogLevel string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret                string
	JWTExpiry                time.Duration
	TokenPasswordResetExpiry time.Duration
	BcryptCost               int

	// HTTP
	CORSAllowedOrigins []string
	RateLimitAuth      int
	RateLimitWindow    time.Duration
	TrustedProxies     []string // Peers allowed to set X-Forwarded-For

	// Email
	EmailFrom    string
	ResendAPIKey string
	EmailTimeout time.Duration

	// Observability (optional)
	SentryDSN string
}

const defaultDBConnection = "./data/careadmin.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

func loadDotenv() {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}
}

// LoadDatabase reads only what the migration commands need. Unlike Load it
// does not require the server secrets, and APP_ENV defaults to development.
func LoadDatabase() *Config {
	loadDotenv()

	return &Config{
		AppName:      envString("APP_NAME", "CareAdmin"),
		AppEnv:       envString("APP_ENV", "development"),
		LogLevel:     envString("LOG_LEVEL", ""),
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", defaultDBConnection),
		SentryDSN:    envString("SENTRY_DSN", ""),
	}
}

func Load() *Config {
	loadDotenv()

	cfg := &Config{
		// Application
		AppName:  envString("APP_NAME", "CareAdmin"),
		AppEnv:   envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:   envRequired("APP_URL"), // Required: base URL for email links
		Port:     envString("PORT", "5000"),
		LogLevel: envString("LOG_LEVEL", ""),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", defaultDBConnection),

		// Security
		JWTSecret:                envRequired("JWT_SECRET"),
		JWTExpiry:                envDuration("JWT_EXPIRY", 1*time.Hour),
		TokenPasswordResetExpiry: envDuration("TOKEN_PASSWORD_RESET_EXPIRY", 1*time.Hour),
		BcryptCost:               envInt("BCRYPT_COST", bcrypt.DefaultCost),

		// HTTP
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitAuth:      envInt("RATE_LIMIT_AUTH", 5),
		RateLimitWindow:    envDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		TrustedProxies:     envList("TRUSTED_PROXIES", nil),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),
		EmailTimeout: envDuration("EMAIL_TIMEOUT", 10*time.Second),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development falls back to logging reset links instead of sending them.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if len(cfg.JWTSecret) < 32 {
		slog.Error("production deployment requires a JWT_SECRET of at least 32 characters")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping empty items.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with secrets and credentials removed.
// Safe to log at startup.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:  c.AppName,
		AppEnv:   c.AppEnv,
		AppURL:   c.AppURL,
		Port:     c.Port,
		LogLevel: c.LogLevel,

		DBDriver: c.DBDriver,

		JWTExpiry:                c.JWTExpiry,
		TokenPasswordResetExpiry: c.TokenPasswordResetExpiry,
		BcryptCost:               c.BcryptCost,

		CORSAllowedOrigins: c.CORSAllowedOrigins,
		RateLimitAuth:      c.RateLimitAuth,
		RateLimitWindow:    c.RateLimitWindow,
		TrustedProxies:     c.TrustedProxies,

		EmailFrom:    c.EmailFrom,
		EmailTimeout: c.EmailTimeout,
	}
}
