package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_URL", "http://localhost:3000")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
	assert.Equal(t, time.Hour, cfg.TokenPasswordResetExpiry)
	assert.Equal(t, 10*time.Second, cfg.EmailTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_URL", "http://localhost:3000")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("JWT_EXPIRY", "30m")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://admin.example.com,")

	cfg := Load()

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiry)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, []string{"http://localhost:3000", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestEnvHelpers_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("X_DURATION", "soon")
	t.Setenv("X_INT", "many")

	assert.Equal(t, time.Minute, envDuration("X_DURATION", time.Minute))
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, []string{"a"}, envList("X_MISSING", []string{"a"}))
}

func TestSanitized_DropsSecrets(t *testing.T) {
	cfg := &Config{
		AppName:      "CareAdmin",
		JWTSecret:    "super-secret",
		ResendAPIKey: "re_123",
		DBConnection: "user:pass@tcp(db:3306)/care",
		SentryDSN:    "https://key@sentry.io/1",
	}

	safe := cfg.Sanitized()
	require.NotNil(t, safe)
	assert.Equal(t, "CareAdmin", safe.AppName)
	assert.Empty(t, safe.JWTSecret)
	assert.Empty(t, safe.ResendAPIKey)
	assert.Empty(t, safe.DBConnection)
	assert.Empty(t, safe.SentryDSN)
}

func TestLoadDatabase_WithoutServerSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("APP_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DB_CONNECTION", "postgres://care@db/care")

	cfg := LoadDatabase()

	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "postgres://care@db/care", cfg.DBConnection)
	assert.True(t, cfg.IsDevelopment())
	assert.Empty(t, cfg.JWTSecret)
	assert.Empty(t, cfg.AppURL)
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_URL", "http://localhost:3000")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10")

	cfg := Load()

	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.10"}, cfg.TrustedProxies)
	assert.Equal(t, cfg.TrustedProxies, cfg.Sanitized().TrustedProxies)
}
