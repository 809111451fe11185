package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/nuvoor/careadmin/internal/config"
	"github.com/nuvoor/careadmin/internal/db"
	"github.com/nuvoor/careadmin/internal/metrics"
	"github.com/nuvoor/careadmin/internal/middleware"
	"github.com/nuvoor/careadmin/internal/repository"
	"github.com/nuvoor/careadmin/internal/service"
	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	Cfg          *config.Config
	DB           *sqlx.DB
	Registry     *prometheus.Registry
	Metrics      *metrics.Auth
	AuthService  *service.AuthService
	EmailService *service.EmailService
	AuthLimiter  *middleware.RateLimiter
}

// Options lets callers replace collaborators, mainly in tests.
type Options struct {
	Sender        service.Sender // defaults to service.NewSender from config
	SkipMigration bool
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	if !opts.SkipMigration {
		err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
		if err != nil {
			_ = db.Close(database)
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	registry, authMetrics := metrics.NewRegistry()

	// Repositories
	userRepository := repository.NewUserRepository(database)

	// Services
	sender := opts.Sender
	if sender == nil {
		sender = service.NewSender(cfg.ResendAPIKey, cfg.EmailFrom, cfg.IsDevelopment())
	}
	emailService := service.NewEmailService(
		sender,
		cfg.AppURL,
		cfg.AppName,
		cfg.EmailTimeout,
		authMetrics,
	)
	authService := service.NewAuthService(
		userRepository,
		emailService,
		service.NewPasswordHasher(cfg.BcryptCost),
		service.NewSessionIssuer(cfg.JWTSecret, cfg.JWTExpiry, nil),
		authMetrics,
		cfg.TokenPasswordResetExpiry,
		nil,
	)

	return &App{
		Cfg:          cfg,
		DB:           database,
		Registry:     registry,
		Metrics:      authMetrics,
		AuthService:  authService,
		EmailService: emailService,
		AuthLimiter:  middleware.NewRateLimiter(cfg.RateLimitAuth, cfg.RateLimitWindow, cfg.TrustedProxies),
	}, nil
}

// Ping reports whether the database is reachable.
func (a *App) Ping(ctx context.Context) error {
	return db.Ping(ctx, a.DB)
}

func (a *App) Close() error {
	if a.AuthLimiter != nil {
		a.AuthLimiter.Stop()
	}
	if a.DB != nil {
		return db.Close(a.DB)
	}
	return nil
}
