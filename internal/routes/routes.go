package routes

import (
	"net/http"

	"github.com/nuvoor/careadmin/internal/app"
	"github.com/nuvoor/careadmin/internal/handler"
	"github.com/nuvoor/careadmin/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService)
	health := handler.NewHealthHandler(app.Ping)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Probes
	mux.HandleFunc("GET /healthz", health.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{Registry: app.Registry}))

	// Auth - credential flows (rate limited per client IP)
	limit := app.AuthLimiter.Limit
	mux.Handle("POST /api/auth/login", limit(http.HandlerFunc(auth.Login)))
	mux.Handle("POST /api/auth/forgot-password", limit(http.HandlerFunc(auth.ForgotPassword)))
	mux.Handle("POST /api/auth/reset-password/{token}", limit(http.HandlerFunc(auth.ResetPassword)))

	// ============================================================================
	// PROTECTED ROUTES (session token required)
	// ============================================================================

	requireAuth := middleware.RequireAuth(app.AuthService)
	mux.Handle("GET /api/auth/me", requireAuth(http.HandlerFunc(auth.Me)))

	// Apply global middleware
	return middleware.Chain(mux,
		middleware.CORS(app.Cfg.CORSAllowedOrigins),
		middleware.RequestLogging,
	)
}
