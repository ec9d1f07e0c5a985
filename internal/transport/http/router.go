package http

import (
	"net/http"

	"github.com/cartify-api/internal/application/account"
	"github.com/cartify-api/internal/application/auth"
	"github.com/cartify-api/internal/application/session"
	"github.com/cartify-api/internal/config"
	"github.com/cartify-api/internal/domain"
	"github.com/cartify-api/internal/transport/http/handler"
	appmiddleware "github.com/cartify-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.Metrics(deps.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	sessionSvc := session.NewService(session.ServiceDeps{
		Accounts:  deps.Accounts,
		Tokens:    session.NewTokenStore(deps.Store, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL()),
		Issuer:    deps.JWTProvider,
		Passwords: deps.Passwords,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger,
	})
	resetSvc := auth.NewService(auth.ServiceDeps{
		Accounts:  deps.Accounts,
		OTPs:      auth.NewOTPStore(deps.Store),
		Tokens:    deps.JWTProvider,
		Passwords: deps.Passwords,
		Notifier:  deps.Notifier,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger,
	})
	accountSvc := account.NewService(account.ServiceDeps{
		Store:     deps.Accounts,
		Passwords: deps.Passwords,
		Notifier:  deps.Notifier,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger,
	})

	healthH := handler.NewHealthHandler(deps.Store, cfg.AppName, deps.Logger)
	sessionH := handler.NewSessionHandler(sessionSvc)
	pwH := handler.NewPasswordRecoveryHandler(resetSvc)
	accountH := handler.NewAccountHandler(accountSvc)

	r.Get("/", healthH.Welcome)
	r.Get("/health", healthH.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// ── Public routes (no auth) ──────────────────────────────────────
			r.With(sensitiveRL.Limit).Post("/register", accountH.Register)
			r.With(sensitiveRL.Limit).Post("/login", sessionH.Login)
			r.Post("/logout", sessionH.Logout)
			r.With(sensitiveRL.Limit).Post("/forgot-password", pwH.ForgotPassword)
			r.With(sensitiveRL.Limit).Post("/verify-otp", pwH.VerifyOTP)
			r.With(sensitiveRL.Limit).Post("/reset-password", pwH.ResetPassword)

			// ── Authenticated routes ─────────────────────────────────────────
			r.With(authMw).Get("/session", sessionH.GetCurrent)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

			r.Method(http.MethodGet, "/admin/metrics", deps.Metrics.Handler())
		})
	})

	return r
}
