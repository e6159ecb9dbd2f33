package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	appMiddleware "github.com/FACorreiaa/multigenqa/app/middleware"
	"github.com/FACorreiaa/multigenqa/app/observability/metrics"
	"github.com/FACorreiaa/multigenqa/config"
	"github.com/FACorreiaa/multigenqa/internal/api"
	"github.com/FACorreiaa/multigenqa/internal/api/auth"
	llmChat "github.com/FACorreiaa/multigenqa/internal/api/llm_chat"
	"github.com/FACorreiaa/multigenqa/internal/api/system"

	_ "github.com/FACorreiaa/multigenqa/docs"
)

// Config contains dependencies needed for the router setup
type Config struct {
	Logger         *slog.Logger
	CORSOrigins    []string
	RateLimit      config.RateLimitConfig
	Authenticator  auth.Authenticator
	AuthHandler    *auth.AuthHandler
	ChatHandler    *llmChat.HandlerImpl
	HealthHandler  *system.HealthHandler
	MetricsHandler http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (like logger, requestID, recoverer) are expected
// to be applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"WWW-Authenticate", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))
	r.Use(metrics.HTTPMetrics)

	r.NotFound(api.NotFound)
	r.MethodNotAllowed(api.MethodNotAllowed)

	limit := func(name string, perMinute int) func(http.Handler) http.Handler {
		return appMiddleware.PerMinute(cfg.Logger, name, perMinute)
	}
	requireAuth := auth.Authenticate(cfg.Logger, cfg.Authenticator)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api", func(r chi.Router) {
		r.NotFound(api.NotFound)
		r.MethodNotAllowed(api.MethodNotAllowed)

		// --- Public routes ---
		r.Get("/health", cfg.HealthHandler.Health)
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
		r.Get("/models", cfg.ChatHandler.Models)

		r.Route("/auth", func(r chi.Router) {
			r.With(limit("register", cfg.RateLimit.Register)).Post("/register", cfg.AuthHandler.Register)
			r.With(limit("login", cfg.RateLimit.Login)).Post("/login", cfg.AuthHandler.Login)
			r.With(limit("verify_email", cfg.RateLimit.VerifyEmail)).Post("/verify-email", cfg.AuthHandler.VerifyEmail)

			// Logout never fails on a stale token.
			r.With(auth.OptionalAuthenticate(cfg.Logger, cfg.Authenticator)).Post("/logout", cfg.AuthHandler.Logout)
			r.With(requireAuth).Get("/me", cfg.AuthHandler.Me)
		})

		// --- Protected routes ---
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.With(limit("chat", cfg.RateLimit.Chat)).Post("/chat", cfg.ChatHandler.Chat)
			r.Route("/conversations", func(r chi.Router) {
				r.Use(limit("conversations", cfg.RateLimit.Conversations))
				r.Get("/", cfg.ChatHandler.ListConversations)
				r.Get("/{id}", cfg.ChatHandler.GetConversation)
			})
			r.With(limit("usage", cfg.RateLimit.Usage)).Get("/usage", cfg.ChatHandler.Usage)
		})
	})

	return r
}
