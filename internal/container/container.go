package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/multigenqa/app/cache"
	database "github.com/FACorreiaa/multigenqa/app/db"
	"github.com/FACorreiaa/multigenqa/app/tracer"
	"github.com/FACorreiaa/multigenqa/config"
	"github.com/FACorreiaa/multigenqa/internal/api/auth"
	generativeAI "github.com/FACorreiaa/multigenqa/internal/api/generative_ai"
	llmChat "github.com/FACorreiaa/multigenqa/internal/api/llm_chat"
	"github.com/FACorreiaa/multigenqa/internal/api/system"
	"github.com/FACorreiaa/multigenqa/internal/router"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *slog.Logger
	Pool          *pgxpool.Pool
	Cache         cache.Cache
	Telemetry     *tracer.Telemetry
	AuthService   *auth.AuthServiceImpl
	AuthHandler   *auth.AuthHandler
	ChatHandler   *llmChat.HandlerImpl
	HealthHandler *system.HealthHandler
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, telemetry *tracer.Telemetry, logger *slog.Logger) (*Container, error) {
	// Initialize database
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	pool, err := database.Init(ctx, dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	appCache, err := cache.New(ctx, cfg.Repositories.Redis.URL, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWT)
	if err != nil {
		pool.Close()
		return nil, err
	}

	providers, err := generativeAI.NewRegistry(ctx, cfg.LLM, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	// Auth
	authRepo := auth.NewAuthRepoFactory(pool, logger)
	authService := auth.NewAuthService(authRepo, tokens, logger)
	authHandler := auth.NewAuthHandler(authService, logger, cfg.Auth.ExposeVerificationToken)

	// Chat, conversations, usage
	chatRepo := llmChat.NewRepositoryImpl(pool, logger)
	chatService := llmChat.NewChatService(chatRepo, providers, appCache, logger)
	chatHandler := llmChat.NewChatHandlerImpl(chatService, logger)

	healthHandler := system.NewHealthHandler(pool, appCache, providers, logger)

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Pool:          pool,
		Cache:         appCache,
		Telemetry:     telemetry,
		AuthService:   authService,
		AuthHandler:   authHandler,
		ChatHandler:   chatHandler,
		HealthHandler: healthHandler,
	}, nil
}

// RouterConfig wires the container into the HTTP router.
func (c *Container) RouterConfig() *router.Config {
	return &router.Config{
		Logger:         c.Logger,
		CORSOrigins:    c.Config.Server.CORSOrigins,
		RateLimit:      c.Config.RateLimit,
		Authenticator:  c.AuthService,
		AuthHandler:    c.AuthHandler,
		ChatHandler:    c.ChatHandler,
		HealthHandler:  c.HealthHandler,
		MetricsHandler: c.Telemetry.Handler(),
	}
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.Logger.Warn("Error closing cache", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
