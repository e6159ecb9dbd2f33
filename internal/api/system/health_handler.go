package system

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/multigenqa/app/cache"
	"github.com/FACorreiaa/multigenqa/internal/api"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

const (
	Version      = "1.0.0"
	probeTimeout = 2 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderStatus reports "configured" or "not_configured" per model id.
type ProviderStatus interface {
	Status() map[types.ModelID]string
}

type HealthHandler struct {
	db        Pinger
	cache     cache.Cache
	providers ProviderStatus
	logger    *slog.Logger
	now       func() time.Time
}

func NewHealthHandler(db Pinger, c cache.Cache, providers ProviderStatus, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, cache: c, providers: providers, logger: logger, now: time.Now}
}

// Health godoc
// @Summary      Service health
// @Description  Probes the database and cache and reports which AI providers are configured. A failing database degrades the status.
// @Tags         System
// @Produce      json
// @Success      200 {object} types.HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	var dbErr, cacheErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dbErr = h.db.Ping(gctx)
		return nil
	})
	g.Go(func() error {
		cacheErr = cache.RoundTrip(gctx, h.cache)
		return nil
	})
	_ = g.Wait()

	resp := types.HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
		Version:   Version,
		RequestID: middleware.GetReqID(r.Context()),
		Services:  map[string]string{"database": "healthy", "cache": "healthy"},
	}
	if dbErr != nil {
		h.logger.ErrorContext(ctx, "Database health check failed", slog.Any("error", dbErr))
		resp.Services["database"] = "unhealthy"
		resp.Status = "degraded"
	}
	if cacheErr != nil {
		h.logger.ErrorContext(ctx, "Cache health check failed", slog.Any("error", cacheErr))
		resp.Services["cache"] = "unhealthy"
	}
	for id, status := range h.providers.Status() {
		resp.Services[string(id)] = status
	}

	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}
