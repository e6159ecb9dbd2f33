package appMiddleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/FACorreiaa/multigenqa/internal/api"
)

// PerMinute limits requests per client IP, keyed on the connection's remote
// address. Forwarded-for headers are ignored here; main only rewrites
// RemoteAddr from them when server.trustProxyHeaders is set. A non-positive
// limit disables the limiter.
func PerMinute(logger *slog.Logger, name string, limit int) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		limit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.WarnContext(r.Context(), "Rate limit exceeded",
				slog.String("limiter", name),
				slog.String("path", r.URL.Path),
				slog.String("req_id", middleware.GetReqID(r.Context())),
			)
			api.WriteJSONResponse(w, r, http.StatusTooManyRequests, map[string]string{
				"error":   "Rate limit exceeded",
				"message": fmt.Sprintf("Too many requests. Limit is %d per minute.", limit),
			})
		}),
	)
}
