package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/multigenqa/internal/api"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

// Define typed context keys
type contextKey string

const UserIDKey contextKey = "userID"
const UserKey contextKey = "user"

// Realm is advertised in every bearer challenge.
const Realm = "multigenqa"

// Authenticator resolves a bearer token to a user. AuthServiceImpl is the
// production implementation.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*types.User, error)
}

// Authenticate rejects requests without a usable bearer token. Rejections
// carry a WWW-Authenticate challenge so clients can tell them apart from a
// failed login, which is also a 401.
func Authenticate(logger *slog.Logger, authn Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			tokenString, present, ok := bearerToken(r)
			if !present {
				l.DebugContext(ctx, "Missing Authorization header")
				unauthorized(w, r, "", MsgAuthorizationRequired)
				return
			}
			if !ok {
				l.WarnContext(ctx, "Invalid Authorization header format")
				unauthorized(w, r, "invalid_request", "Authorization header format must be Bearer {token}")
				return
			}

			user, err := authn.Authenticate(ctx, tokenString)
			if err != nil {
				switch {
				case errors.Is(err, types.ErrTokenExpired):
					l.InfoContext(ctx, "Expired token presented")
					unauthorized(w, r, "invalid_token", MsgTokenExpired)
				case errors.Is(err, types.ErrTokenInvalid):
					l.WarnContext(ctx, "Token validation failed", slog.Any("error", err))
					unauthorized(w, r, "invalid_token", MsgInvalidToken)
				case errors.Is(err, types.ErrUnauthenticated):
					l.WarnContext(ctx, "Token subject rejected", slog.Any("error", err))
					unauthorized(w, r, "invalid_token", MsgUserUnavailable)
				default:
					l.ErrorContext(ctx, "Failed to authenticate request", slog.Any("error", err))
					api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to authenticate request")
				}
				return
			}

			ctx = context.WithValue(ctx, UserIDKey, user.ID)
			ctx = context.WithValue(ctx, UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthenticate attaches the user when a valid token is presented and
// otherwise lets the request through untouched.
func OptionalAuthenticate(logger *slog.Logger, authn Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, _, ok := bearerToken(r)
			if ok {
				if user, err := authn.Authenticate(r.Context(), tokenString); err == nil {
					ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
					ctx = context.WithValue(ctx, UserKey, user)
					r = r.WithContext(ctx)
				} else {
					logger.DebugContext(r.Context(), "Ignoring unusable token on optional route", slog.Any("error", err))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken reports the token, whether an Authorization header was sent
// at all, and whether it had the Bearer form.
func bearerToken(r *http.Request) (token string, present, ok bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false, false
	}
	scheme, token, found := strings.Cut(authHeader, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", true, false
	}
	return token, true, true
}

func unauthorized(w http.ResponseWriter, r *http.Request, code, message string) {
	challenge := `Bearer realm="` + Realm + `"`
	if code != "" {
		challenge += `, error="` + code + `", error_description="` + message + `"`
	}
	w.Header().Set("WWW-Authenticate", challenge)
	api.ErrorResponse(w, r, http.StatusUnauthorized, message)
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

func GetUserFromContext(ctx context.Context) (*types.User, bool) {
	user, ok := ctx.Value(UserKey).(*types.User)
	return user, ok && user != nil
}
