package client

import (
	"log/slog"
	"net/http"
	"strings"
)

var _ http.RoundTripper = (*AuthTransport)(nil)

// AuthTransport attaches the stored bearer token to every request and reacts
// to token rejections. A rejection is a 401 carrying a Bearer
// WWW-Authenticate challenge; a failed login is a plain 401 and is left
// alone. On rejection the store is cleared and OnUnauthorized fires once for
// that response. Requests are never retried and the original response is
// handed back to the caller.
type AuthTransport struct {
	Base           http.RoundTripper
	Store          TokenStore
	OnUnauthorized func()
	Logger         *slog.Logger
}

func NewAuthTransport(base http.RoundTripper, store TokenStore, logger *slog.Logger) *AuthTransport {
	return &AuthTransport{Base: base, Store: store, Logger: logger}
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.Store.Get()
	if err != nil {
		t.logger().Warn("Failed to read session token, sending request unauthenticated", slog.Any("error", err))
		token = ""
	}
	if token != "" {
		// RoundTrippers must not modify the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if IsAuthorizationFailure(resp) {
		t.logger().Info("Server rejected session token",
			slog.String("path", req.URL.Path),
			slog.Int("status", resp.StatusCode))
		if err := t.Store.Clear(); err != nil {
			t.logger().Error("Failed to clear session token", slog.Any("error", err))
		}
		if t.OnUnauthorized != nil {
			t.OnUnauthorized()
		}
	}
	return resp, nil
}

// IsAuthorizationFailure classifies resp as a rejected or missing token.
func IsAuthorizationFailure(resp *http.Response) bool {
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		return false
	}
	challenge := strings.TrimSpace(resp.Header.Get("WWW-Authenticate"))
	return len(challenge) >= len("bearer") && strings.EqualFold(challenge[:len("bearer")], "bearer")
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *AuthTransport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}
