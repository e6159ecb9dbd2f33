package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/multigenqa/internal/types"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 30 * time.Second

// Client is a typed wrapper over the MultiGenQA HTTP API. It does not hold
// any session state; the token comes from whatever RoundTripper it is built
// with, usually an AuthTransport.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client wholesale.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, transport http.RoundTripper, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: transport, Timeout: DefaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Register(ctx context.Context, req types.RegisterRequest) (Result[types.RegisterResponse], error) {
	return call[types.RegisterResponse](ctx, c, "register", http.MethodPost, "/api/auth/register", req)
}

func (c *Client) Login(ctx context.Context, email, password string) (Result[types.LoginResponse], error) {
	return call[types.LoginResponse](ctx, c, "login", http.MethodPost, "/api/auth/login",
		types.LoginRequest{Email: email, Password: password})
}

func (c *Client) Logout(ctx context.Context) (Result[types.MessageResponse], error) {
	return call[types.MessageResponse](ctx, c, "logout", http.MethodPost, "/api/auth/logout", nil)
}

func (c *Client) Me(ctx context.Context) (Result[types.MeResponse], error) {
	return call[types.MeResponse](ctx, c, "me", http.MethodGet, "/api/auth/me", nil)
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (Result[types.MessageResponse], error) {
	return call[types.MessageResponse](ctx, c, "verify email", http.MethodPost, "/api/auth/verify-email",
		types.VerifyEmailRequest{Token: token})
}

func (c *Client) Chat(ctx context.Context, req types.ChatRequest) (Result[types.ChatResponse], error) {
	return call[types.ChatResponse](ctx, c, "chat", http.MethodPost, "/api/chat", req)
}

func (c *Client) Conversations(ctx context.Context) (Result[types.ConversationsResponse], error) {
	return call[types.ConversationsResponse](ctx, c, "conversations", http.MethodGet, "/api/conversations", nil)
}

func (c *Client) Conversation(ctx context.Context, id uuid.UUID) (Result[types.ConversationResponse], error) {
	return call[types.ConversationResponse](ctx, c, "conversation", http.MethodGet, "/api/conversations/"+id.String(), nil)
}

func (c *Client) Models(ctx context.Context) (Result[types.ModelsResponse], error) {
	return call[types.ModelsResponse](ctx, c, "models", http.MethodGet, "/api/models", nil)
}

func call[T any](ctx context.Context, c *Client, op, method, path string, body any) (Result[T], error) {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Result[T]{}, fmt.Errorf("%s: encode request: %w", op, err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return Result[T]{}, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "Request failed", slog.String("op", op), slog.Any("error", err))
		return Result[T]{}, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "Request completed",
		slog.String("op", op),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)))

	res, err := decodeResult[T](resp)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}
