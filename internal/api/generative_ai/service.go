package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/multigenqa/config"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

var (
	ErrNotConfigured = errors.New("provider is not configured")
	ErrUnknownModel  = errors.New("unknown model")
	ErrEmptyResponse = errors.New("provider returned no content")
)

// Provider sends one conversation to an upstream model and returns its reply.
type Provider interface {
	Complete(ctx context.Context, messages []types.ChatMessage) (*types.Completion, error)
	// Configured reports whether an API key was supplied.
	Configured() bool
	// Model is the upstream model name recorded with each reply.
	Model() string
	// Endpoint is the upstream path recorded in api_usage.
	Endpoint() string
	// Name is used in user-facing error messages, e.g. "OpenAI".
	Name() string
}

// GenerationParams are shared by all providers.
type GenerationParams struct {
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

func paramsFromConfig(cfg config.LLMConfig) GenerationParams {
	p := GenerationParams{
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = 1000
	}
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}
	return p
}

// Registry maps the public model ids to their providers.
type Registry struct {
	providers map[types.ModelID]Provider
	logger    *slog.Logger
}

func NewRegistry(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*Registry, error) {
	params := paramsFromConfig(cfg)

	gemini, err := NewGeminiProvider(ctx, cfg.Gemini, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini provider: %w", err)
	}

	r := NewRegistryWith(logger, map[types.ModelID]Provider{
		types.ModelOpenAI: NewOpenAIProvider(cfg.OpenAI, params),
		types.ModelGemini: gemini,
		types.ModelClaude: NewClaudeProvider(cfg.Claude, params),
	})
	for id, p := range r.providers {
		if !p.Configured() {
			logger.Warn("AI provider not configured", slog.String("model", string(id)))
		}
	}
	return r, nil
}

// NewRegistryWith builds a registry from ready-made providers.
func NewRegistryWith(logger *slog.Logger, providers map[types.ModelID]Provider) *Registry {
	return &Registry{providers: providers, logger: logger}
}

func (r *Registry) Get(id types.ModelID) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	return p, nil
}

// Status reports "configured" or "not_configured" per model id.
func (r *Registry) Status() map[types.ModelID]string {
	out := make(map[types.ModelID]string, len(r.providers))
	for id, p := range r.providers {
		if p.Configured() {
			out[id] = "configured"
		} else {
			out[id] = "not_configured"
		}
	}
	return out
}

// Complete runs the provider inside a span. Each provider applies the
// configured request timeout itself.
func (r *Registry) Complete(ctx context.Context, id types.ModelID, messages []types.ChatMessage) (*types.Completion, error) {
	p, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Complete", trace.WithAttributes(
		attribute.String("model", string(id)),
		attribute.String("model.upstream", p.Model()),
		attribute.Int("messages.count", len(messages)),
	))
	defer span.End()

	if !p.Configured() {
		span.SetStatus(codes.Error, "Provider not configured")
		return nil, fmt.Errorf("%s: %w", p.Name(), ErrNotConfigured)
	}

	l := r.logger.With(slog.String("method", "Complete"), slog.String("model", string(id)))
	l.InfoContext(ctx, "Calling AI provider", slog.Int("messages", len(messages)))

	start := time.Now()
	completion, err := p.Complete(ctx, messages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Provider call failed")
		return nil, err
	}
	if completion.ResponseTime == 0 {
		completion.ResponseTime = time.Since(start)
	}

	span.SetAttributes(attribute.Int("response.length", len(completion.Text)))
	span.SetStatus(codes.Ok, "Content generated successfully")
	l.InfoContext(ctx, "AI response received", slog.Int("characters", len(completion.Text)))
	return completion, nil
}
