package generativeAI

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/FACorreiaa/multigenqa/config"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

type GeminiProvider struct {
	client *genai.Client
	model  string
	params GenerationParams
}

// NewGeminiProvider leaves the client nil when no API key is configured.
func NewGeminiProvider(ctx context.Context, cfg config.ProviderConfig, params GenerationParams) (*GeminiProvider, error) {
	p := &GeminiProvider{model: cfg.Model, params: params}
	if cfg.APIKey == "" {
		return p, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	p.client = client
	return p, nil
}

func (p *GeminiProvider) Configured() bool { return p.client != nil }
func (p *GeminiProvider) Model() string    { return p.model }
func (p *GeminiProvider) Endpoint() string { return "/generate" }
func (p *GeminiProvider) Name() string     { return "Gemini" }

func (p *GeminiProvider) Complete(ctx context.Context, messages []types.ChatMessage) (*types.Completion, error) {
	if p.client == nil {
		return nil, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, p.params.Timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.params.Temperature),
		MaxOutputTokens: int32(p.params.MaxTokens),
	}

	start := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(geminiPrompt(messages)), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	text := result.Text()
	if text == "" {
		return nil, ErrEmptyResponse
	}

	completion := &types.Completion{
		Text:         text,
		Model:        p.model,
		ResponseTime: time.Since(start),
	}
	if result.UsageMetadata != nil {
		tokens := int(result.UsageMetadata.TotalTokenCount)
		completion.TokensUsed = &tokens
	}
	return completion, nil
}

// geminiPrompt keeps only the user turns, one per line.
func geminiPrompt(messages []types.ChatMessage) string {
	var parts []string
	for _, m := range messages {
		if m.Role == types.RoleUser {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n")
}
