package generativeAI

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/FACorreiaa/multigenqa/config"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

type OpenAIProvider struct {
	client *openai.Client
	model  string
	params GenerationParams
}

func NewOpenAIProvider(cfg config.ProviderConfig, params GenerationParams) *OpenAIProvider {
	return NewOpenAIProviderWithConfig(cfg, params, openai.DefaultConfig(cfg.APIKey))
}

// NewOpenAIProviderWithConfig allows a custom base URL, e.g. a proxy or a
// test server.
func NewOpenAIProviderWithConfig(cfg config.ProviderConfig, params GenerationParams, clientCfg openai.ClientConfig) *OpenAIProvider {
	p := &OpenAIProvider{model: cfg.Model, params: params}
	if cfg.APIKey != "" {
		p.client = openai.NewClientWithConfig(clientCfg)
	}
	return p
}

func (p *OpenAIProvider) Configured() bool { return p.client != nil }
func (p *OpenAIProvider) Model() string    { return p.model }
func (p *OpenAIProvider) Endpoint() string { return "/chat/completions" }
func (p *OpenAIProvider) Name() string     { return "OpenAI" }

func (p *OpenAIProvider) Complete(ctx context.Context, messages []types.ChatMessage) (*types.Completion, error) {
	if p.client == nil {
		return nil, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, p.params.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    openAIMessages(messages),
		MaxTokens:   p.params.MaxTokens,
		Temperature: p.params.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	tokens := resp.Usage.TotalTokens
	return &types.Completion{
		Text:         resp.Choices[0].Message.Content,
		Model:        p.model,
		TokensUsed:   &tokens,
		ResponseTime: time.Since(start),
	}, nil
}

// openAIMessages forwards every turn, system prompts included.
func openAIMessages(messages []types.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
