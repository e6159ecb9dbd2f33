package generativeAI

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/FACorreiaa/multigenqa/config"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

type ClaudeProvider struct {
	client *anthropic.Client
	model  string
	params GenerationParams
}

func NewClaudeProvider(cfg config.ProviderConfig, params GenerationParams, opts ...anthropic.ClientOption) *ClaudeProvider {
	p := &ClaudeProvider{model: cfg.Model, params: params}
	if cfg.APIKey != "" {
		p.client = anthropic.NewClient(cfg.APIKey, opts...)
	}
	return p
}

func (p *ClaudeProvider) Configured() bool { return p.client != nil }
func (p *ClaudeProvider) Model() string    { return p.model }
func (p *ClaudeProvider) Endpoint() string { return "/messages" }
func (p *ClaudeProvider) Name() string     { return "Claude" }

func (p *ClaudeProvider) Complete(ctx context.Context, messages []types.ChatMessage) (*types.Completion, error) {
	if p.client == nil {
		return nil, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, p.params.Timeout)
	defer cancel()

	temperature := p.params.Temperature
	start := time.Now()
	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(p.model),
		Messages:    claudeMessages(messages),
		MaxTokens:   p.params.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic create messages: %w", err)
	}

	var text strings.Builder
	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText {
			text.WriteString(c.GetText())
		}
	}
	if text.Len() == 0 {
		return nil, ErrEmptyResponse
	}

	tokens := resp.Usage.InputTokens + resp.Usage.OutputTokens
	return &types.Completion{
		Text:         text.String(),
		Model:        p.model,
		TokensUsed:   &tokens,
		ResponseTime: time.Since(start),
	}, nil
}

// claudeMessages drops system turns; the Messages API only accepts user and
// assistant roles in the list.
func claudeMessages(messages []types.ChatMessage) []anthropic.Message {
	out := make([]anthropic.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case types.RoleUser:
			out = append(out, anthropic.NewUserTextMessage(m.Content))
		case types.RoleAssistant:
			out = append(out, anthropic.NewAssistantTextMessage(m.Content))
		}
	}
	return out
}
