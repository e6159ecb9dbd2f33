package generativeAI

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/multigenqa/config"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

var testParams = GenerationParams{MaxTokens: 1000, Temperature: 0.7, Timeout: 5 * time.Second}

var conversation = []types.ChatMessage{
	{Role: types.RoleSystem, Content: "be brief"},
	{Role: types.RoleUser, Content: "hello"},
	{Role: types.RoleAssistant, Content: "hi"},
	{Role: types.RoleUser, Content: "what is 2+2?"},
}

func TestGeminiPrompt(t *testing.T) {
	assert.Equal(t, "hello\nwhat is 2+2?", geminiPrompt(conversation))
	assert.Empty(t, geminiPrompt(nil))
}

func TestClaudeMessagesDropSystemTurns(t *testing.T) {
	msgs := claudeMessages(conversation)
	require.Len(t, msgs, 3)
	assert.Equal(t, anthropic.RoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "what is 2+2?", msgs[2].Content[0].GetText())
}

func TestOpenAIMessagesKeepEverything(t *testing.T) {
	msgs := openAIMessages(conversation)
	require.Len(t, msgs, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
}

func TestOpenAIProvider_Complete(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","model":"gpt-4o",
			"choices":[{"index":0,"message":{"role":"assistant","content":"4"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":5,"completion_tokens":7,"total_tokens":12}}`)
	}))
	defer srv.Close()

	clientCfg := openai.DefaultConfig("sk-test")
	clientCfg.BaseURL = srv.URL + "/v1"
	p := NewOpenAIProviderWithConfig(config.ProviderConfig{APIKey: "sk-test", Model: "gpt-4o"}, testParams, clientCfg)

	completion, err := p.Complete(context.Background(), conversation)

	require.NoError(t, err)
	assert.Equal(t, "4", completion.Text)
	assert.Equal(t, "gpt-4o", completion.Model)
	require.NotNil(t, completion.TokensUsed)
	assert.Equal(t, 12, *completion.TokensUsed)
	assert.Len(t, got.Messages, 4)
	assert.Equal(t, 1000, got.MaxTokens)
}

func TestClaudeProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-ant", r.Header.Get("X-Api-Key"))
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req["messages"], 3)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-sonnet-20241022",
			"content":[{"type":"text","text":"4"}],"stop_reason":"end_turn",
			"usage":{"input_tokens":3,"output_tokens":4}}`)
	}))
	defer srv.Close()

	p := NewClaudeProvider(config.ProviderConfig{APIKey: "sk-ant", Model: "claude-3-5-sonnet-20241022"}, testParams,
		anthropic.WithBaseURL(srv.URL))

	completion, err := p.Complete(context.Background(), conversation)

	require.NoError(t, err)
	assert.Equal(t, "4", completion.Text)
	require.NotNil(t, completion.TokensUsed)
	assert.Equal(t, 7, *completion.TokensUsed)
}

func TestRegistry(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gemini, err := NewGeminiProvider(context.Background(), config.ProviderConfig{Model: "gemini-2.5-flash"}, testParams)
	require.NoError(t, err)

	r := NewRegistryWith(logger, map[types.ModelID]Provider{
		types.ModelOpenAI: NewOpenAIProvider(config.ProviderConfig{APIKey: "sk", Model: "gpt-4o"}, testParams),
		types.ModelGemini: gemini,
		types.ModelClaude: NewClaudeProvider(config.ProviderConfig{Model: "claude"}, testParams),
	})

	t.Run("Status", func(t *testing.T) {
		assert.Equal(t, map[types.ModelID]string{
			types.ModelOpenAI: "configured",
			types.ModelGemini: "not_configured",
			types.ModelClaude: "not_configured",
		}, r.Status())
	})

	t.Run("UnknownModel", func(t *testing.T) {
		_, err := r.Complete(context.Background(), "llama", conversation)
		assert.True(t, errors.Is(err, ErrUnknownModel))
	})

	t.Run("NotConfigured", func(t *testing.T) {
		_, err := r.Complete(context.Background(), types.ModelClaude, conversation)
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.Contains(t, err.Error(), "Claude")
	})
}
