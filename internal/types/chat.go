package types

import (
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// ModelID names a provider as the API exposes it.
type ModelID string

const (
	ModelOpenAI ModelID = "openai"
	ModelGemini ModelID = "gemini"
	ModelClaude ModelID = "claude"
)

// ChatMessage is one turn as sent by the client.
type ChatMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

type ChatRequest struct {
	Model          ModelID       `json:"model"`
	Messages       []ChatMessage `json:"messages"`
	ConversationID *uuid.UUID    `json:"conversation_id,omitempty"`
}

type ChatMetadata struct {
	TokensUsed   *int    `json:"tokens_used"`
	ResponseTime float64 `json:"response_time"`
}

type ChatResponse struct {
	Response       string       `json:"response"`
	Model          string       `json:"model"`
	ConversationID uuid.UUID    `json:"conversation_id"`
	Status         string       `json:"status"`
	Metadata       ChatMetadata `json:"metadata"`
}

// Completion is what a provider returns for one call.
type Completion struct {
	Text         string
	Model        string
	TokensUsed   *int
	ResponseTime time.Duration
}

type Conversation struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"-"`
	Title        string          `json:"title"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	IsActive     bool            `json:"is_active"`
	MessageCount int             `json:"message_count"`
	Messages     []StoredMessage `json:"messages,omitempty"`
}

type StoredMessage struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"-"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	ModelUsed      *string     `json:"model_used"`
	Timestamp      time.Time   `json:"timestamp"`
	TokenCount     *int        `json:"token_count"`
	ResponseTime   *float64    `json:"response_time"`
}

type ConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

type ConversationResponse struct {
	Conversation *Conversation `json:"conversation"`
}

type ModelInfo struct {
	ID          ModelID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
}

type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// UsageRecord is one row of api_usage.
type UsageRecord struct {
	UserID       uuid.UUID
	Model        string
	Endpoint     string
	TokensUsed   *int
	Cost         *float64
	ResponseTime float64
	StatusCode   int
}

type UsageStat struct {
	Model           string  `json:"model"`
	Requests        int64   `json:"requests"`
	Tokens          int64   `json:"tokens"`
	Cost            float64 `json:"cost"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

type UsageResponse struct {
	Period string      `json:"period"`
	Usage  []UsageStat `json:"usage"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	RequestID string            `json:"request_id,omitempty"`
	Services  map[string]string `json:"services"`
}
