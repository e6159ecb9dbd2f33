package llmChat

import (
	"errors"
	"fmt"
	"time"

	"github.com/FACorreiaa/multigenqa/internal/types"
)

const (
	MsgModelAndMessagesRequired = "Model and messages are required"
	MsgConversationNotFound     = "Conversation not found"
	MsgChatError                = "Failed to process chat request"
	MsgConversationsError       = "Failed to fetch conversations"
	MsgConversationError        = "Failed to fetch conversation"
	MsgModelsError              = "Failed to fetch models"
	MsgUsageError               = "Failed to fetch usage statistics"
)

const (
	conversationListLimit = 50
	titleMaxRunes         = 50
	usagePeriod           = 30 * 24 * time.Hour
	usagePeriodLabel      = "30_days"
	modelsCacheKey        = "models"
	modelsCacheTTL        = 5 * time.Minute
)

// RequestError is a client mistake in a chat request. It matches
// types.ErrBadRequest.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) Is(target error) bool { return target == types.ErrBadRequest }

func invalidModel(model types.ModelID) error {
	return &RequestError{Message: fmt.Sprintf("Invalid model selected: %s", model)}
}

// ProviderError means the upstream model call failed. Message is safe to
// return to the caller.
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string { return e.Message + ": " + e.Err.Error() }

func (e *ProviderError) Unwrap() error { return e.Err }

// IsRequestError extracts the client-facing message of a RequestError.
func IsRequestError(err error) (string, bool) {
	var rerr *RequestError
	if errors.As(err, &rerr) {
		return rerr.Message, true
	}
	return "", false
}

// catalog is the fixed list served by GET /api/models.
var catalog = []types.ModelInfo{
	{ID: types.ModelOpenAI, Name: "OpenAI GPT-4o", Description: "Advanced language model from OpenAI"},
	{ID: types.ModelGemini, Name: "Google Gemini 2.5 Flash", Description: "Google's powerful multimodal AI"},
	{ID: types.ModelClaude, Name: "Claude 3.5 Sonnet", Description: "Anthropic's helpful and harmless AI"},
}
