package llmChat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/multigenqa/app/cache"
	"github.com/FACorreiaa/multigenqa/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/multigenqa/internal/api/generative_ai"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

var _ ChatService = (*ChatServiceImpl)(nil)

type ChatService interface {
	Chat(ctx context.Context, userID uuid.UUID, req types.ChatRequest) (*types.ChatResponse, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]types.Conversation, error)
	GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*types.Conversation, error)
	Models(ctx context.Context) ([]types.ModelInfo, error)
	Usage(ctx context.Context, userID uuid.UUID) (*types.UsageResponse, error)
}

// Providers is the part of generativeAI.Registry the service needs.
type Providers interface {
	Get(id types.ModelID) (generativeAI.Provider, error)
	Complete(ctx context.Context, id types.ModelID, messages []types.ChatMessage) (*types.Completion, error)
	Status() map[types.ModelID]string
}

type ChatServiceImpl struct {
	repo      Repository
	providers Providers
	cache     cache.Cache
	logger    *slog.Logger
	now       func() time.Time
}

type ServiceOption func(*ChatServiceImpl)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *ChatServiceImpl) { s.now = now }
}

func NewChatService(repo Repository, providers Providers, c cache.Cache, logger *slog.Logger, opts ...ServiceOption) *ChatServiceImpl {
	s := &ChatServiceImpl{
		repo:      repo,
		providers: providers,
		cache:     c,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateChatRequest(req types.ChatRequest) error {
	if req.Model == "" || len(req.Messages) == 0 {
		return &RequestError{Message: MsgModelAndMessagesRequired}
	}
	for _, m := range req.Messages {
		switch m.Role {
		case types.RoleUser, types.RoleAssistant, types.RoleSystem:
		default:
			return &RequestError{Message: fmt.Sprintf("Invalid message role: %s", m.Role)}
		}
	}
	return nil
}

// conversationTitle is the first message cut to 50 runes.
func conversationTitle(messages []types.ChatMessage) string {
	if len(messages) == 0 || messages[0].Content == "" {
		return "New Conversation"
	}
	runes := []rune(messages[0].Content)
	if len(runes) <= titleMaxRunes {
		return string(runes)
	}
	return string(runes[:titleMaxRunes]) + "..."
}

func (s *ChatServiceImpl) Chat(ctx context.Context, userID uuid.UUID, req types.ChatRequest) (*types.ChatResponse, error) {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "Chat", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("model", string(req.Model)),
		attribute.Int("messages.count", len(req.Messages)),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Chat"), slog.String("model", string(req.Model)))

	if err := validateChatRequest(req); err != nil {
		span.SetStatus(codes.Error, "Invalid request")
		return nil, err
	}
	provider, err := s.providers.Get(req.Model)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid model")
		return nil, invalidModel(req.Model)
	}

	conversation, err := s.resolveConversation(ctx, userID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Conversation unavailable")
		return nil, err
	}
	span.SetAttributes(attribute.String("conversation.id", conversation.ID.String()))

	if last := req.Messages[len(req.Messages)-1]; last.Role == types.RoleUser {
		if _, err := s.repo.AddMessage(ctx, types.StoredMessage{
			ConversationID: conversation.ID,
			Role:           types.RoleUser,
			Content:        last.Content,
		}); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to store user message")
			return nil, err
		}
	}

	start := s.now()
	completion, err := s.providers.Complete(ctx, req.Model, req.Messages)
	if err != nil {
		elapsed := s.now().Sub(start).Seconds()
		metrics.Get().AIRequest(ctx, string(req.Model), "error", 0)
		s.recordUsage(ctx, types.UsageRecord{
			UserID:       userID,
			Model:        provider.Model(),
			Endpoint:     provider.Endpoint(),
			ResponseTime: elapsed,
			StatusCode:   500,
		})
		l.ErrorContext(ctx, "AI provider call failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Provider call failed")

		reason := "upstream request failed"
		if errors.Is(err, generativeAI.ErrNotConfigured) {
			reason = generativeAI.ErrNotConfigured.Error()
		}
		return nil, &ProviderError{Message: fmt.Sprintf("Error calling %s: %s", provider.Name(), reason), Err: err}
	}

	responseTime := completion.ResponseTime.Seconds()
	metrics.Get().AIRequest(ctx, string(req.Model), "success", responseTime)
	s.recordUsage(ctx, types.UsageRecord{
		UserID:       userID,
		Model:        completion.Model,
		Endpoint:     provider.Endpoint(),
		TokensUsed:   completion.TokensUsed,
		ResponseTime: responseTime,
		StatusCode:   200,
	})

	model := completion.Model
	if _, err := s.repo.SaveReply(ctx, types.StoredMessage{
		ConversationID: conversation.ID,
		Role:           types.RoleAssistant,
		Content:        completion.Text,
		ModelUsed:      &model,
		TokenCount:     completion.TokensUsed,
		ResponseTime:   &responseTime,
		Timestamp:      s.now(),
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store reply")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Chat processed")
	l.InfoContext(ctx, "Chat request processed", slog.String("conversation_id", conversation.ID.String()))
	return &types.ChatResponse{
		Response:       completion.Text,
		Model:          completion.Model,
		ConversationID: conversation.ID,
		Status:         "success",
		Metadata: types.ChatMetadata{
			TokensUsed:   completion.TokensUsed,
			ResponseTime: responseTime,
		},
	}, nil
}

func (s *ChatServiceImpl) resolveConversation(ctx context.Context, userID uuid.UUID, req types.ChatRequest) (*types.Conversation, error) {
	if req.ConversationID != nil {
		return s.repo.GetConversation(ctx, userID, *req.ConversationID)
	}
	return s.repo.CreateConversation(ctx, userID, conversationTitle(req.Messages))
}

// recordUsage never fails the request.
func (s *ChatServiceImpl) recordUsage(ctx context.Context, rec types.UsageRecord) {
	if err := s.repo.RecordUsage(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record API usage", slog.Any("error", err))
	}
}

func (s *ChatServiceImpl) ListConversations(ctx context.Context, userID uuid.UUID) ([]types.Conversation, error) {
	return s.repo.ListConversations(ctx, userID, conversationListLimit)
}

func (s *ChatServiceImpl) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*types.Conversation, error) {
	conversation, err := s.repo.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.GetMessages(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}
	conversation.Messages = messages
	conversation.MessageCount = len(messages)
	return conversation, nil
}

// Models serves the catalog from cache for five minutes.
func (s *ChatServiceImpl) Models(ctx context.Context) ([]types.ModelInfo, error) {
	var models []types.ModelInfo
	err := cache.GetJSON(ctx, s.cache, modelsCacheKey, &models)
	if err == nil {
		return models, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.WarnContext(ctx, "Models cache unavailable", slog.Any("error", err))
	}

	status := s.providers.Status()
	models = make([]types.ModelInfo, 0, len(catalog))
	for _, m := range catalog {
		if status[m.ID] == "configured" {
			m.Status = "active"
		} else {
			m.Status = "not_configured"
		}
		models = append(models, m)
	}

	if err := cache.SetJSON(ctx, s.cache, modelsCacheKey, models, modelsCacheTTL); err != nil {
		s.logger.WarnContext(ctx, "Failed to cache models", slog.Any("error", err))
	}
	return models, nil
}

func (s *ChatServiceImpl) Usage(ctx context.Context, userID uuid.UUID) (*types.UsageResponse, error) {
	stats, err := s.repo.UsageSince(ctx, userID, s.now().Add(-usagePeriod))
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].Cost = round(stats[i].Cost, 4)
		stats[i].AvgResponseTime = round(stats[i].AvgResponseTime, 3)
	}
	return &types.UsageResponse{Period: usagePeriodLabel, Usage: stats}, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
