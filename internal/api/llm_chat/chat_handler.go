package llmChat

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/multigenqa/internal/api"
	"github.com/FACorreiaa/multigenqa/internal/api/auth"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

type HandlerImpl struct {
	chatService ChatService
	logger      *slog.Logger
}

func NewChatHandlerImpl(chatService ChatService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		chatService: chatService,
		logger:      logger,
	}
}

// Chat godoc
// @Summary      Ask a model
// @Description  Sends the conversation to the selected provider and stores both turns.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body types.ChatRequest true "Model and messages"
// @Success      200 {object} types.ChatResponse
// @Failure      400 {object} types.ErrorBody
// @Failure      401 {object} types.ErrorBody
// @Failure      404 {object} types.ErrorBody
// @Failure      500 {object} types.ErrorBody
// @Router       /chat [post]
func (h *HandlerImpl) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Chat"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, auth.MsgAuthorizationRequired)
		return
	}

	var req types.ChatRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.chatService.Chat(ctx, userID, req)
	if err != nil {
		var perr *ProviderError
		switch {
		case errors.Is(err, types.ErrBadRequest):
			msg, _ := IsRequestError(err)
			l.WarnContext(ctx, "Rejected chat request", slog.String("reason", msg))
			api.ErrorResponse(w, r, http.StatusBadRequest, msg)
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, MsgConversationNotFound)
		case errors.As(err, &perr):
			api.ErrorResponse(w, r, http.StatusInternalServerError, perr.Message)
		default:
			l.ErrorContext(ctx, "Chat request failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, MsgChatError)
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// ListConversations godoc
// @Summary      List conversations
// @Description  The caller's 50 most recently updated active conversations.
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} types.ConversationsResponse
// @Failure      401 {object} types.ErrorBody
// @Failure      500 {object} types.ErrorBody
// @Router       /conversations [get]
func (h *HandlerImpl) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, auth.MsgAuthorizationRequired)
		return
	}

	conversations, err := h.chatService.ListConversations(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Error fetching conversations", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, MsgConversationsError)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.ConversationsResponse{Conversations: conversations})
}

// GetConversation godoc
// @Summary      Get a conversation
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Conversation ID"
// @Success      200 {object} types.ConversationResponse
// @Failure      401 {object} types.ErrorBody
// @Failure      404 {object} types.ErrorBody
// @Failure      500 {object} types.ErrorBody
// @Router       /conversations/{id} [get]
func (h *HandlerImpl) GetConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, auth.MsgAuthorizationRequired)
		return
	}

	// A malformed id cannot name one of the caller's conversations.
	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusNotFound, MsgConversationNotFound)
		return
	}

	conversation, err := h.chatService.GetConversation(ctx, userID, conversationID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, MsgConversationNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "Error fetching conversation", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, MsgConversationError)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.ConversationResponse{Conversation: conversation})
}

// Models godoc
// @Summary      Available models
// @Tags         Chat
// @Produce      json
// @Success      200 {object} types.ModelsResponse
// @Router       /models [get]
func (h *HandlerImpl) Models(w http.ResponseWriter, r *http.Request) {
	models, err := h.chatService.Models(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error fetching models", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, MsgModelsError)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.ModelsResponse{Models: models})
}

// Usage godoc
// @Summary      Usage statistics
// @Description  Per-model request, token, cost and latency totals for the last 30 days.
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} types.UsageResponse
// @Failure      401 {object} types.ErrorBody
// @Failure      500 {object} types.ErrorBody
// @Router       /usage [get]
func (h *HandlerImpl) Usage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, auth.MsgAuthorizationRequired)
		return
	}

	usage, err := h.chatService.Usage(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Error fetching usage stats", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, MsgUsageError)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, usage)
}
