package llmChat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/multigenqa/internal/api/auth"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Chat(ctx context.Context, userID uuid.UUID, req types.ChatRequest) (*types.ChatResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ChatResponse), args.Error(1)
}

func (m *MockChatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]types.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Conversation), args.Error(1)
}

func (m *MockChatService) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*types.Conversation, error) {
	args := m.Called(ctx, userID, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Conversation), args.Error(1)
}

func (m *MockChatService) Models(ctx context.Context) ([]types.ModelInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.ModelInfo), args.Error(1)
}

func (m *MockChatService) Usage(ctx context.Context, userID uuid.UUID) (*types.UsageResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UsageResponse), args.Error(1)
}

func withUser(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), auth.UserIDKey, userID))
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body types.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestChatHandler_Chat(t *testing.T) {
	userID := uuid.New()
	req := types.ChatRequest{Model: types.ModelOpenAI, Messages: []types.ChatMessage{{Role: types.RoleUser, Content: "hi"}}}

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"BadRequest", &RequestError{Message: "Invalid model selected: llama"}, http.StatusBadRequest, "Invalid model selected: llama"},
		{"ConversationNotFound", types.ErrNotFound, http.StatusNotFound, MsgConversationNotFound},
		{"ProviderFailed", &ProviderError{Message: "Error calling OpenAI: upstream request failed", Err: errors.New("x")}, http.StatusInternalServerError, "Error calling OpenAI: upstream request failed"},
		{"Internal", errors.New("db down"), http.StatusInternalServerError, MsgChatError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockChatService)
			h := NewChatHandlerImpl(svc, testLogger())
			svc.On("Chat", mock.Anything, userID, req).Return(nil, tt.err).Once()

			body, _ := json.Marshal(req)
			rr := httptest.NewRecorder()
			h.Chat(rr, withUser(httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body)), userID))

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.message, errorBody(t, rr))
		})
	}

	t.Run("Success", func(t *testing.T) {
		svc := new(MockChatService)
		h := NewChatHandlerImpl(svc, testLogger())
		convID := uuid.New()
		svc.On("Chat", mock.Anything, userID, req).Return(&types.ChatResponse{
			Response: "hello", Model: "gpt-4o", ConversationID: convID, Status: "success",
		}, nil).Once()

		body, _ := json.Marshal(req)
		rr := httptest.NewRecorder()
		h.Chat(rr, withUser(httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body)), userID))

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp types.ChatResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, convID, resp.ConversationID)
	})

	t.Run("NoUser", func(t *testing.T) {
		h := NewChatHandlerImpl(new(MockChatService), testLogger())
		rr := httptest.NewRecorder()
		h.Chat(rr, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestChatHandler_GetConversation(t *testing.T) {
	userID := uuid.New()
	convID := uuid.New()

	route := func(h *HandlerImpl) http.Handler {
		r := chi.NewRouter()
		r.Get("/api/conversations/{id}", h.GetConversation)
		return r
	}

	t.Run("Found", func(t *testing.T) {
		svc := new(MockChatService)
		svc.On("GetConversation", mock.Anything, userID, convID).Return(&types.Conversation{ID: convID, Title: "t"}, nil).Once()

		rr := httptest.NewRecorder()
		route(NewChatHandlerImpl(svc, testLogger())).ServeHTTP(rr,
			withUser(httptest.NewRequest(http.MethodGet, "/api/conversations/"+convID.String(), nil), userID))

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp types.ConversationResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, convID, resp.Conversation.ID)
	})

	t.Run("Foreign", func(t *testing.T) {
		svc := new(MockChatService)
		svc.On("GetConversation", mock.Anything, userID, convID).Return(nil, types.ErrNotFound).Once()

		rr := httptest.NewRecorder()
		route(NewChatHandlerImpl(svc, testLogger())).ServeHTTP(rr,
			withUser(httptest.NewRequest(http.MethodGet, "/api/conversations/"+convID.String(), nil), userID))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, MsgConversationNotFound, errorBody(t, rr))
	})

	t.Run("MalformedID", func(t *testing.T) {
		svc := new(MockChatService)

		rr := httptest.NewRecorder()
		route(NewChatHandlerImpl(svc, testLogger())).ServeHTTP(rr,
			withUser(httptest.NewRequest(http.MethodGet, "/api/conversations/not-a-uuid", nil), userID))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		svc.AssertNotCalled(t, "GetConversation", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestChatHandler_ListsAndStats(t *testing.T) {
	userID := uuid.New()

	t.Run("Conversations", func(t *testing.T) {
		svc := new(MockChatService)
		svc.On("ListConversations", mock.Anything, userID).Return([]types.Conversation{}, nil).Once()

		rr := httptest.NewRecorder()
		NewChatHandlerImpl(svc, testLogger()).ListConversations(rr,
			withUser(httptest.NewRequest(http.MethodGet, "/api/conversations", nil), userID))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"conversations":[]}`, rr.Body.String())
	})

	t.Run("Models", func(t *testing.T) {
		svc := new(MockChatService)
		svc.On("Models", mock.Anything).Return([]types.ModelInfo{{ID: types.ModelGemini, Name: "Gemini", Status: "active"}}, nil).Once()

		rr := httptest.NewRecorder()
		NewChatHandlerImpl(svc, testLogger()).Models(rr, httptest.NewRequest(http.MethodGet, "/api/models", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"id":"gemini"`)
	})

	t.Run("UsageFailure", func(t *testing.T) {
		svc := new(MockChatService)
		svc.On("Usage", mock.Anything, userID).Return(nil, errors.New("db down")).Once()

		rr := httptest.NewRecorder()
		NewChatHandlerImpl(svc, testLogger()).Usage(rr,
			withUser(httptest.NewRequest(http.MethodGet, "/api/usage", nil), userID))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, MsgUsageError, errorBody(t, rr))
	})
}
