package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/multigenqa/app/cache"
	"github.com/FACorreiaa/multigenqa/config"
	"github.com/FACorreiaa/multigenqa/internal/api/auth"
	generativeAI "github.com/FACorreiaa/multigenqa/internal/api/generative_ai"
	llmChat "github.com/FACorreiaa/multigenqa/internal/api/llm_chat"
	"github.com/FACorreiaa/multigenqa/internal/api/system"
	"github.com/FACorreiaa/multigenqa/internal/router"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

// BenchmarkSuite holds a fully wired router backed by in-memory stores.
type BenchmarkSuite struct {
	router    chi.Router
	tokens    *auth.TokenService
	authToken string
}

func setupBenchmarkSuite(b *testing.B) *BenchmarkSuite {
	b.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenService(config.JWTConfig{SecretKey: "bench-secret", AccessTokenTTL: time.Hour, Issuer: "multigenqa"})
	if err != nil {
		b.Fatal(err)
	}
	authService := auth.NewAuthService(newMemAuthRepo(), tokens, logger, auth.WithBcryptCost(bcrypt.MinCost))
	providers := generativeAI.NewRegistryWith(logger, map[types.ModelID]generativeAI.Provider{
		types.ModelOpenAI: &echoProvider{name: "OpenAI", configured: true},
	})
	memCache := cache.NewMemoryCache(5*time.Minute, 10*time.Minute)
	chatService := llmChat.NewChatService(newMemChatRepo(), providers, memCache, logger)

	s := &BenchmarkSuite{
		tokens: tokens,
		router: router.SetupRouter(&router.Config{
			Logger:         logger,
			Authenticator:  authService,
			AuthHandler:    auth.NewAuthHandler(authService, logger, false),
			ChatHandler:    llmChat.NewChatHandlerImpl(chatService, logger),
			HealthHandler:  system.NewHealthHandler(okPinger{}, memCache, providers, logger),
			MetricsHandler: http.NotFoundHandler(),
		}),
	}

	reg := s.do(http.MethodPost, "/api/auth/register", types.RegisterRequest{
		Email: "bench@example.com", Password: "Abcd1234!", FirstName: "Bench", LastName: "B",
	}, "")
	if reg.Code != http.StatusCreated {
		b.Fatalf("register: %d %s", reg.Code, reg.Body.String())
	}
	login := s.do(http.MethodPost, "/api/auth/login", types.LoginRequest{Email: "bench@example.com", Password: "Abcd1234!"}, "")
	var lr types.LoginResponse
	if err := json.Unmarshal(login.Body.Bytes(), &lr); err != nil {
		b.Fatal(err)
	}
	s.authToken = lr.Token
	return s
}

func (s *BenchmarkSuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf).WithContext(context.Background())
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func BenchmarkTokenIssue(b *testing.B) {
	s := setupBenchmarkSuite(b)
	id := uuid.New()
	now := time.Now()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.tokens.Issue(id, now); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTokenVerify(b *testing.B) {
	s := setupBenchmarkSuite(b)
	now := time.Now()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.tokens.Verify(s.authToken, now); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUserLogin(b *testing.B) {
	s := setupBenchmarkSuite(b)
	req := types.LoginRequest{Email: "bench@example.com", Password: "Abcd1234!"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if rr := s.do(http.MethodPost, "/api/auth/login", req, ""); rr.Code != http.StatusOK {
			b.Fatalf("login: %d", rr.Code)
		}
	}
}

func BenchmarkMe(b *testing.B) {
	s := setupBenchmarkSuite(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if rr := s.do(http.MethodGet, "/api/auth/me", nil, s.authToken); rr.Code != http.StatusOK {
			b.Fatalf("me: %d", rr.Code)
		}
	}
}

func BenchmarkRejectedToken(b *testing.B) {
	s := setupBenchmarkSuite(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if rr := s.do(http.MethodGet, "/api/auth/me", nil, "not-a-token"); rr.Code != http.StatusUnauthorized {
			b.Fatalf("me: %d", rr.Code)
		}
	}
}

func BenchmarkConcurrentMe(b *testing.B) {
	s := setupBenchmarkSuite(b)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			s.do(http.MethodGet, "/api/auth/me", nil, s.authToken)
		}
	})
}

func BenchmarkPasswordViolations(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = auth.PasswordViolations("short")
	}
}

func BenchmarkChat(b *testing.B) {
	s := setupBenchmarkSuite(b)
	req := types.ChatRequest{
		Model:    types.ModelOpenAI,
		Messages: []types.ChatMessage{{Role: types.RoleUser, Content: "ping"}},
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if rr := s.do(http.MethodPost, "/api/chat", req, s.authToken); rr.Code != http.StatusOK {
			b.Fatalf("chat: %d %s", rr.Code, rr.Body.String())
		}
	}
}
