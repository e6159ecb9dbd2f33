package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/multigenqa/app/cache"
	"github.com/FACorreiaa/multigenqa/config"
	"github.com/FACorreiaa/multigenqa/internal/api/auth"
	generativeAI "github.com/FACorreiaa/multigenqa/internal/api/generative_ai"
	llmChat "github.com/FACorreiaa/multigenqa/internal/api/llm_chat"
	"github.com/FACorreiaa/multigenqa/internal/api/system"
	"github.com/FACorreiaa/multigenqa/internal/client"
	"github.com/FACorreiaa/multigenqa/internal/router"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

const e2eTTL = 24 * time.Hour

// E2ETestSuite drives the real router through the client SDK. Only Postgres
// and the LLM vendors are replaced by in-memory fakes.
type E2ETestSuite struct {
	suite.Suite
	server *httptest.Server
	clock  *testClock
	logger *slog.Logger

	store   *client.MemoryTokenStore
	client  *client.Client
	session *client.Session
}

func (s *E2ETestSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.clock = &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

	tokens, err := auth.NewTokenService(config.JWTConfig{SecretKey: "e2e-secret", AccessTokenTTL: e2eTTL, Issuer: "multigenqa"})
	s.Require().NoError(err)
	authService := auth.NewAuthService(newMemAuthRepo(), tokens, s.logger,
		auth.WithBcryptCost(bcrypt.MinCost),
		auth.WithServiceClock(s.clock.Now))

	providers := generativeAI.NewRegistryWith(s.logger, map[types.ModelID]generativeAI.Provider{
		types.ModelOpenAI: &echoProvider{name: "OpenAI", configured: true},
		types.ModelGemini: &echoProvider{name: "Gemini"},
		types.ModelClaude: &echoProvider{name: "Claude", configured: true},
	})
	memCache := cache.NewMemoryCache(5*time.Minute, 10*time.Minute)
	chatService := llmChat.NewChatService(newMemChatRepo(), providers, memCache, s.logger)

	handler := router.SetupRouter(&router.Config{
		Logger:         s.logger,
		CORSOrigins:    []string{"http://localhost:3000"},
		Authenticator:  authService,
		AuthHandler:    auth.NewAuthHandler(authService, s.logger, true),
		ChatHandler:    llmChat.NewChatHandlerImpl(chatService, s.logger),
		HealthHandler:  system.NewHealthHandler(okPinger{}, memCache, providers, s.logger),
		MetricsHandler: promhttp.Handler(),
	})
	s.server = httptest.NewServer(handler)

	s.store = client.NewMemoryTokenStore("")
	tr := client.NewAuthTransport(http.DefaultTransport, s.store, s.logger)
	s.client = client.New(s.server.URL, tr, client.WithLogger(s.logger))
	s.session = client.NewSession(s.store, s.client, client.WithClock(s.clock.Now), client.WithSessionLogger(s.logger))
	tr.OnUnauthorized = s.session.HandleUnauthorized
}

func (s *E2ETestSuite) TearDownTest() {
	s.server.Close()
}

func (s *E2ETestSuite) register(email, password string) types.RegisterResponse {
	res, err := s.client.Register(context.Background(), types.RegisterRequest{
		Email: email, Password: password, FirstName: "Alice", LastName: "A",
	})
	s.Require().NoError(err)
	body, ok := res.Ok()
	s.Require().True(ok, "register failed: %+v", res)
	return body
}

func (s *E2ETestSuite) login(email, password string) types.LoginResponse {
	res, err := s.client.Login(context.Background(), email, password)
	s.Require().NoError(err)
	body, ok := res.Ok()
	s.Require().True(ok, "login failed: %+v", res)
	s.Require().NoError(s.session.Login(body.User, body.Token))
	return body
}

func (s *E2ETestSuite) TestScenarioA_Register() {
	body := s.register("alice@example.com", "Abcd1234!")

	s.NotEmpty(body.Message)
	s.Equal("alice@example.com", body.User.Email)
	s.False(body.User.IsVerified)
	// No auto-login.
	tok, _ := s.store.Get()
	s.Empty(tok)
}

func (s *E2ETestSuite) TestScenarioB_WrongPasswordIsGeneric() {
	s.register("alice@example.com", "Abcd1234!")
	ctx := context.Background()

	wrong, err := s.client.Login(ctx, "alice@example.com", "wrong1")
	s.Require().NoError(err)
	unknown, err := s.client.Login(ctx, "nobody@example.com", "wrong1")
	s.Require().NoError(err)

	msg, failed := wrong.Failed()
	s.Require().True(failed)
	s.Equal("Invalid email or password", msg)
	s.Equal(http.StatusUnauthorized, wrong.StatusCode)
	s.Equal(wrong.StatusCode, unknown.StatusCode)
	s.Equal(wrong.Message, unknown.Message)
	s.Nil(wrong.FieldErrors)
}

func (s *E2ETestSuite) TestScenarioC_LoginTokenSubject() {
	s.register("Alice@Example.com ", "Abcd1234!")

	body := s.login("alice@example.com", "Abcd1234!")

	s.Equal("alice@example.com", body.User.Email)
	s.NotEmpty(body.Token)
	s.Require().NotNil(body.User.LastLoginAt)

	claims := &jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(body.Token, claims)
	s.Require().NoError(err)
	s.Equal(body.User.ID.String(), claims.Subject)
	s.Equal(s.clock.Now().Add(e2eTTL).Unix(), claims.ExpiresAt.Unix())

	me, err := s.client.Me(context.Background())
	s.Require().NoError(err)
	meBody, ok := me.Ok()
	s.Require().True(ok)
	s.Equal(body.User.ID, meBody.User.ID)
}

func (s *E2ETestSuite) TestScenarioD_ExpiredTokenLogsOut() {
	s.register("alice@example.com", "Abcd1234!")
	s.login("alice@example.com", "Abcd1234!")
	s.Require().True(s.session.State().IsAuthenticated())

	s.clock.Advance(e2eTTL)

	res, err := s.client.Me(context.Background())
	s.Require().NoError(err)
	msg, failed := res.Failed()
	s.Require().True(failed)
	s.Equal(http.StatusUnauthorized, res.StatusCode)
	s.Equal("Token has expired", msg)

	s.Equal(client.StatusUnauthenticated, s.session.State().Status)
	tok, _ := s.store.Get()
	s.Empty(tok)
}

func (s *E2ETestSuite) TestScenarioE_AllPasswordViolations() {
	res, err := s.client.Register(context.Background(), types.RegisterRequest{
		Email: "alice@example.com", Password: "short", FirstName: "Alice", LastName: "A",
	})
	s.Require().NoError(err)

	fields, invalid := res.ValidationFailed()
	s.Require().True(invalid)
	s.Equal(http.StatusBadRequest, res.StatusCode)
	s.GreaterOrEqual(len(fields["password"]), 3)
	joined := strings.Join(fields["password"], "|")
	s.Contains(joined, "at least 8 characters")
	s.Contains(joined, "uppercase")
	s.Contains(joined, "number")
}

func (s *E2ETestSuite) TestDuplicateEmail() {
	s.register("alice@example.com", "Abcd1234!")

	res, err := s.client.Register(context.Background(), types.RegisterRequest{
		Email: "ALICE@example.com", Password: "Abcd1234!", FirstName: "Alice", LastName: "A",
	})
	s.Require().NoError(err)
	fields, invalid := res.ValidationFailed()
	s.Require().True(invalid)
	s.Equal(http.StatusConflict, res.StatusCode)
	s.NotEmpty(fields["email"])
}

func (s *E2ETestSuite) TestVerifyEmailIsSingleUse() {
	body := s.register("alice@example.com", "Abcd1234!")
	s.Require().NotEmpty(body.VerificationToken)
	ctx := context.Background()

	first, err := s.client.VerifyEmail(ctx, body.VerificationToken)
	s.Require().NoError(err)
	_, ok := first.Ok()
	s.True(ok)

	second, err := s.client.VerifyEmail(ctx, body.VerificationToken)
	s.Require().NoError(err)
	_, failed := second.Failed()
	s.True(failed)
	s.Equal(http.StatusBadRequest, second.StatusCode)

	s.login("alice@example.com", "Abcd1234!")
	me, err := s.client.Me(ctx)
	s.Require().NoError(err)
	meBody, _ := me.Ok()
	s.True(meBody.User.IsVerified)
}

func (s *E2ETestSuite) TestStartupRevalidation() {
	s.register("alice@example.com", "Abcd1234!")
	body := s.login("alice@example.com", "Abcd1234!")

	// A fresh process finds the persisted token.
	restarted := client.NewSession(s.store, s.client, client.WithClock(s.clock.Now), client.WithSessionLogger(s.logger))
	s.Require().True(restarted.State().IsLoading())
	s.Require().NoError(restarted.Start(context.Background()))

	st := restarted.State()
	s.True(st.IsAuthenticated())
	s.Equal(body.User.ID, st.User.ID)
	s.Equal(body.Token, st.Token)
}

func (s *E2ETestSuite) TestLogoutAlwaysClears() {
	s.register("alice@example.com", "Abcd1234!")
	s.login("alice@example.com", "Abcd1234!")

	s.Require().NoError(s.session.Logout(context.Background()))

	s.Equal(client.StatusUnauthenticated, s.session.State().Status)
	tok, _ := s.store.Get()
	s.Empty(tok)

	// Logging out again without a token is still fine.
	res, err := s.client.Logout(context.Background())
	s.Require().NoError(err)
	_, ok := res.Ok()
	s.True(ok)
}

func (s *E2ETestSuite) TestTransportErrorKeepsToken() {
	s.register("alice@example.com", "Abcd1234!")
	body := s.login("alice@example.com", "Abcd1234!")

	s.server.Close()
	_, err := s.client.Me(context.Background())
	s.True(client.IsTransportError(err))

	tok, _ := s.store.Get()
	s.Equal(body.Token, tok)
	s.True(s.session.State().IsAuthenticated())
}

func (s *E2ETestSuite) TestChatFlow() {
	s.register("alice@example.com", "Abcd1234!")
	s.login("alice@example.com", "Abcd1234!")
	ctx := context.Background()

	res, err := s.client.Chat(ctx, types.ChatRequest{
		Model:    types.ModelOpenAI,
		Messages: []types.ChatMessage{{Role: types.RoleUser, Content: "What is the capital of Portugal?"}},
	})
	s.Require().NoError(err)
	reply, ok := res.Ok()
	s.Require().True(ok, "chat failed: %+v", res)
	s.Equal("success", reply.Status)
	s.Equal("echo: What is the capital of Portugal?", reply.Response)

	follow, err := s.client.Chat(ctx, types.ChatRequest{
		Model:          types.ModelClaude,
		ConversationID: &reply.ConversationID,
		Messages: []types.ChatMessage{
			{Role: types.RoleUser, Content: "What is the capital of Portugal?"},
			{Role: types.RoleAssistant, Content: reply.Response},
			{Role: types.RoleUser, Content: "And Spain?"},
		},
	})
	s.Require().NoError(err)
	_, ok = follow.Ok()
	s.Require().True(ok)

	convs, err := s.client.Conversations(ctx)
	s.Require().NoError(err)
	list, ok := convs.Ok()
	s.Require().True(ok)
	s.Require().Len(list.Conversations, 1)
	s.Equal("What is the capital of Portugal?", list.Conversations[0].Title)
	s.Equal(4, list.Conversations[0].MessageCount)

	one, err := s.client.Conversation(ctx, reply.ConversationID)
	s.Require().NoError(err)
	detail, ok := one.Ok()
	s.Require().True(ok)
	s.Len(detail.Conversation.Messages, 4)

	unconfigured, err := s.client.Chat(ctx, types.ChatRequest{
		Model:    types.ModelGemini,
		Messages: []types.ChatMessage{{Role: types.RoleUser, Content: "hi"}},
	})
	s.Require().NoError(err)
	msg, failed := unconfigured.Failed()
	s.Require().True(failed)
	s.Equal(http.StatusInternalServerError, unconfigured.StatusCode)
	s.Contains(msg, "Gemini")

	// Chat is protected: without a session the server challenges the caller.
	s.Require().NoError(s.session.Logout(ctx))
	anon, err := s.client.Chat(ctx, types.ChatRequest{Model: types.ModelOpenAI, Messages: []types.ChatMessage{{Role: types.RoleUser, Content: "hi"}}})
	s.Require().NoError(err)
	s.Equal(http.StatusUnauthorized, anon.StatusCode)
}

func (s *E2ETestSuite) TestModelsAndHealth() {
	res, err := s.client.Models(context.Background())
	s.Require().NoError(err)
	body, ok := res.Ok()
	s.Require().True(ok)
	s.Len(body.Models, 3)

	status := map[types.ModelID]string{}
	for _, m := range body.Models {
		status[m.ID] = m.Status
	}
	s.Equal("active", status[types.ModelOpenAI])
	s.Equal("not_configured", status[types.ModelGemini])

	resp, err := http.Get(s.server.URL + "/api/health")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	missing, err := http.Get(s.server.URL + "/api/nope")
	s.Require().NoError(err)
	defer missing.Body.Close()
	s.Equal(http.StatusNotFound, missing.StatusCode)
}

func TestE2E(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}

// --- fakes ---

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type echoProvider struct {
	name       string
	configured bool
}

func (p *echoProvider) Complete(_ context.Context, msgs []types.ChatMessage) (*types.Completion, error) {
	tokens := 7
	return &types.Completion{
		Text:         "echo: " + msgs[len(msgs)-1].Content,
		Model:        "echo-" + strings.ToLower(p.name),
		TokensUsed:   &tokens,
		ResponseTime: 10 * time.Millisecond,
	}, nil
}

func (p *echoProvider) Configured() bool { return p.configured }
func (p *echoProvider) Model() string    { return "echo-" + strings.ToLower(p.name) }
func (p *echoProvider) Endpoint() string { return "/echo" }
func (p *echoProvider) Name() string     { return p.name }

type memAuthRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*types.User
}

func newMemAuthRepo() *memAuthRepo {
	return &memAuthRepo{users: map[uuid.UUID]*types.User{}}
}

func (r *memAuthRepo) CreateUser(_ context.Context, p types.NewUserParams) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == p.Email {
			return nil, fmt.Errorf("%w: email already registered", types.ErrConflict)
		}
	}
	token := p.EmailVerificationToken
	u := &types.User{
		ID: uuid.New(), Email: p.Email, PasswordHash: p.PasswordHash,
		FirstName: p.FirstName, LastName: p.LastName, IsActive: true,
		EmailVerificationToken: &token, CreatedAt: time.Now(), LastActiveAt: time.Now(),
	}
	r.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (r *memAuthRepo) GetUserByEmail(_ context.Context, email string) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, types.ErrNotFound
}

func (r *memAuthRepo) GetUserByID(_ context.Context, id uuid.UUID) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memAuthRepo) RecordLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return types.ErrNotFound
	}
	u.LastLoginAt = &at
	u.LastActiveAt = at
	return nil
}

func (r *memAuthRepo) VerifyEmail(_ context.Context, token string) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.EmailVerificationToken != nil && *u.EmailVerificationToken == token {
			u.IsVerified = true
			u.EmailVerificationToken = nil
			cp := *u
			return &cp, nil
		}
	}
	return nil, types.ErrNotFound
}

type memChatRepo struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*types.Conversation
	messages      map[uuid.UUID][]types.StoredMessage
	usage         []types.UsageRecord
}

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{
		conversations: map[uuid.UUID]*types.Conversation{},
		messages:      map[uuid.UUID][]types.StoredMessage{},
	}
}

func (r *memChatRepo) CreateConversation(_ context.Context, userID uuid.UUID, title string) (*types.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	c := &types.Conversation{ID: uuid.New(), UserID: userID, Title: title, CreatedAt: now, UpdatedAt: now, IsActive: true}
	r.conversations[c.ID] = c
	cp := *c
	return &cp, nil
}

func (r *memChatRepo) GetConversation(_ context.Context, userID, id uuid.UUID) (*types.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok || c.UserID != userID {
		return nil, types.ErrNotFound
	}
	cp := *c
	cp.MessageCount = len(r.messages[id])
	return &cp, nil
}

func (r *memChatRepo) ListConversations(_ context.Context, userID uuid.UUID, limit int) ([]types.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.Conversation
	for _, c := range r.conversations {
		if c.UserID == userID && c.IsActive {
			cp := *c
			cp.MessageCount = len(r.messages[c.ID])
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memChatRepo) GetMessages(_ context.Context, id uuid.UUID) ([]types.StoredMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.StoredMessage(nil), r.messages[id]...), nil
}

func (r *memChatRepo) AddMessage(_ context.Context, msg types.StoredMessage) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = uuid.New()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], msg)
	return msg.ID, nil
}

func (r *memChatRepo) SaveReply(ctx context.Context, msg types.StoredMessage) (uuid.UUID, error) {
	id, err := r.AddMessage(ctx, msg)
	if err != nil {
		return uuid.Nil, err
	}
	r.mu.Lock()
	if c, ok := r.conversations[msg.ConversationID]; ok {
		c.UpdatedAt = time.Now()
	}
	r.mu.Unlock()
	return id, nil
}

func (r *memChatRepo) RecordUsage(_ context.Context, rec types.UsageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage = append(r.usage, rec)
	return nil
}

func (r *memChatRepo) UsageSince(_ context.Context, userID uuid.UUID, _ time.Time) ([]types.UsageStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byModel := map[string]*types.UsageStat{}
	for _, rec := range r.usage {
		if rec.UserID != userID {
			continue
		}
		st, ok := byModel[rec.Model]
		if !ok {
			st = &types.UsageStat{Model: rec.Model}
			byModel[rec.Model] = st
		}
		st.Requests++
		if rec.TokensUsed != nil {
			st.Tokens += int64(*rec.TokensUsed)
		}
	}
	out := make([]types.UsageStat, 0, len(byModel))
	for _, st := range byModel {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out, nil
}
