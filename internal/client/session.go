package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FACorreiaa/multigenqa/internal/types"
)

type Status int

const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// State is a snapshot of the client-side session. User and Token are only
// set while Authenticated.
type State struct {
	Status Status
	User   *types.User
	Token  string
}

func (s State) IsAuthenticated() bool { return s.Status == StatusAuthenticated }
func (s State) IsLoading() bool       { return s.Status == StatusLoading }

// API is the part of the server the session talks to. *Client implements it.
type API interface {
	Me(ctx context.Context) (Result[types.MeResponse], error)
	Logout(ctx context.Context) (Result[types.MessageResponse], error)
}

var _ API = (*Client)(nil)

type subscriber struct {
	fn     func(State)
	active atomic.Bool
}

// Session owns the client-held auth state. It is safe for concurrent use;
// store writes happen under the same lock as the state they belong to, so
// the two never disagree. Every transition bumps a generation counter and
// the startup check drops its result when another transition landed while
// Me was in flight. Subscribers see snapshots in generation order and never
// one older than a snapshot they already got.
type Session struct {
	mu    sync.Mutex
	state State
	gen   uint64

	store  TokenStore
	api    API
	now    func() time.Time
	logger *slog.Logger

	subs    map[int]*subscriber
	nextSub int

	// notifyMu serializes delivery; delivered is the newest generation
	// handed to subscribers.
	notifyMu  sync.Mutex
	delivered uint64
}

type SessionOption func(*Session)

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

func NewSession(store TokenStore, api API, opts ...SessionOption) *Session {
	s := &Session{
		state:  State{Status: StatusLoading},
		store:  store,
		api:    api,
		now:    time.Now,
		logger: slog.Default(),
		subs:   make(map[int]*subscriber),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for state changes. fn runs on the goroutine that
// made the transition and must not block or call Login, Logout, Start,
// UpdateUser or HandleUnauthorized. A snapshot superseded before it could
// be delivered is skipped, so the last call fn sees matches State() once
// transitions stop. The returned cancel func is idempotent; fn is never
// called after it returns.
func (s *Session) Subscribe(fn func(State)) (cancel func()) {
	sub := &subscriber{fn: fn}
	sub.active.Store(true)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.mu.Unlock()

	return func() {
		sub.active.Store(false)
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Start re-validates a persisted token. A token the server accepts moves the
// session to Authenticated; a rejected one (401) is cleared. On any other
// failure the session is Unauthenticated but the token is kept, since it may
// still be valid, and an error is returned. A *TransportError comes back
// unwrapped.
func (s *Session) Start(ctx context.Context) error {
	gen := s.transition(func(st *State) { *st = State{Status: StatusLoading} })

	token, err := s.store.Get()
	if err != nil {
		s.transitionIf(gen, unauthenticated)
		return fmt.Errorf("read session token: %w", err)
	}
	if token == "" {
		s.transitionIf(gen, unauthenticated)
		return nil
	}
	if IsLikelyExpired(token, s.now()) {
		// The local clock may be ahead of the server's, so the token stays
		// in the store until the server itself rejects it.
		s.logger.InfoContext(ctx, "Stored token looks expired, not using it")
		s.transitionIf(gen, unauthenticated)
		return nil
	}

	res, err := s.api.Me(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Could not validate stored token", slog.Any("error", err))
		s.transitionIf(gen, unauthenticated)
		return err
	}
	if me, ok := res.Ok(); ok && me.User != nil {
		applied := s.transitionIf(gen, func(st *State) {
			*st = State{Status: StatusAuthenticated, User: me.User, Token: token}
		})
		if !applied {
			s.logger.DebugContext(ctx, "Discarding stale startup validation")
		}
		return nil
	}

	if res.StatusCode == http.StatusUnauthorized {
		s.logger.InfoContext(ctx, "Stored token rejected", slog.Int("status", res.StatusCode))
		s.clearIf(gen)
		return nil
	}
	// Any other failure says nothing about the token itself.
	s.logger.WarnContext(ctx, "Token validation failed on the server", slog.Int("status", res.StatusCode))
	s.transitionIf(gen, unauthenticated)
	return fmt.Errorf("validate session token: server answered %d", res.StatusCode)
}

// Login stores token and moves to Authenticated from any state.
func (s *Session) Login(user *types.User, token string) error {
	s.mu.Lock()
	if err := s.store.Set(token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("store session token: %w", err)
	}
	s.state = State{Status: StatusAuthenticated, User: user, Token: token}
	s.gen++
	snapshot, gen := s.state, s.gen
	s.mu.Unlock()

	s.notify(snapshot, gen)
	return nil
}

// Logout tells the server (best effort), then clears the store and moves to
// Unauthenticated whatever the server said. Only a store failure is returned.
func (s *Session) Logout(ctx context.Context) error {
	// Invalidate any startup check still in flight.
	s.bump()

	if _, err := s.api.Logout(ctx); err != nil {
		s.logger.WarnContext(ctx, "Server logout failed, clearing local session anyway", slog.Any("error", err))
	}

	s.mu.Lock()
	clearErr := s.store.Clear()
	s.state = State{Status: StatusUnauthenticated}
	s.gen++
	snapshot, gen := s.state, s.gen
	s.mu.Unlock()

	s.notify(snapshot, gen)
	if clearErr != nil {
		return fmt.Errorf("clear session token: %w", clearErr)
	}
	return nil
}

// UpdateUser replaces the held user. Token and status are unchanged.
func (s *Session) UpdateUser(user *types.User) error {
	s.mu.Lock()
	if s.state.Status != StatusAuthenticated {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.state.User = user
	s.gen++
	snapshot, gen := s.state, s.gen
	s.mu.Unlock()

	s.notify(snapshot, gen)
	return nil
}

// HandleUnauthorized is the AuthTransport rejection signal. Applying it
// repeatedly leaves the same state.
func (s *Session) HandleUnauthorized() {
	s.mu.Lock()
	if err := s.store.Clear(); err != nil {
		s.logger.Error("Failed to clear session token", slog.Any("error", err))
	}
	s.gen++
	if s.state.Status == StatusUnauthenticated {
		s.mu.Unlock()
		return
	}
	s.state = State{Status: StatusUnauthenticated}
	snapshot, gen := s.state, s.gen
	s.mu.Unlock()

	s.logger.Info("Session ended by server")
	s.notify(snapshot, gen)
}

func unauthenticated(st *State) { *st = State{Status: StatusUnauthenticated} }

func (s *Session) bump() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
}

// transition applies fn unconditionally and returns the new generation.
func (s *Session) transition(fn func(*State)) uint64 {
	s.mu.Lock()
	fn(&s.state)
	s.gen++
	snapshot, gen := s.state, s.gen
	s.mu.Unlock()

	s.notify(snapshot, gen)
	return gen
}

// transitionIf applies fn only if no other transition happened since gen.
func (s *Session) transitionIf(gen uint64, fn func(*State)) bool {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return false
	}
	fn(&s.state)
	s.gen++
	snapshot, newGen := s.state, s.gen
	s.mu.Unlock()

	s.notify(snapshot, newGen)
	return true
}

// clearIf drops the stored token and goes Unauthenticated, unless a newer
// transition (a fresh Login, say) owns the store by now.
func (s *Session) clearIf(gen uint64) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	if err := s.store.Clear(); err != nil {
		s.logger.Error("Failed to clear session token", slog.Any("error", err))
	}
	s.state = State{Status: StatusUnauthenticated}
	s.gen++
	snapshot, newGen := s.state, s.gen
	s.mu.Unlock()

	s.notify(snapshot, newGen)
}

// notify delivers the snapshot taken at gen unless a newer one already went
// out.
func (s *Session) notify(st State, gen uint64) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if gen <= s.delivered {
		return
	}
	s.delivered = gen

	s.mu.Lock()
	subs := make([]*subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.active.Load() {
			sub.fn(st)
		}
	}
}
