package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/multigenqa/app/observability/metrics"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	Register(ctx context.Context, req types.RegisterRequest) (*RegisterResult, error)
	Login(ctx context.Context, req types.LoginRequest) (string, *types.User, error)
	// Logout has no server-side effect beyond logging; tokens are stateless.
	Logout(ctx context.Context, user *types.User)
	// Authenticate resolves a bearer token to an active user.
	Authenticate(ctx context.Context, token string) (*types.User, error)
	VerifyEmail(ctx context.Context, token string) (*types.User, error)
}

type RegisterResult struct {
	User              *types.User
	VerificationToken string
}

type AuthServiceImpl struct {
	repo       AuthRepo
	tokens     *TokenService
	notifier   VerificationNotifier
	logger     *slog.Logger
	now        func() time.Time
	bcryptCost int
	// dummyHash is compared against when the email is unknown so both
	// failure paths spend the same bcrypt time.
	dummyHash []byte
}

type ServiceOption func(*AuthServiceImpl)

func WithNotifier(n VerificationNotifier) ServiceOption {
	return func(s *AuthServiceImpl) { s.notifier = n }
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *AuthServiceImpl) { s.now = now }
}

func WithBcryptCost(cost int) ServiceOption {
	return func(s *AuthServiceImpl) { s.bcryptCost = cost }
}

func NewAuthService(repo AuthRepo, tokens *TokenService, logger *slog.Logger, opts ...ServiceOption) *AuthServiceImpl {
	s := &AuthServiceImpl{
		repo:       repo,
		tokens:     tokens,
		logger:     logger,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = NewLogNotifier(logger)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing-equalizer"), s.bcryptCost)
	return s
}

func (s *AuthServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (*RegisterResult, error) {
	l := s.logger.With(slog.String("method", "Register"))
	m := metrics.Get()

	req, err := validateRegistration(req)
	if err != nil {
		m.AuthEvent(ctx, "register", "invalid")
		return nil, err
	}

	if _, err := s.repo.GetUserByEmail(ctx, req.Email); err == nil {
		m.AuthEvent(ctx, "register", "conflict")
		return nil, fmt.Errorf("%w: email already registered", types.ErrConflict)
	} else if !errors.Is(err, types.ErrNotFound) {
		m.AuthEvent(ctx, "register", "error")
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		m.AuthEvent(ctx, "register", "error")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verification, err := newVerificationToken()
	if err != nil {
		m.AuthEvent(ctx, "register", "error")
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, types.NewUserParams{
		Email:                  req.Email,
		PasswordHash:           string(hash),
		FirstName:              req.FirstName,
		LastName:               req.LastName,
		EmailVerificationToken: verification,
	})
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			m.AuthEvent(ctx, "register", "conflict")
			return nil, err
		}
		m.AuthEvent(ctx, "register", "error")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.notifier.SendVerification(ctx, user, verification); err != nil {
		// The account exists; the user can ask for the email again.
		l.WarnContext(ctx, "Failed to send verification", slog.Any("error", err), slog.String("user_id", user.ID.String()))
	}

	m.AuthEvent(ctx, "register", "success")
	l.InfoContext(ctx, "New user registered", slog.String("user_id", user.ID.String()))
	return &RegisterResult{User: user, VerificationToken: verification}, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, req types.LoginRequest) (string, *types.User, error) {
	l := s.logger.With(slog.String("method", "Login"))
	m := metrics.Get()

	req, err := validateLogin(req)
	if err != nil {
		m.AuthEvent(ctx, "login", "invalid")
		return "", nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
			m.AuthEvent(ctx, "login", "invalid_credentials")
			return "", nil, types.ErrInvalidCredentials
		}
		m.AuthEvent(ctx, "login", "error")
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		m.AuthEvent(ctx, "login", "invalid_credentials")
		return "", nil, types.ErrInvalidCredentials
	}

	if !user.IsActive {
		m.AuthEvent(ctx, "login", "disabled")
		l.WarnContext(ctx, "Login attempt on deactivated account", slog.String("user_id", user.ID.String()))
		return "", nil, types.ErrAccountDisabled
	}

	now := s.now()
	if err := s.repo.RecordLogin(ctx, user.ID, now); err != nil {
		m.AuthEvent(ctx, "login", "error")
		return "", nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLoginAt = &now
	user.LastActiveAt = now

	token, err := s.tokens.Issue(user.ID, now)
	if err != nil {
		m.AuthEvent(ctx, "login", "error")
		return "", nil, err
	}

	m.AuthEvent(ctx, "login", "success")
	l.InfoContext(ctx, "User logged in", slog.String("user_id", user.ID.String()))
	return token, user, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, user *types.User) {
	metrics.Get().AuthEvent(ctx, "logout", "success")
	if user == nil {
		s.logger.DebugContext(ctx, "Logout without a valid token")
		return
	}
	s.logger.InfoContext(ctx, "User logged out", slog.String("user_id", user.ID.String()))
}

func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*types.User, error) {
	userID, err := s.tokens.Verify(token, s.now())
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", types.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", types.ErrUnauthenticated)
	}
	return user, nil
}

func (s *AuthServiceImpl) VerifyEmail(ctx context.Context, token string) (*types.User, error) {
	m := metrics.Get()
	if token == "" {
		m.AuthEvent(ctx, "verify_email", "invalid")
		verr := types.NewValidationError()
		verr.Add("token", MsgVerificationRequired)
		return nil, verr
	}

	user, err := s.repo.VerifyEmail(ctx, token)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			m.AuthEvent(ctx, "verify_email", "invalid")
			return nil, types.ErrInvalidVerificationToken
		}
		m.AuthEvent(ctx, "verify_email", "error")
		return nil, fmt.Errorf("failed to verify email: %w", err)
	}

	m.AuthEvent(ctx, "verify_email", "success")
	s.logger.InfoContext(ctx, "Email verified", slog.String("user_id", user.ID.String()))
	return user, nil
}

// newVerificationToken returns 32 random bytes, base64url encoded.
func newVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
