package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/multigenqa/app/db"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

var _ AuthRepo = (*AuthRepoFactory)(nil)

// AuthRepo is the credential store.
type AuthRepo interface {
	CreateUser(ctx context.Context, params types.NewUserParams) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	RecordLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
	// VerifyEmail consumes a verification token. It returns types.ErrNotFound
	// when no user holds it.
	VerifyEmail(ctx context.Context, token string) (*types.User, error)
}

type AuthRepoFactory struct {
	logger *slog.Logger
	pgpool database.DB
}

func NewAuthRepoFactory(pgpool database.DB, logger *slog.Logger) *AuthRepoFactory {
	return &AuthRepoFactory{
		logger: logger,
		pgpool: pgpool,
	}
}

const userColumns = `id, email, password_hash, first_name, last_name, is_active, is_verified,
	email_verification_token, created_at, last_active_at, last_login_at`

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.IsActive, &u.IsVerified,
		&u.EmailVerificationToken, &u.CreatedAt, &u.LastActiveAt, &u.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func startSpan(ctx context.Context, name, operation string) (context.Context, trace.Span) {
	return otel.Tracer("AuthRepo").Start(ctx, name, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", "users"),
	))
}

func failSpan(span trace.Span, err error, msg string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
}

func (r *AuthRepoFactory) CreateUser(ctx context.Context, params types.NewUserParams) (*types.User, error) {
	ctx, span := startSpan(ctx, "CreateUser", "INSERT")
	defer span.End()
	l := r.logger.With(slog.String("method", "CreateUser"))

	query := `INSERT INTO users (email, password_hash, first_name, last_name, email_verification_token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	user, err := scanUser(r.pgpool.QueryRow(ctx, query,
		params.Email, params.PasswordHash, params.FirstName, params.LastName, params.EmailVerificationToken))
	if err != nil {
		if database.IsUniqueViolation(err) {
			failSpan(span, err, "Duplicate email")
			return nil, fmt.Errorf("%w: email already registered", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		failSpan(span, err, "Insert failed")
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	span.SetStatus(codes.Ok, "User created")
	return user, nil
}

func (r *AuthRepoFactory) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span := startSpan(ctx, "GetUserByEmail", "SELECT")
	defer span.End()

	user, err := scanUser(r.pgpool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "No user")
			return nil, types.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query user by email", slog.Any("error", err))
		failSpan(span, err, "Query failed")
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	return user, nil
}

func (r *AuthRepoFactory) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	ctx, span := startSpan(ctx, "GetUserByID", "SELECT")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	user, err := scanUser(r.pgpool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "No user")
			return nil, types.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query user by id", slog.Any("error", err), slog.String("user_id", userID.String()))
		failSpan(span, err, "Query failed")
		return nil, fmt.Errorf("failed to query user by id: %w", err)
	}
	return user, nil
}

func (r *AuthRepoFactory) RecordLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	ctx, span := startSpan(ctx, "RecordLogin", "UPDATE")
	defer span.End()

	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET last_login_at = $1, last_active_at = $1 WHERE id = $2`, at, userID)
	if err != nil {
		failSpan(span, err, "Update failed")
		return fmt.Errorf("record login: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *AuthRepoFactory) VerifyEmail(ctx context.Context, token string) (*types.User, error) {
	ctx, span := startSpan(ctx, "VerifyEmail", "UPDATE")
	defer span.End()

	// Single statement, so two concurrent uses of one token cannot both win.
	query := `UPDATE users SET is_verified = TRUE, email_verification_token = NULL
		WHERE email_verification_token = $1
		RETURNING ` + userColumns
	user, err := scanUser(r.pgpool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Unknown token")
			return nil, types.ErrNotFound
		}
		failSpan(span, err, "Update failed")
		return nil, fmt.Errorf("verify email: db update failed: %w", err)
	}
	return user, nil
}
