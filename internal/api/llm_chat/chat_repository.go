package llmChat

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

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	CreateConversation(ctx context.Context, userID uuid.UUID, title string) (*types.Conversation, error)
	// GetConversation returns types.ErrNotFound for unknown ids and for
	// conversations owned by someone else.
	GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*types.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID, limit int) ([]types.Conversation, error)
	GetMessages(ctx context.Context, conversationID uuid.UUID) ([]types.StoredMessage, error)
	AddMessage(ctx context.Context, msg types.StoredMessage) (uuid.UUID, error)
	// SaveReply stores the assistant message and bumps the conversation's
	// updated_at in one transaction.
	SaveReply(ctx context.Context, msg types.StoredMessage) (uuid.UUID, error)

	RecordUsage(ctx context.Context, rec types.UsageRecord) error
	UsageSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]types.UsageStat, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool database.DB
}

func NewRepositoryImpl(pgpool database.DB, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

func startSpan(ctx context.Context, name, operation, table string) (context.Context, trace.Span) {
	return otel.Tracer("ChatRepo").Start(ctx, name, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", table),
	))
}

func (r *RepositoryImpl) CreateConversation(ctx context.Context, userID uuid.UUID, title string) (*types.Conversation, error) {
	ctx, span := startSpan(ctx, "CreateConversation", "INSERT", "conversations")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	query := `
        INSERT INTO conversations (user_id, title)
        VALUES ($1, $2)
        RETURNING id, user_id, title, created_at, updated_at, is_active`

	var c types.Conversation
	err := r.pgpool.QueryRow(ctx, query, userID, title).Scan(
		&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.IsActive)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to insert conversation")
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}

	span.SetAttributes(attribute.String("conversation.id", c.ID.String()))
	span.SetStatus(codes.Ok, "Conversation created")
	return &c, nil
}

func (r *RepositoryImpl) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*types.Conversation, error) {
	ctx, span := startSpan(ctx, "GetConversation", "SELECT", "conversations")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("conversation.id", conversationID.String()),
	)

	query := `
        SELECT c.id, c.user_id, c.title, c.created_at, c.updated_at, c.is_active,
               (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
        FROM conversations c
        WHERE c.id = $1 AND c.user_id = $2`

	var c types.Conversation
	err := r.pgpool.QueryRow(ctx, query, conversationID, userID).Scan(
		&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.IsActive, &c.MessageCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Conversation not found")
			return nil, types.ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	return &c, nil
}

func (r *RepositoryImpl) ListConversations(ctx context.Context, userID uuid.UUID, limit int) ([]types.Conversation, error) {
	ctx, span := startSpan(ctx, "ListConversations", "SELECT", "conversations")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID.String()), attribute.Int("limit", limit))

	query := `
        SELECT c.id, c.user_id, c.title, c.created_at, c.updated_at, c.is_active, COUNT(m.id)
        FROM conversations c
        LEFT JOIN messages m ON m.conversation_id = c.id
        WHERE c.user_id = $1 AND c.is_active = TRUE
        GROUP BY c.id
        ORDER BY c.updated_at DESC
        LIMIT $2`

	rows, err := r.pgpool.Query(ctx, query, userID, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	conversations := []types.Conversation{}
	for rows.Next() {
		var c types.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.IsActive, &c.MessageCount); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Scan failed")
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Rows error")
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	span.SetAttributes(attribute.Int("conversations.count", len(conversations)))
	return conversations, nil
}

func (r *RepositoryImpl) GetMessages(ctx context.Context, conversationID uuid.UUID) ([]types.StoredMessage, error) {
	ctx, span := startSpan(ctx, "GetMessages", "SELECT", "messages")
	defer span.End()

	query := `
        SELECT id, conversation_id, role, content, model, tokens_used, response_time, timestamp
        FROM messages
        WHERE conversation_id = $1
        ORDER BY timestamp ASC`

	rows, err := r.pgpool.Query(ctx, query, conversationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []types.StoredMessage{}
	for rows.Next() {
		var m types.StoredMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.ModelUsed, &m.TokenCount, &m.ResponseTime, &m.Timestamp); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Scan failed")
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

const insertMessage = `
        INSERT INTO messages (conversation_id, role, content, model, tokens_used, response_time)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`

func (r *RepositoryImpl) AddMessage(ctx context.Context, msg types.StoredMessage) (uuid.UUID, error) {
	ctx, span := startSpan(ctx, "AddMessage", "INSERT", "messages")
	defer span.End()

	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx, insertMessage,
		msg.ConversationID, msg.Role, msg.Content, msg.ModelUsed, msg.TokenCount, msg.ResponseTime,
	).Scan(&id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to insert message")
		return uuid.Nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return id, nil
}

func (r *RepositoryImpl) SaveReply(ctx context.Context, msg types.StoredMessage) (uuid.UUID, error) {
	ctx, span := startSpan(ctx, "SaveReply", "INSERT", "messages")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", msg.ConversationID.String()))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to start transaction")
		return uuid.Nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id uuid.UUID
	err = tx.QueryRow(ctx, insertMessage,
		msg.ConversationID, msg.Role, msg.Content, msg.ModelUsed, msg.TokenCount, msg.ResponseTime,
	).Scan(&id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to insert reply")
		return uuid.Nil, fmt.Errorf("failed to insert reply: %w", err)
	}

	if _, err = tx.Exec(ctx, `UPDATE conversations SET updated_at = $1 WHERE id = $2`, msg.Timestamp, msg.ConversationID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to touch conversation")
		return uuid.Nil, fmt.Errorf("failed to update conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to commit transaction")
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	span.SetStatus(codes.Ok, "Reply saved")
	return id, nil
}

func (r *RepositoryImpl) RecordUsage(ctx context.Context, rec types.UsageRecord) error {
	ctx, span := startSpan(ctx, "RecordUsage", "INSERT", "api_usage")
	defer span.End()
	span.SetAttributes(attribute.String("model", rec.Model), attribute.Int("status_code", rec.StatusCode))

	query := `
        INSERT INTO api_usage (user_id, model, endpoint, tokens_used, cost, response_time, status_code)
        VALUES ($1, $2, $3, COALESCE($4::integer, 0), COALESCE($5::double precision, 0), $6, $7)`

	if _, err := r.pgpool.Exec(ctx, query,
		rec.UserID, rec.Model, rec.Endpoint, rec.TokensUsed, rec.Cost, rec.ResponseTime, rec.StatusCode,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to insert usage")
		return fmt.Errorf("failed to insert usage: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) UsageSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]types.UsageStat, error) {
	ctx, span := startSpan(ctx, "UsageSince", "SELECT", "api_usage")
	defer span.End()

	query := `
        SELECT model, COUNT(*), COALESCE(SUM(tokens_used), 0), COALESCE(SUM(cost), 0), COALESCE(AVG(response_time), 0)
        FROM api_usage
        WHERE user_id = $1 AND timestamp >= $2
        GROUP BY model
        ORDER BY model`

	rows, err := r.pgpool.Query(ctx, query, userID, since)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		return nil, fmt.Errorf("failed to query usage: %w", err)
	}
	defer rows.Close()

	stats := []types.UsageStat{}
	for rows.Next() {
		var s types.UsageStat
		if err := rows.Scan(&s.Model, &s.Requests, &s.Tokens, &s.Cost, &s.AvgResponseTime); err != nil {
			return nil, fmt.Errorf("failed to scan usage: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage: %w", err)
	}
	return stats, nil
}
