package auth

import (
	"context"
	"log/slog"

	"github.com/FACorreiaa/multigenqa/internal/types"
)

// VerificationNotifier delivers an email verification token to its owner.
type VerificationNotifier interface {
	SendVerification(ctx context.Context, user *types.User, token string) error
}

// LogNotifier stands in for a mail sender. It records that a token was
// issued but never the token itself.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendVerification(ctx context.Context, user *types.User, _ string) error {
	n.logger.InfoContext(ctx, "Email verification issued",
		slog.String("user_id", user.ID.String()),
		slog.String("email", user.Email),
	)
	return nil
}
